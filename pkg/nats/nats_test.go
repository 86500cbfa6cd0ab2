package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	formts "github.com/VirtusLab-Open-Source/formts-sub001"
	"github.com/nats-io/nats.go/jetstream"
)

var _ formts.Watcher = (*Watcher)(nil)

type fakeEntry struct {
	jetstream.KeyValueEntry
	value []byte
	op    jetstream.KeyValueOp
}

func (e *fakeEntry) Value() []byte                   { return e.value }
func (e *fakeEntry) Operation() jetstream.KeyValueOp { return e.op }

type fakeKeyWatcher struct {
	jetstream.KeyWatcher
	updates chan jetstream.KeyValueEntry
	stopped chan struct{}
}

func (w *fakeKeyWatcher) Updates() <-chan jetstream.KeyValueEntry { return w.updates }

func (w *fakeKeyWatcher) Stop() error {
	close(w.stopped)
	return nil
}

type fakeKV struct {
	jetstream.KeyValue
	watcher *fakeKeyWatcher
	err     error
}

func (kv *fakeKV) Watch(_ context.Context, _ string, _ ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	if kv.err != nil {
		return nil, kv.err
	}
	return kv.watcher, nil
}

func newFakeKV() *fakeKV {
	return &fakeKV{watcher: &fakeKeyWatcher{
		updates: make(chan jetstream.KeyValueEntry, 4),
		stopped: make(chan struct{}),
	}}
}

func put(v string) jetstream.KeyValueEntry {
	return &fakeEntry{value: []byte(v), op: jetstream.KeyValuePut}
}

func recv(t *testing.T, out <-chan []byte) string {
	t.Helper()
	select {
	case v, ok := <-out:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value")
	}
	return ""
}

func TestWatcher_ForwardsPuts(t *testing.T) {
	kv := newFakeKV()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := New(kv, "signup").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	kv.watcher.updates <- put(`{"name":"Ada"}`)
	kv.watcher.updates <- nil
	kv.watcher.updates <- &fakeEntry{op: jetstream.KeyValueDelete}
	kv.watcher.updates <- put(`{"name":"Grace"}`)

	if got := recv(t, out); got != `{"name":"Ada"}` {
		t.Errorf("first = %s", got)
	}
	if got := recv(t, out); got != `{"name":"Grace"}` {
		t.Errorf("second = %s", got)
	}
}

func TestWatcher_DefaultsWhenMissing(t *testing.T) {
	kv := newFakeKV()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := New(kv, "signup", WithDefaultsWhenMissing()).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	kv.watcher.updates <- nil
	if got := recv(t, out); got != "{}" {
		t.Errorf("empty replay = %s, want {}", got)
	}

	kv.watcher.updates <- &fakeEntry{op: jetstream.KeyValuePurge}
	if got := recv(t, out); got != "{}" {
		t.Errorf("after purge = %s, want {}", got)
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	kv := newFakeKV()
	ctx, cancel := context.WithCancel(context.Background())

	out, err := New(kv, "signup").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	cancel()

	select {
	case <-kv.watcher.stopped:
	case <-time.After(time.Second):
		t.Fatal("expected the key watcher to be stopped")
	}
	if _, ok := <-out; ok {
		t.Error("expected channel to be closed")
	}
}

func TestWatcher_WatchError(t *testing.T) {
	kv := &fakeKV{err: errors.New("no bucket")}
	if _, err := New(kv, "signup").Watch(context.Background()); err == nil {
		t.Error("expected error")
	}
}
