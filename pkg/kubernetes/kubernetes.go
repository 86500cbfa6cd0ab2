// Package kubernetes provides a formts.Watcher that loads initial form
// values from a data key of a ConfigMap or Secret.
package kubernetes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// ResourceType specifies the type of Kubernetes resource to watch.
type ResourceType int

const (
	// ConfigMap watches a ConfigMap resource.
	ConfigMap ResourceType = iota
	// Secret watches a Secret resource.
	Secret
)

// DefaultRetryDelay is the pause before re-establishing a broken watch.
const DefaultRetryDelay = time.Second

var errWatchClosed = errors.New("watch channel closed")

// Watcher watches one data key of a ConfigMap or Secret. Updates that
// leave the key's value unchanged are not emitted.
type Watcher struct {
	client       kubernetes.Interface
	namespace    string
	name         string
	key          string
	resourceType ResourceType
	emitMissing  bool
	retryDelay   time.Duration
	clock        clockz.Clock
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithResourceType sets the resource type to watch. Defaults to ConfigMap.
func WithResourceType(rt ResourceType) Option {
	return func(w *Watcher) {
		w.resourceType = rt
	}
}

// WithDefaultsWhenMissing makes the watcher emit "{}" when the resource
// or its key is absent or deleted, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// WithRetryDelay sets the pause before re-establishing a broken watch.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// WithClock sets the clock used for retry delays.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// New creates a new Watcher for key within the named resource.
func New(client kubernetes.Interface, namespace, name, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client:       client,
		namespace:    namespace,
		name:         name,
		key:          key,
		resourceType: ConfigMap,
		retryDelay:   DefaultRetryDelay,
		clock:        clockz.RealClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch begins watching the resource and returns a channel that emits the
// key's value whenever it changes. The current value is emitted first so
// a bound form loads before Bind returns. Broken watches are re-established
// after the retry delay until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		var last []byte
		for {
			err := w.watchLoop(ctx, out, &last)
			if err == nil || ctx.Err() != nil {
				return
			}
			timer := w.clock.NewTimer(w.retryDelay)
			select {
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()

	return out, nil
}

// emit sends val unless it equals the last emitted value.
func (w *Watcher) emit(ctx context.Context, out chan<- []byte, last *[]byte, val []byte) error {
	if val == nil || (*last != nil && bytes.Equal(*last, val)) {
		return nil
	}
	select {
	case out <- val:
		*last = val
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) watchLoop(ctx context.Context, out chan<- []byte, last *[]byte) error {
	value, resourceVersion, err := w.getValue(ctx)
	if err != nil {
		return err
	}
	if err := w.emit(ctx, out, last, value); err != nil {
		return err
	}

	opts := metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", w.name),
		ResourceVersion: resourceVersion,
		Watch:           true,
	}

	var watcher watch.Interface
	if w.resourceType == ConfigMap {
		watcher, err = w.client.CoreV1().ConfigMaps(w.namespace).Watch(ctx, opts)
	} else {
		watcher, err = w.client.CoreV1().Secrets(w.namespace).Watch(ctx, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return errWatchClosed
			}

			var val []byte
			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error: %v", apierrors.FromObject(event.Object))
			case watch.Deleted:
				val = w.missing()
			default:
				val = w.extractValue(event.Object)
			}
			if err := w.emit(ctx, out, last, val); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) missing() []byte {
	if w.emitMissing {
		return []byte("{}")
	}
	return nil
}

func (w *Watcher) getValue(ctx context.Context) ([]byte, string, error) {
	var (
		obj runtime.Object
		rv  string
		err error
	)
	if w.resourceType == ConfigMap {
		var cm *corev1.ConfigMap
		cm, err = w.client.CoreV1().ConfigMaps(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
		if err == nil {
			obj, rv = cm, cm.ResourceVersion
		}
	} else {
		var secret *corev1.Secret
		secret, err = w.client.CoreV1().Secrets(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
		if err == nil {
			obj, rv = secret, secret.ResourceVersion
		}
	}
	if apierrors.IsNotFound(err) && w.emitMissing {
		// Watch from the current state; the resource may be created later.
		return w.missing(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return w.extractValue(obj), rv, nil
}

// extractValue returns the key's value, or the missing marker when the
// resource does not carry the key.
func (w *Watcher) extractValue(obj runtime.Object) []byte {
	switch o := obj.(type) {
	case *corev1.ConfigMap:
		if v, ok := o.Data[w.key]; ok {
			return []byte(v)
		}
	case *corev1.Secret:
		if v, ok := o.Data[w.key]; ok {
			return v
		}
	}
	return w.missing()
}
