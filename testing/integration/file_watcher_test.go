package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	formts "github.com/VirtusLab-Open-Source/formts-sub001"
	formtstest "github.com/VirtusLab-Open-Source/formts-sub001/testing"
)

func TestFileWatcher_EmitsInitialContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, []byte(`{"name":"Ada"}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := formts.NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case data := <-out:
		if string(data) != `{"name":"Ada"}` {
			t.Errorf("unexpected initial contents %q", data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for initial contents")
	}
}

func TestFileWatcher_ClosesOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out, err := formts.NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-out
	cancel()

	if !formtstest.WaitFor(t, time.Second, func() bool {
		select {
		case _, ok := <-out:
			return !ok
		default:
			return false
		}
	}) {
		t.Error("expected channel to close after cancel")
	}
}

func TestFileWatcher_ErrorOnNonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := formts.NewFileWatcher(path).Watch(context.Background()); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestBind_ReloadsFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signup.yml")
	initial := "name: Ada\naddress:\n  city: London\ncontacts:\n  - email: ada@example.com\n"
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := formts.New(formtstest.SignupSchema()).
		Codec(formts.CodecFor(path)).
		SourceDebounce(10 * time.Millisecond)
	if err := f.Bind(ctx, formts.NewFileWatcher(path)); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	formtstest.RequireValue(t, f, "address.city", "London")
	formtstest.RequireValue(t, f, "contacts[0].email", "ada@example.com")
	formtstest.RequireValue(t, f, "age", "")

	for _, city := range []string{"Paris", "Berlin", "Oslo"} {
		data := "name: Ada\naddress:\n  city: " + city + "\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	city := f.Schema().MustField("address.city")
	if !formtstest.WaitFor(t, 2*time.Second, func() bool { return f.Value(city) == "Oslo" }) {
		t.Fatalf("expected latest city, got %v", f.Value(city))
	}
	formtstest.RequireValue(t, f, "contacts", []any{})
}

func TestFileWatcher_FollowsRenameSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.json")
	if err := os.WriteFile(path, []byte(`{"name":"Ada"}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := formts.NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-out

	tmp := filepath.Join(dir, ".form.json.swp")
	if err := os.WriteFile(tmp, []byte(`{"name":"Grace"}`), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}

	select {
	case data := <-out:
		if string(data) != `{"name":"Grace"}` {
			t.Errorf("unexpected contents %q", data)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for renamed contents")
	}
}

func TestFileWatcher_SkipsUnchangedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, []byte(`{"name":"Ada"}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := formts.NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-out

	if err := os.WriteFile(path, []byte(`{"name":"Ada"}`), 0o600); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"name":"Grace"}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case data := <-out:
		if string(data) != `{"name":"Grace"}` {
			t.Errorf("expected only the changed contents, got %q", data)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for changed contents")
	}
}

func TestFileWatcher_DefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := formts.NewFileWatcher(path, formts.FileDefaultsWhenMissing()).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	next := func() string {
		t.Helper()
		select {
		case data := <-out:
			return string(data)
		case <-ctx.Done():
			t.Fatal("timeout waiting for contents")
			return ""
		}
	}

	if got := next(); got != "{}" {
		t.Fatalf("expected defaults marker for missing file, got %q", got)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(`{"name":"Ada"}`), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}
	if got := next(); got != `{"name":"Ada"}` {
		t.Fatalf("unexpected contents %q", got)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	if got := next(); got != "{}" {
		t.Fatalf("expected defaults marker after removal, got %q", got)
	}
}
