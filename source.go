package formts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Load decodes raw with the form codec and resets the form to it.
func (f *Form) Load(ctx context.Context, raw []byte) error {
	var v any
	if err := f.codec.Unmarshal(raw, &v); err != nil {
		return f.loadFailed(ctx, fmt.Errorf("unmarshal failed: %w", err))
	}
	if err := f.ResetForm(ctx, v); err != nil {
		return f.loadFailed(ctx, err)
	}
	capitan.Emit(ctx, SourceChanged,
		KeyContentType.Field(f.codec.ContentType()),
	)
	return nil
}

func (f *Form) loadFailed(ctx context.Context, err error) error {
	capitan.Emit(ctx, SourceFailed,
		KeyError.Field(err.Error()),
		KeyContentType.Field(f.codec.ContentType()),
	)
	f.diagnose("", err)
	return err
}

// Bind keeps the form's initial values in sync with w. It blocks until
// the first value is loaded, then keeps loading later values in the
// background, debounced by SourceDebounce, until ctx is canceled or the
// watcher closes. Each load resets the form.
//
// Bind can only be called once per form.
func (f *Form) Bind(ctx context.Context, w Watcher) error {
	f.bindMu.Lock()
	if f.bound {
		f.bindMu.Unlock()
		return errors.New("form already bound to a source")
	}
	f.bound = true
	f.bindMu.Unlock()

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case raw, ok := <-changes:
		if !ok {
			return errors.New("watcher closed before emitting initial values")
		}
		initialErr = f.Load(ctx, raw)
	}

	go f.watch(ctx, changes)

	return initialErr
}

// watch loads values from the watcher channel with debouncing.
func (f *Form) watch(ctx context.Context, changes <-chan []byte) {
	defer capitan.Emit(ctx, SourceStopped, KeyDebounce.Field(f.sourceDebounce))

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = f.Load(ctx, pending) //nolint:errcheck // Recorded via loadFailed
				}
				return
			}

			pending = raw
			hasPending = true

			if timer == nil {
				timer = f.clock.NewTimer(f.sourceDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(f.sourceDebounce)
			}

		case <-timerC:
			if hasPending {
				_ = f.Load(ctx, pending) //nolint:errcheck // Recorded via loadFailed
				hasPending = false
			}
		}
	}
}
