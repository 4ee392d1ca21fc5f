package studio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultConnectTimeout bounds how long session initialization waits for the
// initial sync handshake.
const DefaultConnectTimeout = 10 * time.Second

// ErrConnectTimeout is returned when a document does not report connectivity
// within the allowed window.
var ErrConnectTimeout = errors.New("timed out waiting for document connection")

// Connectable is the connectivity surface of a synced document.
type Connectable interface {
	Connected() bool
	OnConnectionChange(fn func(connected bool)) (cancel func())
}

// AwaitConnected resolves once doc reports connectivity. If the document is
// already connected it returns immediately; otherwise it subscribes to
// connectivity transitions and waits for the first true notification. The
// subscription is released on every exit path, including timeout and context
// cancellation.
func AwaitConnected(ctx context.Context, doc Connectable, timeout time.Duration) error {
	if doc.Connected() {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	ready := make(chan struct{}, 1)
	cancel := doc.OnConnectionChange(func(connected bool) {
		if connected {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	// The subscription may have raced the handshake; re-check after
	// subscribing so a transition between the first check and the
	// subscription is not missed.
	if doc.Connected() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrConnectTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
