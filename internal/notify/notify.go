// Package notify delivers report messages to their destinations.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier delivers one message to a destination, what a destination is
// (channel id, email address) depends on the implementation.
//
// note: fault injection point
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// Writer prints messages instead of sending them, it backs dry runs.
type Writer struct {
	mu  sync.Mutex
	Out io.Writer
}

func (w *Writer) Send(ctx context.Context, destination, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.Out, "--- %s ---\n%s\n\n", destination, text)
	return err
}
