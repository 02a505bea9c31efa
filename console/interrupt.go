package console

import (
	"context"
	"os"
	"os/signal"
)

// WithInterrupt returns a copy of parent done on the first Ctrl-C, for the span of one prompt.
// Call stop as soon as the prompt is answered: until then Ctrl-C no longer ends the process.
func WithInterrupt(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
