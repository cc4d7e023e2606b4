package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// ConsoleNotifier prints notifications instead of sending them.
type ConsoleNotifier struct {
	out io.Writer
	now func() time.Time
}

// NewConsoleNotifier writes to out, or stdout if out is nil.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out, now: time.Now}
}

func (c *ConsoleNotifier) Authenticate(ctx context.Context) (Session, error) {
	return c, nil
}

func (c *ConsoleNotifier) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	if s != Session(c) {
		return Receipt{}, ErrWrongSession
	}
	r := Receipt{ID: newID(), Destination: "console", Timestamp: c.now()}
	if _, err := fmt.Fprintf(c.out, "%s %s\n", r.Timestamp.Format(time.RFC3339), text); err != nil {
		return Receipt{}, err
	}
	return r, nil
}

func (c *ConsoleNotifier) Close() error { return nil }
