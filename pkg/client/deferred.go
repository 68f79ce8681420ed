package client

import (
	"context"
	"fmt"

	"github.com/pnwamk/cryptol/pkg/value"
)

// Deferred is the handle for a pending remote computation. The connection
// resolves it when the server answers; callers fetch with Result (blocking)
// or ResultContext, or select on Done for async use.
type Deferred struct {
	done chan struct{}
	val  value.Value
	err  error
}

func newDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

func (d *Deferred) resolve(v value.Value) {
	d.val = v
	close(d.done)
}

func (d *Deferred) reject(err error) {
	d.err = err
	close(d.done)
}

func rejected(err error) *Deferred {
	d := newDeferred()
	d.reject(err)
	return d
}

// Done is closed once the result (or error) is available.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Result blocks until the remote computation finishes.
func (d *Deferred) Result() (value.Value, error) {
	<-d.done
	return d.val, d.err
}

// ResultContext is Result with cancellation. The remote call itself keeps
// running; only the wait is abandoned.
func (d *Deferred) ResultContext(ctx context.Context) (value.Value, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return d.val, d.err
	}
}

// Word fetches the result and requires it to be a single bit vector.
func (d *Deferred) Word() (value.Word, error) {
	v, err := d.Result()
	if err != nil {
		return value.Word{}, err
	}

	w, ok := v.(value.Word)
	if !ok {
		return value.Word{}, fmt.Errorf("client: result is %T, not a bit vector", v)
	}
	return w, nil
}

// Seq fetches the result and requires it to be a sequence.
func (d *Deferred) Seq() (value.Seq, error) {
	v, err := d.Result()
	if err != nil {
		return nil, err
	}

	s, ok := v.(value.Seq)
	if !ok {
		return nil, fmt.Errorf("client: result is %T, not a sequence", v)
	}
	return s, nil
}
