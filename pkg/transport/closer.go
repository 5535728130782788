package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// closeStack releases acquired resources in reverse order of acquisition.
type closeStack []io.Closer

func (s *closeStack) push(c io.Closer) {
	*s = append(*s, c)
}

// close releases everything on the stack and empties it. Errors from
// resources that were already torn down by an earlier close are ignored.
func (s *closeStack) close() error {
	var first error
	for i := len(*s) - 1; i >= 0; i-- {
		err := (*s)[i].Close()
		if err != nil && first == nil && !benignClose(err) {
			first = err
		}
	}
	*s = nil
	return first
}

func benignClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

// withTimeout runs fn and waits at most timeout for it. When the deadline or
// ctx wins, the eventual result of fn is closed in the background so the
// abandoned resource does not leak.
func withTimeout[T io.Closer](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	abandon := func() {
		go func() {
			if r := <-ch; r.err == nil {
				r.v.Close()
			}
		}()
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		abandon()
		return zero, errDeadline
	case <-ctx.Done():
		abandon()
		return zero, ctx.Err()
	}
}
