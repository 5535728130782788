package transport

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/netcensus/netcensus/pkg/util"
)

// errDeadline is returned when a connection step outlives Options.Timeout.
var errDeadline = fmt.Errorf("connection step exceeded deadline: %w", util.ErrTimeout)

// ConnError is a failure to establish a device session. Kind is one of
// util.ErrAuthentication, util.ErrTimeout, util.ErrTunnel or util.ErrConnection,
// so callers can branch with errors.Is.
type ConnError struct {
	Kind error
	Host string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Host, e.Err)
}

func (e *ConnError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify wraps err in a ConnError. Credential rejections and deadlines are
// recognised; anything else gets the fallback kind of the failing stage.
func classify(host string, err error, fallback error) error {
	var ce *ConnError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnError{Kind: kindOf(err, fallback), Host: host, Err: err}
}

func kindOf(err error, fallback error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return util.ErrAuthentication
	}
	if errors.Is(err, util.ErrTimeout) {
		return util.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return util.ErrTimeout
	}
	return fallback
}
