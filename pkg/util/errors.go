// Package util provides logging helpers, common error types and string utilities.
package util

import "errors"

// Sentinel errors shared by the automation engine. Typed errors in the
// transport and executor packages match these through errors.Is.
var (
	ErrEmptyInput     = errors.New("no devices to process")
	ErrAuthentication = errors.New("authentication failed")
	ErrTimeout        = errors.New("timed out")
	ErrTunnel         = errors.New("tunnel setup failed")
	ErrConnection     = errors.New("connection failed")
	ErrCommand        = errors.New("command failed")
)

// Kind returns the sentinel that err matches, or nil when err is none of them.
// Authentication wins over timeout, and both win over tunnel, so that a
// credentials problem on the far side of a tunnel is reported as such.
func Kind(err error) error {
	for _, k := range []error{ErrEmptyInput, ErrAuthentication, ErrTimeout, ErrTunnel, ErrCommand, ErrConnection} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
