package executor

import (
	"fmt"

	"github.com/netcensus/netcensus/pkg/util"
)

// CommandError is a failure of a single command on a live session. It
// matches util.ErrCommand, and also util.ErrTimeout for read timeouts.
type CommandError struct {
	Parameter string
	Command   string
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("error executing command: %v", e.Err)
}

func (e *CommandError) Unwrap() []error {
	return []error{util.ErrCommand, e.Err}
}
