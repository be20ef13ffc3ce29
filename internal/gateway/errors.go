package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is wrapped by RemoteOperationError when the addressed row does not exist
var ErrNotFound = errors.New("record not found")

// RemoteOperationError is returned by every gateway operation that fails.
// Message is human readable and shown to the user as is.
type RemoteOperationError struct {
	Resource string
	Op       string
	Message  string
	Err      error
}

func (e *RemoteOperationError) Error() string {
	return e.Message
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// Describe returns the error with resource and operation, for logs
func (e *RemoteOperationError) Describe() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.Op, e.Message)
}

func remoteError(resource, op string, err error) *RemoteOperationError {
	var re *RemoteOperationError
	if errors.As(err, &re) {
		return re
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &RemoteOperationError{Resource: resource, Op: op, Message: msg, Err: err}
}

func notFound(resource, op string, id int64) *RemoteOperationError {
	return &RemoteOperationError{
		Resource: resource,
		Op:       op,
		Message:  fmt.Sprintf("%s %d not found", resource, id),
		Err:      ErrNotFound,
	}
}

// AsRemote extracts a RemoteOperationError from err
func AsRemote(err error) (*RemoteOperationError, bool) {
	var re *RemoteOperationError
	ok := errors.As(err, &re)
	return re, ok
}
