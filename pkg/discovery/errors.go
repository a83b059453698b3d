package discovery

import (
	"errors"
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/iso7816"
)

// ErrSessionFailed matches every SessionFailure with errors.Is.
var ErrSessionFailed = errors.New("discovery session failed")

// ErrNoShortFileID is returned when the PSE FCI carries no SFI (Tag '88').
var ErrNoShortFileID = errors.New("no short file identifier (Tag 88)")

// CommandFailure is a command that could not be sent or that the card
// rejected. It is recorded and the session moves on.
type CommandFailure struct {
	Step   string
	Status iso7816.StatusWord
	Err    error
}

func (e *CommandFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Status.Verbose())
}

func (e *CommandFailure) Unwrap() error {
	return e.Err
}

// SessionFailure ends a session: a step the protocol cannot proceed without
// did not succeed.
type SessionFailure struct {
	State State
	Err   error
}

func (e *SessionFailure) Error() string {
	return fmt.Sprintf("discovery failed in %s: %v", e.State, e.Err)
}

func (e *SessionFailure) Unwrap() error {
	return e.Err
}

func (e *SessionFailure) Is(target error) bool {
	return target == ErrSessionFailed
}
