package discovery

import (
	"github.com/google/uuid"
	"github.com/gregLibert/card-explorer/pkg/iso7816"
)

// ApplicationResult gathers the successful responses for one AID.
type ApplicationResult struct {
	AID string

	// Name is the preferred name or label from the SELECT FCI, if any.
	Name string

	Select  *iso7816.Response
	GPO     *iso7816.Response
	Records []*iso7816.Response
}

// Responses lists the successful responses in the order they were received.
func (r ApplicationResult) Responses() []*iso7816.Response {
	var out []*iso7816.Response
	if r.Select != nil {
		out = append(out, r.Select)
	}
	if r.GPO != nil {
		out = append(out, r.GPO)
	}
	return append(out, r.Records...)
}

// Session is the state of one discovery run against one card. It is owned
// by the Orchestrator running it and handed to the caller when Run returns.
type Session struct {
	ID    uuid.UUID
	State State

	// SFI is the PSE short file identifier, hex encoded ("02").
	SFI string

	// Directory holds the PSE records read successfully.
	Directory []*iso7816.Response

	// AIDs are the candidate application identifiers, lowercase hex, in
	// extraction order.
	AIDs []string

	Applications []ApplicationResult

	// Failures are the absorbed CommandFailure and MalformedTLVError values.
	Failures []error
}

func newSession() *Session {
	return &Session{ID: uuid.New(), State: Idle}
}

// Responses flattens the per-application results in processing order.
func (s *Session) Responses() []*iso7816.Response {
	var out []*iso7816.Response
	for _, app := range s.Applications {
		out = append(out, app.Responses()...)
	}
	return out
}
