package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// Response is the immutable outcome of one logical command: the command as
// first sent, and the data and status of the final transaction of its trace
// (after any GET RESPONSE or Le correction).
type Response struct {
	Command []byte
	Data    []byte
	Status  StatusWord
	Trace   Trace
}

// NewResponse snapshots a trace. The trace must not be empty.
func NewResponse(t Trace) (*Response, error) {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil, fmt.Errorf("cannot create response from empty trace")
	}

	raw, err := t[0].Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	return &Response{
		Command: raw,
		Data:    append([]byte(nil), last.Response.Data...),
		Status:  last.Response.Status,
		Trace:   append(Trace(nil), t...),
	}, nil
}

// IsOK reports whether the card answered '9000'.
func (r *Response) IsOK() bool {
	return r.Status == SW_NO_ERROR
}

// Meaning returns a human-readable description of the status word.
func (r *Response) Meaning() string {
	return r.Status.Verbose()
}

func (r *Response) String() string {
	return fmt.Sprintf("%X -> %X %04X", r.Command, r.Data, uint16(r.Status))
}

// Describe renders the exchange for diagnostics. Response data is shown as a
// TLV tree when it decodes, as a hex dump otherwise.
func (r *Response) Describe(names tlv.TagNamer) string {
	var sb strings.Builder

	sb.WriteString("=== RESPONSE REPORT ===\n")
	fmt.Fprintf(&sb, "[1] Command: %X\n", r.Command)
	if len(r.Trace) > 0 {
		describeCommand(&sb, r.Trace[0].Command)
	}
	if r.Trace.FollowedUp() {
		fmt.Fprintf(&sb, "[2] Protocol: Auto-handling (%d steps)\n", len(r.Trace))
		fmt.Fprintf(&sb, "    + Action:  %s\n", r.Trace.Last().Command.Instruction.Raw)
	}

	result := "[OK]"
	if !r.IsOK() {
		result = "[!!]"
	}
	fmt.Fprintf(&sb, "[=] Result: %s %s\n", result, r.Meaning())

	if len(r.Data) == 0 {
		sb.WriteString("    - No Data Received.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "    + Length: %d bytes\n", len(r.Data))
	if node, err := tlv.Decode(r.Data); err == nil {
		for _, line := range strings.Split(tlv.Format(node, names), "\n") {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	} else {
		fmt.Fprintf(&sb, "    + Dump:   %X\n", r.Data)
		fmt.Fprintf(&sb, "    + ASCII:  %q\n", tlv.Printable(r.Data))
	}

	return strings.TrimRight(sb.String(), "\n")
}
