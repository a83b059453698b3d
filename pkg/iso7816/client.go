package iso7816

import (
	"fmt"
	"log/slog"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a high-level driver over the physical connection.
// It implements the automatic handling of ISO 7816-3 transport behaviors that are
// often exposed to the application layer in T=0 protocols:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client automatically generates
//    and sends a GET RESPONSE command to retrieve them.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length (Le) was incorrect and suggests XX.
//    The client automatically re-sends the original command with Le = XX.
//
// Send and SendRaw return a Trace, which is a log of all atomic transactions
// occurred to fulfill the logical request.

// Transmitter abstracts the physical card connection.
// *scard.Card satisfies it. Transmit blocks until the card answers.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
// A Client has no locking: callers issue one command at a time.
type Client struct {
	Card Transmitter
	log  *slog.Logger
}

// NewClient creates a new Client instance. A nil logger uses slog.Default().
func NewClient(card Transmitter, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{Card: card, log: log.With("component", "iso7816")}
}

// Send encodes cmd, transmits it and handles protocol logic (61xx, 6Cxx).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return c.exchange(cmd, raw)
}

// SendRaw transmits raw exactly as given, then handles 61xx and 6Cxx like
// Send. Reader pseudo-APDUs (CLA 'FF') and extended lengths go out untouched.
// A 6Cxx answer to a command that does not decode ends the trace there.
func (c *Client) SendRaw(raw []byte) (Trace, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("command too short: length %d", len(raw))
	}
	cmd, err := ParseCommandAPDU(raw)
	if err != nil {
		c.log.Debug("sending undecodable command as is", "capdu", fmt.Sprintf("%X", raw), "error", err)
		cmd = nil
	}
	return c.exchange(cmd, append([]byte(nil), raw...))
}

func (c *Client) exchange(cmd *CommandAPDU, raw []byte) (Trace, error) {
	c.log.Debug("transmit", "capdu", fmt.Sprintf("%X", raw), "ins", InsCode(raw[1]))

	rawResp, err := c.Card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}
	c.log.Debug("received", "sw", fmt.Sprintf("%04X", uint16(resp.Status)), "length", len(resp.Data))

	trace := Trace{{Command: cmd, Raw: raw, Response: resp}}

	next := c.followUp(cmd, raw, resp.Status)
	if next == nil {
		return trace, nil
	}
	subTrace, err := c.Send(next)
	if err != nil {
		return trace, err
	}
	return append(trace, subTrace...), nil
}

// followUp returns the command completing an exchange, or nil when sw is final.
func (c *Client) followUp(cmd *CommandAPDU, raw []byte, sw StatusWord) *CommandAPDU {
	switch sw.SW1() {
	case 0x61:
		// ISO 7816-4: GET RESPONSE must use the same logical channel as the original command.
		cls, _ := NewClass(raw[0])
		return GetResponse(cls.followUp(), shortLe(sw.SW2()))

	case 0x6C:
		if cmd == nil {
			return nil
		}
		// Clone command to update Le without mutating the original pointer
		retry := *cmd
		retry.Ne = shortLe(sw.SW2())
		return &retry
	}
	return nil
}
