package iso7816

import (
	"context"
	"fmt"
	"log/slog"
)

// APPLICATION (Command Channel Adapter):
// Application exposes the three operations used to explore a card:
// selecting a file by name, reading a record by SFI and number, and issuing
// a raw command. Each call sends one logical command and returns one
// Response. Application does not serialise callers; route calls through a
// single queue so that only one command is outstanding on the card.

// Hooks observe the commands sent through an Application.
// Either function may be nil. They run on the caller's goroutine.
type Hooks struct {
	CommandIssued    func(cmd []byte)
	ResponseReceived func(resp *Response)
}

// Application sends commands to the card through a Client.
type Application struct {
	client *Client
	class  Class
	hooks  Hooks
	log    *slog.Logger
}

// NewApplication creates an Application issuing interindustry commands with cls.
func NewApplication(client *Client, cls Class, hooks Hooks, log *slog.Logger) *Application {
	if log == nil {
		log = slog.Default()
	}
	return &Application{
		client: client,
		class:  cls,
		hooks:  hooks,
		log:    log.With("component", "application"),
	}
}

// SelectFile selects a DF by name (AID or directory name such as "1PAY.SYS.DDF01").
func (a *Application) SelectFile(ctx context.Context, name []byte) (*Response, error) {
	return a.send(ctx, SelectByName(a.class, name))
}

// ReadRecord reads record number record of the file identified by sfi.
func (a *Application) ReadRecord(ctx context.Context, sfi byte, record byte) (*Response, error) {
	if sfi > 30 {
		return nil, fmt.Errorf("invalid SFI %d", sfi)
	}
	return a.send(ctx, ReadRecord(a.class, sfi, record))
}

// IssueCommand transmits a raw C-APDU exactly as given.
func (a *Application) IssueCommand(ctx context.Context, raw []byte) (*Response, error) {
	return a.exchange(ctx, raw, func() (Trace, error) { return a.client.SendRaw(raw) })
}

func (a *Application) send(ctx context.Context, cmd *CommandAPDU) (*Response, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return a.exchange(ctx, raw, func() (Trace, error) { return a.client.Send(cmd) })
}

func (a *Application) exchange(ctx context.Context, raw []byte, transmit func() (Trace, error)) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("invalid command %X: too short", raw)
	}

	if a.hooks.CommandIssued != nil {
		a.hooks.CommandIssued(raw)
	}

	trace, err := transmit()
	if err != nil {
		return nil, err
	}

	resp, err := NewResponse(trace)
	if err != nil {
		return nil, err
	}

	a.log.Debug("command completed", "command", fmt.Sprintf("%X", raw), "sw", fmt.Sprintf("%04X", uint16(resp.Status)), "ok", resp.IsOK())
	if a.hooks.ResponseReceived != nil {
		a.hooks.ResponseReceived(resp)
	}
	return resp, nil
}
