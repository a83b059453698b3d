// Package discovery enumerates the payment applications of a card through
// the Payment System Environment.
//
// The Orchestrator selects the PSE (1PAY.SYS.DDF01), reads the records of
// its directory file, extracts the AIDs of the Application Templates, then
// selects each application, sends GET PROCESSING OPTIONS and reads its
// records. Every command goes through a queue.Queue so that only one is
// outstanding on the card at a time. Failures of individual commands are
// recorded in the Session and the run continues; only a failed PSE
// selection ends the run early.
package discovery

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gregLibert/card-explorer/pkg/emv"
	"github.com/gregLibert/card-explorer/pkg/event"
	"github.com/gregLibert/card-explorer/pkg/iso7816"
	"github.com/gregLibert/card-explorer/pkg/queue"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// Channel sends one command to the card and returns its response.
// iso7816.Application implements it.
type Channel interface {
	SelectFile(ctx context.Context, name []byte) (*iso7816.Response, error)
	ReadRecord(ctx context.Context, sfi byte, record byte) (*iso7816.Response, error)
	IssueCommand(ctx context.Context, raw []byte) (*iso7816.Response, error)
}

// Orchestrator runs the discovery protocol for one card.
type Orchestrator struct {
	channel Channel
	queue   *queue.Queue
	sink    event.Sink
	cfg     Config
	log     *slog.Logger
}

// New creates an Orchestrator. sink receives the discovery notifications and
// may be nil. q is shared with any other user of the same card.
func New(channel Channel, q *queue.Queue, sink event.Sink, cfg Config, log *slog.Logger) *Orchestrator {
	if sink == nil {
		sink = event.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		channel: channel,
		queue:   q,
		sink:    sink,
		cfg:     cfg,
		log:     log.With("component", "discovery"),
	}
}

// Run performs one discovery and returns its Session.
//
// The error is a *SessionFailure when the PSE cannot be used, or the context
// error when ctx ends first; in both cases the returned Session holds what
// was gathered so far. A run that finds no application is a success.
func (o *Orchestrator) Run(ctx context.Context) (*Session, error) {
	s := newSession()
	r := &run{Orchestrator: o, s: s, log: o.log.With("session", s.ID)}

	if err := o.cfg.Validate(); err != nil {
		return s, r.fail(&SessionFailure{State: Idle, Err: err})
	}

	err := r.discover(ctx)
	switch {
	case err == nil:
		s.State = Done
		r.log.Info("discovery complete", "aids", len(s.AIDs), "responses", len(s.Responses()), "failures", len(s.Failures))
		r.publish(event.Event{Type: event.DiscoveryComplete, Results: exchanges(s.Responses())})
		return s, nil
	case ctx.Err() != nil:
		s.State = Failed
		r.log.Info("discovery cancelled", "state", s.State)
		return s, ctx.Err()
	default:
		return s, r.fail(err)
	}
}

// run is the per-session view of an Orchestrator.
type run struct {
	*Orchestrator
	s   *Session
	log *slog.Logger
}

func (r *run) publish(e event.Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Session = r.s.ID
	r.sink.Publish(e)
}

func (r *run) fail(err error) error {
	var sf *SessionFailure
	if !errors.As(err, &sf) {
		sf = &SessionFailure{State: r.s.State, Err: err}
	}
	r.s.State = Failed
	r.log.Error("discovery failed", "error", sf)
	r.publish(event.Event{Type: event.DiscoveryFailed, Reason: sf.Error()})
	return sf
}

func (r *run) absorb(err error) {
	r.log.Warn("step skipped", "state", r.s.State, "error", err)
	r.s.Failures = append(r.s.Failures, err)
}

func (r *run) discover(ctx context.Context) error {
	sfi, err := r.selectPSE(ctx)
	if err != nil {
		return err
	}

	r.s.State = PseDirectoryReading
	dir, err := r.readRecords(ctx, sfi)
	if err != nil {
		return err
	}
	r.s.Directory = dir

	payloads := make([][]byte, len(dir))
	for i, resp := range dir {
		payloads[i] = resp.Data
		if r.log.Enabled(ctx, slog.LevelDebug) {
			if rec, err := emv.ParseDirectoryRecord(resp.Data); err == nil {
				r.log.Debug("directory record", "record", rec.Describe())
			}
		}
	}
	aids, errs := ExtractApplicationIDs(payloads, r.templateFound)
	for _, err := range errs {
		r.absorb(err)
	}
	r.s.AIDs = aids
	r.s.State = ApplicationIdsExtracted
	r.log.Info("application identifiers extracted", "aids", aids)

	for _, aid := range aids {
		app, err := r.exploreApplication(ctx, aid)
		if err != nil {
			return err
		}
		if app != nil {
			r.s.Applications = append(r.s.Applications, *app)
		}
	}
	return nil
}

func (r *run) selectPSE(ctx context.Context) (byte, error) {
	r.s.State = PseSelecting

	resp, err := r.send(ctx, "SELECT "+r.cfg.PSEName, func(ctx context.Context) (*iso7816.Response, error) {
		return r.channel.SelectFile(ctx, []byte(r.cfg.PSEName))
	})
	if err != nil {
		return 0, r.sessionError(ctx, err)
	}
	r.log.Debug("PSE selected", "fci", describe(resp.Data))

	sfi, err := FindShortFileID(resp.Data)
	if err != nil {
		return 0, &SessionFailure{State: PseSelecting, Err: err}
	}
	r.s.SFI = sfi
	r.log.Info("PSE selected", "sfi", sfi)
	r.publish(event.Event{Type: event.PSESelected, SFI: sfi})

	n, err := strconv.ParseUint(sfi, 16, 8)
	if err != nil {
		return 0, &SessionFailure{State: PseSelecting, Err: err}
	}
	return byte(n), nil
}

// sessionError keeps context errors as they are.
func (r *run) sessionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &SessionFailure{State: r.s.State, Err: err}
}

// send runs one command through the queue. A transport error or a status
// other than '9000' is returned as a *CommandFailure.
func (r *run) send(ctx context.Context, step string, fn queue.Task[*iso7816.Response]) (*iso7816.Response, error) {
	var resp *iso7816.Response
	err := r.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = fn(ctx)
		return err
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
			return nil, err
		}
		return nil, &CommandFailure{Step: step, Err: err}
	}
	if !resp.IsOK() {
		return nil, &CommandFailure{Step: step, Status: resp.Status}
	}
	return resp, nil
}

// readRecords reads FirstRecord..LastRecord of sfi and keeps the '9000' answers.
func (r *run) readRecords(ctx context.Context, sfi byte) ([]*iso7816.Response, error) {
	var numbers []byte
	for n := int(r.cfg.FirstRecord); n <= int(r.cfg.LastRecord); n++ {
		numbers = append(numbers, byte(n))
	}
	return r.readFile(ctx, sfi, numbers)
}

func (r *run) readFile(ctx context.Context, sfi byte, numbers []byte) ([]*iso7816.Response, error) {
	tasks := make([]queue.Task[*iso7816.Response], len(numbers))
	for i, n := range numbers {
		n := n
		tasks[i] = func(ctx context.Context) (*iso7816.Response, error) {
			resp, err := r.channel.ReadRecord(ctx, sfi, n)
			if err != nil {
				return nil, &CommandFailure{Step: readRecordStep(sfi, n), Err: err}
			}
			return resp, nil
		}
	}

	accept := func(resp *iso7816.Response) error {
		if !resp.IsOK() {
			return &CommandFailure{Step: fmt.Sprintf("READ RECORD %X", resp.Command), Status: resp.Status}
		}
		r.log.Debug("record read", "sfi", sfi, "record", describe(resp.Data))
		return nil
	}

	records, failures, err := queue.Sequence(ctx, r.queue, tasks, accept)
	for _, f := range failures {
		r.s.Failures = append(r.s.Failures, f.Err)
	}
	return records, err
}

func readRecordStep(sfi, record byte) string {
	return fmt.Sprintf("READ RECORD SFI %d record %d", sfi, record)
}

func (r *run) templateFound(template *tlv.Node) {
	e := event.Event{Type: event.ApplicationTemplateFound, Template: template}

	if app, err := emv.ParseApplicationTemplate(template); err == nil {
		e.Application = &event.Application{
			AID:   hex.EncodeToString(app.AID),
			Label: app.Name(),
		}
		if len(app.ApplicationPriorityIndicator) > 0 {
			e.Application.Priority = int(app.ApplicationPriorityIndicator[0] & 0x0F)
		}
	} else {
		r.log.Warn("application template not mapped", "error", err)
	}

	r.log.Debug("application template found", "template", emv.Describe(template))
	r.publish(e)
}

// exploreApplication selects aid and reads its files. A nil result means the
// SELECT was rejected; only context and queue errors are returned.
func (r *run) exploreApplication(ctx context.Context, aid string) (*ApplicationResult, error) {
	r.s.State = ApplicationSelecting
	log := r.log.With("aid", aid)

	name, err := hex.DecodeString(aid)
	if err != nil {
		r.absorb(fmt.Errorf("AID %q: %w", aid, err))
		return nil, nil
	}

	sel, err := r.send(ctx, "SELECT "+aid, func(ctx context.Context) (*iso7816.Response, error) {
		return r.channel.SelectFile(ctx, name)
	})
	if err != nil {
		return nil, r.absorbCommand(ctx, err)
	}

	app := &ApplicationResult{AID: aid, Select: sel}
	if fci, err := emv.ParseFCI(sel.Data); err == nil {
		app.Name = fci.Name()
		if log.Enabled(ctx, slog.LevelDebug) {
			log.Debug("application FCI", "fci", fci.Describe())
		}
	}
	log.Info("application selected", "name", app.Name)
	r.publish(event.Event{Type: event.ApplicationSelected, AID: aid})

	gpo, err := r.send(ctx, "GET PROCESSING OPTIONS "+aid, func(ctx context.Context) (*iso7816.Response, error) {
		return r.channel.IssueCommand(ctx, r.cfg.GPOCommand)
	})
	if err != nil {
		if err := r.absorbCommand(ctx, err); err != nil {
			return app, err
		}
	}
	app.GPO = gpo

	r.s.State = ApplicationRecordReading
	for _, loc := range r.fileLocators(gpo) {
		records, err := r.readFile(ctx, loc.SFI, loc.Records())
		app.Records = append(app.Records, records...)
		if err != nil {
			return app, err
		}
	}

	log.Info("application read", "records", len(app.Records))
	return app, nil
}

// absorbCommand records a CommandFailure and passes anything else through.
func (r *run) absorbCommand(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var cf *CommandFailure
	if errors.As(err, &cf) {
		r.absorb(err)
		return nil
	}
	return err
}

func (r *run) fileLocators(gpo *iso7816.Response) []emv.AFLEntry {
	if r.cfg.FilePolicy == FixedFile {
		return []emv.AFLEntry{{
			SFI:         r.cfg.ApplicationSFI,
			FirstRecord: r.cfg.FirstRecord,
			LastRecord:  r.cfg.LastRecord,
		}}
	}

	if gpo == nil {
		return nil
	}
	entries, err := emv.FileLocatorFromGPO(gpo.Data)
	if err != nil {
		r.absorb(fmt.Errorf("application file locator: %w", err))
		return nil
	}
	return entries
}

func describe(data []byte) string {
	root, err := tlv.Decode(data)
	if err != nil {
		return fmt.Sprintf("%X", data)
	}
	return emv.Describe(root)
}

func exchanges(responses []*iso7816.Response) []event.Exchange {
	out := make([]event.Exchange, len(responses))
	for i, resp := range responses {
		out[i] = event.Exchange{Command: resp.Command, Data: resp.Data, Status: uint16(resp.Status)}
	}
	return out
}
