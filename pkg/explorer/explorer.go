// Package explorer runs one discovery session per inserted card and lets
// callers send raw commands to a card alongside it.
//
// The Explorer listens to card-inserted and card-removed events on a Bus.
// On insertion it connects to the card and starts a discovery in the
// background; on removal it cancels that discovery and disconnects. Every
// command to a card, from the discovery or from Issue, goes through the
// card's queue.Queue.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gregLibert/card-explorer/pkg/discovery"
	"github.com/gregLibert/card-explorer/pkg/emv"
	"github.com/gregLibert/card-explorer/pkg/event"
	"github.com/gregLibert/card-explorer/pkg/iso7816"
	"github.com/gregLibert/card-explorer/pkg/queue"
	"github.com/gregLibert/card-explorer/pkg/reader"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

var (
	// ErrNoCard is returned by Issue when no card is connected in the reader.
	ErrNoCard = errors.New("no card connected")

	// ErrAmbiguousReader is returned by Issue when the reader name matches
	// more than one connected card.
	ErrAmbiguousReader = errors.New("several cards connected, name a reader")
)

type session struct {
	reader string
	card   reader.Card
	app    *iso7816.Application
	queue  *queue.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// Explorer supervises the cards seen on a Bus.
type Explorer struct {
	connector reader.Connector
	bus       *event.Bus
	events    chan event.Event
	cfg       discovery.Config
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New subscribes to bus and returns an Explorer. Events published before Run
// is called are buffered.
func New(connector reader.Connector, bus *event.Bus, cfg discovery.Config, log *slog.Logger) (*Explorer, error) {
	if log == nil {
		log = slog.Default()
	}
	x := &Explorer{
		connector: connector,
		bus:       bus,
		events:    make(chan event.Event, 16),
		cfg:       cfg,
		log:       log.With("component", "explorer"),
		sessions:  make(map[string]*session),
	}
	if err := bus.Subscribe(x.events, event.CardInserted, event.CardRemoved, event.DeviceDeactivated); err != nil {
		return nil, err
	}
	return x, nil
}

// Run handles card events until ctx ends, then closes every session.
func (x *Explorer) Run(ctx context.Context) error {
	defer x.closeAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-x.events:
			switch e.Type {
			case event.CardInserted:
				x.open(ctx, e.Reader)
			case event.CardRemoved, event.DeviceDeactivated:
				x.close(e.Reader)
			}
		}
	}
}

func (x *Explorer) open(ctx context.Context, name string) {
	x.close(name)

	card, err := x.connector.Connect(name)
	if err != nil {
		x.log.Error("connect failed", "reader", name, "error", err)
		return
	}

	log := x.log.With("reader", name)
	sink := readerSink{bus: x.bus, reader: name}
	hooks := iso7816.Hooks{
		CommandIssued: func(cmd []byte) {
			e := event.New(event.CommandIssued)
			e.Command = cmd
			sink.Publish(e)
		},
		ResponseReceived: func(resp *iso7816.Response) {
			e := event.New(event.ResponseReceived)
			e.Command = resp.Command
			e.Data = resp.Data
			e.Status = uint16(resp.Status)
			e.OK = resp.IsOK()
			e.Meaning = resp.Meaning()
			sink.Publish(e)
		},
	}

	cls, _ := iso7816.NewClass(0x00)
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		reader: name,
		card:   card,
		app:    iso7816.NewApplication(iso7816.NewClient(card, log), cls, hooks, log),
		queue:  queue.New(log),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	x.mu.Lock()
	x.sessions[name] = s
	x.mu.Unlock()

	go func() {
		defer close(s.done)
		orch := discovery.New(s.app, s.queue, sink, x.cfg, log)
		result, err := orch.Run(sctx)
		switch {
		case err == nil:
			log.Info("discovery finished", "session", result.ID, "aids", result.AIDs)
		case sctx.Err() != nil:
			log.Info("discovery abandoned", "session", result.ID)
		default:
			log.Warn("discovery failed", "session", result.ID, "error", err)
		}
	}()
}

func (x *Explorer) close(name string) {
	x.mu.Lock()
	s, ok := x.sessions[name]
	delete(x.sessions, name)
	x.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	<-s.done
	s.queue.Close()
	if err := s.card.Close(); err != nil {
		x.log.Debug("disconnect", "reader", name, "error", err)
	}
	x.log.Info("session closed", "reader", name)
}

func (x *Explorer) closeAll() {
	x.mu.Lock()
	names := make([]string, 0, len(x.sessions))
	for name := range x.sessions {
		names = append(names, name)
	}
	x.mu.Unlock()

	for _, name := range names {
		x.close(name)
	}
}

// Readers lists the readers holding a connected card.
func (x *Explorer) Readers() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	names := make([]string, 0, len(x.sessions))
	for name := range x.sessions {
		names = append(names, name)
	}
	return names
}

// Issue sends a hex-encoded command (spaces allowed) to the card in the named
// reader. A name that matches no reader exactly picks the only reader whose
// name contains it, so an empty name picks the only connected card. The
// command waits for any command already in flight on that card.
func (x *Explorer) Issue(ctx context.Context, name string, command string) (*iso7816.Response, error) {
	raw, err := decodeHex(command)
	if err != nil {
		return nil, err
	}

	s, err := x.lookup(name)
	if err != nil {
		return nil, err
	}

	var resp *iso7816.Response
	err = s.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.app.IssueCommand(ctx, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	x.log.Debug("raw command", "reader", s.reader, "response", resp.Describe(emv.TagName))
	return resp, nil
}

func (x *Explorer) lookup(name string) (*session, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if s, ok := x.sessions[name]; ok {
		return s, nil
	}

	var found *session
	for reader, s := range x.sessions {
		if !strings.Contains(reader, name) {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousReader
		}
		found = s
	}
	if found == nil {
		if name != "" {
			return nil, fmt.Errorf("%w in %q", ErrNoCard, name)
		}
		return nil, ErrNoCard
	}
	return found, nil
}

func decodeHex(s string) ([]byte, error) {
	raw, err := tlv.ParseHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return raw, nil
}

// readerSink stamps events with the reader name before publishing them.
type readerSink struct {
	bus    *event.Bus
	reader string
}

func (s readerSink) Publish(e event.Event) {
	e.Reader = s.reader
	s.bus.Publish(e)
}
