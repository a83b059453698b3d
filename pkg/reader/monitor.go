// Package reader watches PC/SC readers and reports device and card
// lifecycle events.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/card-explorer/pkg/event"
)

// DefaultPollInterval bounds a single GetStatusChange wait.
const DefaultPollInterval = time.Second

// Context is the part of *scard.Context used by Monitor.
type Context interface {
	ListReaders() ([]string, error)
	GetStatusChange(states []scard.ReaderState, timeout time.Duration) error
}

// canceller is implemented by *scard.Context to interrupt GetStatusChange.
type canceller interface {
	Cancel() error
}

// Options tune a Monitor.
type Options struct {
	// Filter keeps readers whose name contains it. Empty keeps every reader.
	Filter string

	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
}

type readerState struct {
	flags   scard.StateFlag
	present bool
}

// Monitor polls a PC/SC context and publishes device-activated,
// device-deactivated, card-inserted and card-removed events.
type Monitor struct {
	pcsc    Context
	sink    event.Sink
	opts    Options
	log     *slog.Logger
	readers map[string]*readerState
}

// NewMonitor creates a Monitor publishing to sink.
func NewMonitor(pcsc Context, sink event.Sink, opts Options, log *slog.Logger) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if sink == nil {
		sink = event.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		pcsc:    pcsc,
		sink:    sink,
		opts:    opts,
		log:     log.With("component", "reader"),
		readers: make(map[string]*readerState),
	}
}

// Run polls until ctx ends. When it returns, every known reader has been
// reported as deactivated.
func (m *Monitor) Run(ctx context.Context) error {
	if c, ok := m.pcsc.(canceller); ok {
		stop := context.AfterFunc(ctx, func() {
			if err := c.Cancel(); err != nil {
				m.log.Debug("cancel status change", "error", err)
			}
		})
		defer stop()
	}
	defer m.forgetAll()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// Poll refreshes the reader list then waits up to PollInterval for a state change.
func (m *Monitor) Poll(ctx context.Context) error {
	if err := m.refreshReaders(); err != nil {
		return err
	}

	if len(m.readers) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(m.opts.PollInterval):
		}
		return nil
	}

	states := make([]scard.ReaderState, 0, len(m.readers))
	for name, r := range m.readers {
		states = append(states, scard.ReaderState{Reader: name, CurrentState: r.flags})
	}

	err := m.pcsc.GetStatusChange(states, m.opts.PollInterval)
	switch {
	case err == nil:
	case errors.Is(err, scard.ErrTimeout):
		return nil
	case errors.Is(err, scard.ErrCancelled):
		return ctx.Err()
	case errors.Is(err, scard.ErrUnknownReader), errors.Is(err, scard.ErrReaderUnavailable):
		// Unplugged during the wait; the next ListReaders notices it.
		return nil
	default:
		return err
	}

	for _, st := range states {
		m.update(st)
	}
	return nil
}

func (m *Monitor) refreshReaders() error {
	names, err := m.pcsc.ListReaders()
	if err != nil && !errors.Is(err, scard.ErrNoReadersAvailable) {
		return err
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if m.opts.Filter != "" && !strings.Contains(name, m.opts.Filter) {
			continue
		}
		seen[name] = true
		if _, ok := m.readers[name]; ok {
			continue
		}
		m.readers[name] = &readerState{flags: scard.StateUnaware}
		m.log.Info("reader activated", "reader", name)
		m.publish(event.DeviceActivated, name, nil)
	}

	for name := range m.readers {
		if !seen[name] {
			m.forget(name)
		}
	}
	return nil
}

func (m *Monitor) update(st scard.ReaderState) {
	r, ok := m.readers[st.Reader]
	if !ok {
		return
	}
	r.flags = st.EventState &^ scard.StateChanged

	present := st.EventState&scard.StatePresent != 0 && st.EventState&scard.StateMute == 0
	switch {
	case present && !r.present:
		r.present = true
		atr := append([]byte(nil), st.Atr...)
		m.log.Info("card inserted", "reader", st.Reader, "atr", fmt.Sprintf("%X", atr))
		m.publish(event.CardInserted, st.Reader, atr)
	case !present && r.present:
		r.present = false
		m.log.Info("card removed", "reader", st.Reader)
		m.publish(event.CardRemoved, st.Reader, nil)
	}
}

func (m *Monitor) forget(name string) {
	r := m.readers[name]
	delete(m.readers, name)
	if r.present {
		m.publish(event.CardRemoved, name, nil)
	}
	m.log.Info("reader deactivated", "reader", name)
	m.publish(event.DeviceDeactivated, name, nil)
}

func (m *Monitor) forgetAll() {
	for name := range m.readers {
		m.forget(name)
	}
}

func (m *Monitor) publish(t event.Type, name string, atr []byte) {
	e := event.New(t)
	e.Reader = name
	e.ATR = atr
	m.sink.Publish(e)
}
