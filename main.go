package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gregLibert/card-explorer/pkg/config"
	"github.com/gregLibert/card-explorer/pkg/emv"
	"github.com/gregLibert/card-explorer/pkg/event"
	"github.com/gregLibert/card-explorer/pkg/explorer"
	"github.com/gregLibert/card-explorer/pkg/reader"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		readerName = flag.String("reader", "", "only watch readers whose name contains this")
		repl       = flag.Bool("repl", false, "read hex commands from stdin and send them to the card (@? lists readers)")
		eventsPath = flag.String("events", "", "write the CBOR event stream to this file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *readerName != "" {
		cfg.Reader.Filter = *readerName
	}
	if *eventsPath != "" {
		cfg.EventsPath = *eventsPath
	}
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *repl, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("card explorer stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// =========================================================================
// Wiring
// =========================================================================

func run(ctx context.Context, cfg config.Config, repl bool, log *slog.Logger) error {
	pcsc, err := reader.Establish()
	if err != nil {
		return err
	}
	defer func() {
		if err := pcsc.Release(); err != nil {
			log.Warn("failed to release PC/SC context", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := event.NewBus(log)
	var wg sync.WaitGroup

	// --- Event stream for an out-of-process viewer ---
	if cfg.EventsPath != "" {
		f, err := os.Create(cfg.EventsPath)
		if err != nil {
			return fmt.Errorf("events output: %w", err)
		}
		defer f.Close()

		ch := make(chan event.Event, cfg.EventsBuffer)
		if err := bus.Subscribe(ch); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := event.NewStreamWriter(f).Drain(ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event stream stopped", "error", err)
			}
		}()
	}

	// --- Console report ---
	console := make(chan event.Event, cfg.EventsBuffer)
	if err := bus.Subscribe(console,
		event.DeviceActivated, event.DeviceDeactivated, event.CardInserted, event.CardRemoved,
		event.PSESelected, event.ApplicationTemplateFound, event.ApplicationSelected,
		event.DiscoveryComplete, event.DiscoveryFailed,
	); err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		report(ctx, os.Stdout, console)
	}()

	// --- Card sessions ---
	x, err := explorer.New(pcsc, bus, cfg.Discovery, log)
	if err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = x.Run(ctx)
	}()

	if repl {
		// Not waited for: the scanner stays blocked on stdin after shutdown.
		go func() {
			defer cancel()
			x.ReadCommands(ctx, os.Stdin, os.Stdout)
		}()
	}

	monitor := reader.NewMonitor(pcsc, bus, cfg.Reader, log)
	err = monitor.Run(ctx)

	cancel()
	wg.Wait()
	return err
}

// report prints the notifications a user follows on the terminal.
func report(ctx context.Context, w io.Writer, ch <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			fmt.Fprintf(w, ">> %s\n", e)
			if e.Type == event.ApplicationTemplateFound && e.Template != nil {
				fmt.Fprintln(w, emv.Describe(e.Template))
			}
		}
	}
}
