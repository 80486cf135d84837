// agent is a terminal buyer or eater page. It opens a session by code,
// prints the stall list as it changes and reads commands from stdin.
//
// By default it talks to a running server over HTTP and websocket. With
// --fixture it serves itself from an in-memory store seeded from a YAML
// fixture, which is handy for trying the flow without a server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stallpick-be/internal/bootstrap"
	"stallpick-be/internal/config"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/reconciler"
	"stallpick-be/internal/remote"
	"stallpick-be/internal/repository/memory"
	"stallpick-be/internal/seed"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL string
		role      string
		code      string
		fixture   string
		debounce  time.Duration
	)

	flagSet := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	flagSet.StringVar(&serverURL, "server", "http://localhost:3000", "stallpick server base URL")
	flagSet.StringVar(&role, "role", string(reconciler.RoleBuyer), "page to act as: buyer or eater")
	flagSet.StringVar(&code, "code", "", "session code")
	flagSet.StringVar(&fixture, "fixture", "", "run in-process from this seed fixture instead of a server")
	flagSet.DurationVar(&debounce, "debounce", reconciler.DefaultDebounce, "availability write debounce")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if code == "" && flagSet.NArg() > 0 {
		code = flagSet.Arg(0)
	}
	if code == "" {
		return fmt.Errorf("a session code is required (--code)")
	}
	r := reconciler.Role(role)
	if r != reconciler.RoleBuyer && r != reconciler.RoleEater {
		return fmt.Errorf("unknown role %q", role)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store  reconciler.Store
		events reconciler.EventLog
		feed   reconciler.Feed
	)
	if fixture != "" {
		local, closeLocal, err := openLocal(ctx, fixture)
		if err != nil {
			return err
		}
		defer closeLocal()
		store, events, feed = local, local, local
	} else {
		httpStore := remote.NewHTTPStore(serverURL)
		store, events, feed = httpStore, httpStore, remote.NewWSFeed(httpStore)
	}

	ui := newPage(r, os.Stdout)
	client := reconciler.NewClient(store, events, feed, reconciler.Options{
		Role:     r,
		Debounce: debounce,
	}, ui.hooks())
	ui.client = client

	if err := client.Open(ctx, code); err != nil {
		return err
	}
	defer client.Close()
	if client.Degraded() {
		color.Yellow("Realtime updates unavailable, use 'resync' to refresh.")
	}
	ui.render(client.View())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if err != nil {
				color.Red("%v", err)
				continue
			}
			if cmd.name == cmdQuit {
				return nil
			}
			if err := ui.execute(ctx, cmd); err != nil {
				color.Red("%v", err)
			}
		}
	}
}

func openLocal(ctx context.Context, path string) (*remote.Local, func(), error) {
	f, err := seed.Load(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := config.Load()
	container := bootstrap.NewInMemoryContainer(memory.NewStore(), cfg, logger.NewNopLogger())
	if _, err := seed.Apply(ctx, container.UowFactory, f); err != nil {
		container.Close()
		return nil, nil, err
	}
	if err := container.Start(ctx); err != nil {
		container.Close()
		return nil, nil, err
	}

	local := remote.NewLocal(container.Resolver, container.StateStore, container.EventLog, container.Hub)
	return local, container.Close, nil
}
