package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"standwatch/internal/alert"
	"standwatch/internal/logging"
	"standwatch/internal/notifications"
	"standwatch/internal/queueapi"
	"standwatch/internal/reconcile"
	"standwatch/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run a live watch session over your queues",
		Long: "Polls your queue memberships on a fixed cadence, keeps the rendered\n" +
			"view reconciled with the backend, and sends a turn alert once per\n" +
			"threshold crossing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchSession(cmd, ctx)
		},
	}
}

func runWatchSession(cmd *cobra.Command, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	login := strings.TrimSpace(cfg.Identity.Login)
	if login == "" {
		return fmt.Errorf("no login configured; set identity.login in the config file")
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	sessionID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	// One live session per state directory. A second session would race the
	// flag store and double-fire alerts.
	lock := flock.New(cfg.SessionLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another watch session is already running (lock %s)", cfg.SessionLockPath())
	}
	defer lock.Unlock()

	store, err := alert.OpenFlagStore(cfg.FlagDBPath(), logger)
	if err != nil {
		return fmt.Errorf("open flag store: %w", err)
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	gate := alert.NewGate(cfg, store, notifier, logger)
	client := queueapi.NewClient(cfg, logger)

	stdout := cmd.OutOrStdout()
	tty := stdout == os.Stdout && isatty.IsTerminal(os.Stdout.Fd())
	renderer := newTerminalRenderer(stdout, tty)

	var watcher *watch.Watcher
	reconciler := reconcile.New(client, logger,
		reconcile.WithForgetHook(gate.Forget),
		reconcile.WithRefreshHook(func() {
			if watcher != nil {
				watcher.RequestRefresh()
			}
		}),
	)
	interval := time.Duration(cfg.Watch.PollInterval) * time.Second
	watcher = watch.New(client, reconciler, gate, renderer, login, interval, logger)

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("watch session started",
		logging.String(logging.FieldLogin, login),
		logging.Duration("interval", interval))

	if tty {
		go watchCommandReader(signalCtx, cmd.InOrStdin(), stdout, login, reconciler, watcher, cancel)
	}

	<-signalCtx.Done()
	watcher.Stop()
	logger.Info("watch session ended")
	return nil
}

// watchCommandReader handles the interactive commands typed into a live
// session. Runs only when stdin is a terminal.
func watchCommandReader(ctx context.Context, in io.Reader, out io.Writer, login string, reconciler *reconcile.Reconciler, watcher *watch.Watcher, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "q", "exit":
			cancel()
			return
		case "refresh", "r":
			watcher.RequestRefresh()
		case "leave", "l":
			if len(fields) != 2 {
				fmt.Fprintln(out, `usage: leave <stand-id>`)
				continue
			}
			standID, err := parseStandID(fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := reconciler.Leave(ctx, login, standID); err != nil {
				fmt.Fprintf(out, "leave stand %d: %v\n", standID, err)
			}
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}
