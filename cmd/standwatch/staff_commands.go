package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"standwatch/internal/logging"
	"standwatch/internal/queueapi"
	"standwatch/internal/staff"
)

func newStaffCommand(ctx *commandContext) *cobra.Command {
	staffCmd := &cobra.Command{
		Use:   "staff",
		Short: "Stand-side queue management",
	}

	staffCmd.AddCommand(newStaffWatchCommand(ctx))
	staffCmd.AddCommand(newStaffFinishCommand(ctx))
	staffCmd.AddCommand(newStaffRemoveCommand(ctx))

	return staffCmd
}

func newStaffWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <stand-id>",
		Short: "Run a live roster console for one stand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			standID, err := parseStandID(args[0])
			if err != nil {
				return err
			}
			return runStaffConsole(cmd, ctx, standID)
		},
	}
}

func runStaffConsole(cmd *cobra.Command, cmdCtx *commandContext, standID int64) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client := queueapi.NewClient(cfg, logger)

	stdout := cmd.OutOrStdout()
	tty := stdout == os.Stdout && isatty.IsTerminal(os.Stdout.Fd())
	view := newStaffView(stdout, tty)

	interval := time.Duration(cfg.Watch.StaffPollInterval) * time.Second
	monitor := staff.New(client, view, standID, interval, logger)

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := monitor.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("staff console started",
		logging.Int64(logging.FieldStandID, standID),
		logging.Duration("interval", interval))

	if tty {
		go staffCommandReader(signalCtx, cmd.InOrStdin(), stdout, monitor, cancel)
	}

	<-signalCtx.Done()
	monitor.Stop()
	return nil
}

func staffCommandReader(ctx context.Context, in io.Reader, out io.Writer, monitor *staff.Monitor, cancel context.CancelFunc) {
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
		case "refresh":
			monitor.RequestRefresh()
		case "finish", "f":
			if err := monitor.Finish(ctx); err != nil {
				fmt.Fprintf(out, "finish: %v\n", err)
			}
		case "remove":
			if len(fields) != 2 {
				fmt.Fprintln(out, `usage: remove <user-id>`)
				continue
			}
			userID, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil || userID <= 0 {
				fmt.Fprintf(out, "invalid user id %q\n", fields[1])
				continue
			}
			if err := monitor.Remove(ctx, userID); err != nil {
				fmt.Fprintf(out, "remove %d: %v\n", userID, err)
			}
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}

func newStaffFinishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "finish <stand-id>",
		Short: "Mark the currently served player as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			standID, err := parseStandID(args[0])
			if err != nil {
				return err
			}
			client, _, err := ctx.quietClient()
			if err != nil {
				return err
			}
			players, err := client.Players(cmd.Context(), standID)
			if err != nil {
				return err
			}
			if len(players) == 0 {
				return fmt.Errorf("queue for stand %d is empty", standID)
			}
			served := players[0]
			if err := client.Leave(cmd.Context(), served.ID, standID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Finished %s (%d remaining)\n", served.Login, len(players)-1)
			return nil
		},
	}
}

func newStaffRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <stand-id> <user-id>",
		Short: "Remove one player from a stand's queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			standID, err := parseStandID(args[0])
			if err != nil {
				return err
			}
			userID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[1])
			}
			client, _, err := ctx.quietClient()
			if err != nil {
				return err
			}
			if err := client.Leave(cmd.Context(), userID, standID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %d from stand %d\n", userID, standID)
			return nil
		},
	}
}
