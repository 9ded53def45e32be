package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"standwatch/internal/logging"
	"standwatch/internal/queue"
	"standwatch/internal/reconcile"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the queues you are currently in",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := ctx.quietClient()
			if err != nil {
				return err
			}
			login, _, err := ctx.resolveLogin(cmd.Context(), client, cfg)
			if err != nil {
				return err
			}
			memberships, err := client.Snapshot(cmd.Context(), login)
			if err != nil {
				return err
			}
			if asJSON {
				type entry struct {
					StandID     int64  `json:"stand_id"`
					Stand       string `json:"stand"`
					PeopleAhead int    `json:"people_ahead"`
					WaitMinutes int    `json:"wait_minutes"`
				}
				entries := make([]entry, 0, len(memberships))
				for _, m := range memberships {
					p := queue.Project(m)
					entries = append(entries, entry{
						StandID:     m.StandID,
						Stand:       m.StandName,
						PeopleAhead: p.DisplayPosition,
						WaitMinutes: p.WaitMinutes,
					})
				}
				return writeJSON(cmd, entries)
			}
			if len(memberships) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "You are not in any queues")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMembershipTable(memberships))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable output")
	return cmd
}

func renderMembershipTable(memberships []queue.Membership) string {
	rows := make([][]string, 0, len(memberships))
	for _, m := range memberships {
		p := queue.Project(m)
		rows = append(rows, []string{
			strconv.FormatInt(m.StandID, 10),
			m.StandName,
			strconv.Itoa(p.DisplayPosition),
			formatWait(p.WaitMinutes),
		})
	}
	return renderTable(
		[]string{"ID", "Stand", "Ahead", "Est. Wait"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	)
}

func newJoinCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "join <stand-id>",
		Short: "Join a stand's queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			standID, err := parseStandID(args[0])
			if err != nil {
				return err
			}
			client, cfg, err := ctx.quietClient()
			if err != nil {
				return err
			}
			login, userID, err := ctx.resolveLogin(cmd.Context(), client, cfg)
			if err != nil {
				return err
			}
			memberships, err := client.Snapshot(cmd.Context(), login)
			if err != nil {
				return err
			}
			for _, m := range memberships {
				if m.StandID == standID {
					return fmt.Errorf("already queued for %s (stand %d)", m.StandName, standID)
				}
			}
			position, err := client.Join(cmd.Context(), userID, standID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined stand %d at position %d\n", standID, position)
			return nil
		},
	}
}

func newLeaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <stand-id>",
		Short: "Leave a stand's queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			standID, err := parseStandID(args[0])
			if err != nil {
				return err
			}
			client, cfg, err := ctx.quietClient()
			if err != nil {
				return err
			}
			login := strings.TrimSpace(cfg.Identity.Login)
			if login == "" {
				return fmt.Errorf("no login configured; set identity.login in the config file")
			}
			reconciler := reconcile.New(client, logging.NewNop())
			if err := reconciler.Leave(cmd.Context(), login, standID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Left stand %d\n", standID)
			return nil
		},
	}
}

func parseStandID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid stand id %q", raw)
	}
	return id, nil
}
