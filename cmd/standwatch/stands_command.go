package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"standwatch/internal/queue"
)

func newStandsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stands",
		Short: "List exhibition stands and their queue fill",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := ctx.quietClient()
			if err != nil {
				return err
			}
			stands, err := client.Stands(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, stands)
			}
			if len(stands) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stands available")
				return nil
			}
			rows := make([][]string, 0, len(stands))
			for _, s := range stands {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Name,
					fmt.Sprintf("%d/%d", s.CurrentPeople, s.MaxSlots),
					fmt.Sprintf("%ds", s.DurationSeconds),
					formatWait(queue.WaitMinutes(s.CurrentPeople, s.DurationSeconds)),
				})
			}
			table := renderTable(
				[]string{"ID", "Stand", "Queue", "Turn", "Est. Wait"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable output")
	return cmd
}

func formatWait(minutes int) string {
	if minutes <= 0 {
		return "now"
	}
	return fmt.Sprintf("~%d min", minutes)
}
