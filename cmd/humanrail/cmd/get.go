package cmd

import (
	"github.com/spf13/cobra"
)

// newGetCmd creates the get command.
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <task-id>",
		Short:   "Fetch a task by ID",
		Args:    cobra.ExactArgs(1),
		Example: `  humanrail get tsk_01hq --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			task, err := client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, task)
		},
	}
}
