package cmd

import (
	"github.com/spf13/cobra"
)

// newCancelCmd creates the cancel command.
func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a task that has not been assigned yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			res, err := client.CancelTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
}
