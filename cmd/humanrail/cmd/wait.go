package cmd

import (
	"time"

	"github.com/spf13/cobra"

	humanrail "github.com/prime001/humanrail-sdk"
)

// newWaitCmd creates the wait command.
func newWaitCmd() *cobra.Command {
	var (
		interval    time.Duration
		waitTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:     "wait <task-id>",
		Short:   "Block until a task reaches a terminal state",
		Args:    cobra.ExactArgs(1),
		Example: `  humanrail wait tsk_01hq --interval 5s --wait-timeout 30m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			task, err := client.WaitForCompletion(cmd.Context(), args[0], &humanrail.WaitOptions{
				PollInterval: interval,
				Timeout:      waitTimeout,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, task)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "pause between status reads")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 10*time.Minute, "bound for the whole wait")

	return cmd
}
