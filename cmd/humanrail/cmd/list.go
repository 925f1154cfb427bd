package cmd

import (
	"github.com/spf13/cobra"

	humanrail "github.com/prime001/humanrail-sdk"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var (
		status        string
		taskType      string
		limit         int
		after         string
		createdAfter  string
		createdBefore string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Example: `  humanrail list --status posted
  humanrail list --type refund_eligibility --limit 50 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			res, err := client.ListTasks(cmd.Context(), humanrail.TaskListParams{
				Status:        humanrail.TaskStatus(status),
				TaskType:      taskType,
				Limit:         limit,
				After:         after,
				CreatedAfter:  createdAfter,
				CreatedBefore: createdBefore,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&taskType, "type", "", "filter by task type")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default: 20)")
	cmd.Flags().StringVar(&after, "after", "", "pagination cursor")
	cmd.Flags().StringVar(&createdAfter, "created-after", "", "ISO 8601 lower bound")
	cmd.Flags().StringVar(&createdBefore, "created-before", "", "ISO 8601 upper bound")

	return cmd
}
