// Package cmd provides the CLI commands for the humanrail tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	humanrail "github.com/prime001/humanrail-sdk"
)

var (
	apiKey     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	asJSON     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "humanrail",
	Short: "Manage human review tasks from the command line",
	Long: `humanrail drives the remote human-review API: create review tasks,
inspect and cancel them, block until a task reaches a terminal state,
and sign or verify webhook payloads for local callback testing.

The API key is read from --api-key or the HUMANRAIL_API_KEY
environment variable.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// NewRootCmd creates a fresh command tree. Tests use this to avoid shared
// flag state between runs.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          rootCmd.Use,
		Short:        rootCmd.Short,
		Long:         rootCmd.Long,
		SilenceUsage: true,
	}
	addCommands(cmd)
	return cmd
}

func init() {
	addCommands(rootCmd)
}

func addCommands(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("HUMANRAIL_API_KEY"), "API key (env: HUMANRAIL_API_KEY)")
	cmd.PersistentFlags().StringVar(&baseURL, "base-url", os.Getenv("HUMANRAIL_BASE_URL"), "API base URL (env: HUMANRAIL_BASE_URL)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 3, "retries for transient failures")
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a summary")

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newWaitCmd())
	cmd.AddCommand(newSignCmd())
	cmd.AddCommand(newVerifyCmd())
}

// newAPIClient builds an SDK client from the persistent flags.
func newAPIClient() (*humanrail.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set --api-key or HUMANRAIL_API_KEY")
	}
	opts := []humanrail.ClientOption{
		humanrail.WithTimeout(timeout),
		humanrail.WithMaxRetries(maxRetries),
	}
	if baseURL != "" {
		opts = append(opts, humanrail.WithBaseURL(baseURL))
	}
	return humanrail.NewClient(apiKey, opts...), nil
}

// printResult writes v as indented JSON or a one-line task summary.
func printResult(cmd *cobra.Command, v any) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch t := v.(type) {
	case *humanrail.Task:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Status, t.TaskType)
	case *humanrail.TaskCancelResult:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Status, t.CancelledAt)
	case *humanrail.TaskListResponse:
		for _, task := range t.Data {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", task.ID, task.Status, task.TaskType)
		}
		if t.HasMore {
			fmt.Fprintf(cmd.OutOrStdout(), "# more available, --after %s\n", t.NextCursor)
		}
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return nil
}

// readJSONArg parses a JSON object given inline or as @path.
func readJSONArg(arg string) (map[string]any, error) {
	data := []byte(arg)
	if len(arg) > 0 && arg[0] == '@' {
		var err error
		data, err = os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON %q: %w", arg, err)
	}
	return m, nil
}
