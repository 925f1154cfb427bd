package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	humanrail "github.com/prime001/humanrail-sdk"
)

// newCreateCmd creates the create command.
func newCreateCmd() *cobra.Command {
	var (
		taskType       string
		payloadArg     string
		schemaArg      string
		idempotencyKey string
		riskTier       string
		slaSeconds     int
		currency       string
		maxAmount      float64
		callbackURL    string
		wait           bool
		waitTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a review task",
		Example: `  humanrail create --type refund_eligibility \
    --payload '{"orderId":"ord_1"}' \
    --schema '{"type":"object"}' \
    --max-amount 2.50
  humanrail create --type kyc_check --payload @payload.json --schema @schema.json --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			payload, err := readJSONArg(payloadArg)
			if err != nil {
				return err
			}
			schema, err := readJSONArg(schemaArg)
			if err != nil {
				return err
			}
			if idempotencyKey == "" {
				idempotencyKey = "cli-" + uuid.NewString()
			}

			req := humanrail.TaskCreateRequest{
				IdempotencyKey: idempotencyKey,
				TaskType:       taskType,
				RiskTier:       humanrail.RiskTier(riskTier),
				SLASeconds:     slaSeconds,
				Payload:        payload,
				OutputSchema:   schema,
				Payout: humanrail.Payout{
					Currency:  humanrail.PayoutCurrency(currency),
					MaxAmount: maxAmount,
				},
				CallbackURL: callbackURL,
			}

			task, err := client.CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			if wait {
				task, err = client.WaitForCompletion(cmd.Context(), task.ID, &humanrail.WaitOptions{Timeout: waitTimeout})
				if err != nil {
					return err
				}
			}
			return printResult(cmd, task)
		},
	}

	cmd.Flags().StringVar(&taskType, "type", "", "task type, e.g. refund_eligibility")
	cmd.Flags().StringVar(&payloadArg, "payload", "", "reviewer payload as JSON or @file")
	cmd.Flags().StringVar(&schemaArg, "schema", "", "output JSON Schema as JSON or @file")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "idempotency key (default: generated)")
	cmd.Flags().StringVar(&riskTier, "risk", "", "risk tier (low|medium|high|critical)")
	cmd.Flags().IntVar(&slaSeconds, "sla", 0, "SLA in seconds")
	cmd.Flags().StringVar(&currency, "currency", "USD", "payout currency (USD|SATS|BTC)")
	cmd.Flags().Float64Var(&maxAmount, "max-amount", 0, "maximum payout amount")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "webhook callback URL")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the task is terminal")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 10*time.Minute, "bound for --wait")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("payload")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("max-amount")

	return cmd
}
