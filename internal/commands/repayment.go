package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

func newRepaymentCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repayment",
		Short: "Record collected repayments",
	}

	var amount, date, by string
	record := &cobra.Command{
		Use:   "record LOAN_ID",
		Short: "Record a repayment and allocate it across components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.RecordRepayment.Execute(cmd.Context(), dto.RecordRepaymentRequest{
				LoanID:     args[0],
				Date:       d,
				Amount:     amt,
				RecordedBy: by,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	record.Flags().StringVar(&amount, "amount", "", "amount collected (required)")
	record.Flags().StringVar(&date, "date", "", "repayment date (YYYY-MM-DD), default today")
	record.Flags().StringVar(&by, "by", "servicingctl", "who recorded the repayment")
	_ = record.MarkFlagRequired("amount")

	cmd.AddCommand(record)
	return cmd
}
