package commands

import (
	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

func newReconcileCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match collected repayments against bank transfers",
	}

	var counterparty string
	auto := &cobra.Command{
		Use:   "auto",
		Short: "Run an automatic pass for every counterparty, or just one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if counterparty == "" {
				resp, err := app.UseCases.AutoReconcile.Execute(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}
			res, err := app.UseCases.AutoReconcile.ReconcileCounterparty(cmd.Context(), counterparty)
			if err != nil {
				return err
			}
			out := map[string]any{
				"counterparty_id": counterparty,
				"escalated":       res.Escalated,
			}
			if res.Reconciliation != nil {
				out["reconciliation_id"] = res.Reconciliation.ID()
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	auto.Flags().StringVar(&counterparty, "counterparty", "", "reconcile only this counterparty")

	var repayments, transfers []string
	var by string
	manual := &cobra.Command{
		Use:   "manual",
		Short: "Reconcile a hand-picked set of repayments and transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.ReconcileManual.Execute(cmd.Context(), dto.ReconcileManualRequest{
				RepaymentIDs: repayments,
				TransferIDs:  transfers,
				ReconciledBy: by,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	manual.Flags().StringSliceVar(&repayments, "repayment", nil, "repayment ID, repeatable")
	manual.Flags().StringSliceVar(&transfers, "transfer", nil, "transfer ID, repeatable")
	manual.Flags().StringVar(&by, "by", "", "operator reconciling the records (required)")
	_ = manual.MarkFlagRequired("by")

	cmd.AddCommand(auto, manual)
	return cmd
}
