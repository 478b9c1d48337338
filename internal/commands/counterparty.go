package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
)

type counterpartyView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	TimeZone         string    `json:"time_zone"`
	LastReconciledAt time.Time `json:"last_reconciled_at"`
}

func toCounterpartyView(cp model.Counterparty) counterpartyView {
	return counterpartyView{
		ID:               cp.ID(),
		Name:             cp.Name(),
		TimeZone:         cp.TimeZone(),
		LastReconciledAt: cp.LastReconciledAt(),
	}
}

func newCounterpartyCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counterparty",
		Short: "Manage collection agents and their time zones",
	}

	var name, tz string
	add := &cobra.Command{
		Use:   "add ID",
		Short: "Register or update a counterparty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, err := model.NewCounterparty(args[0], name, tz, time.Time{})
			if err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Counterparties.Save(cmd.Context(), cp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toCounterpartyView(cp))
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&tz, "tz", "", "IANA time zone, e.g. Asia/Yangon (required)")
	_ = add.MarkFlagRequired("tz")

	list := &cobra.Command{
		Use:   "list",
		Short: "List counterparties with their reconciliation watermark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			cps, err := app.Counterparties.List(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]counterpartyView, 0, len(cps))
			for _, cp := range cps {
				views = append(views, toCounterpartyView(cp))
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
