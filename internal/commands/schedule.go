package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

func newScheduleCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Recalculate or shift repayment schedules",
	}

	recalc := &cobra.Command{
		Use:   "recalc [LOAN_ID]",
		Short: "Recalculate one loan, or every open loan when no ID is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 1 {
				resp, err := app.UseCases.RecalculateSchedule.Execute(cmd.Context(), dto.RecalculateScheduleRequest{LoanID: args[0]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}
			resp, err := app.UseCases.RecalculateAll.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	var from, to string
	var days int
	shift := &cobra.Command{
		Use:   "shift",
		Short: "Move schedule lines falling in a date window by a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := shiftRequest(from, to, days)
			if err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.ShiftSchedule.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	shift.Flags().StringVar(&from, "from", "", "first date of the window (YYYY-MM-DD, required)")
	shift.Flags().StringVar(&to, "to", "", "last date of the window, default --from")
	shift.Flags().IntVar(&days, "days", 0, "days to move the lines by, negative moves them earlier")
	_ = shift.MarkFlagRequired("from")

	cmd.AddCommand(recalc, shift)
	return cmd
}

func shiftRequest(from, to string, days int) (dto.ShiftScheduleRequest, error) {
	f, err := parseDate("from", from)
	if err != nil {
		return dto.ShiftScheduleRequest{}, err
	}
	t, err := parseDate("to", to)
	if err != nil {
		return dto.ShiftScheduleRequest{}, err
	}
	if days == 0 {
		return dto.ShiftScheduleRequest{}, errors.New("--days must not be zero")
	}
	return dto.ShiftScheduleRequest{From: f, To: t, Days: days}, nil
}
