package commands

import (
	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

func newLoanCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Create and inspect loans",
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a loan from a JSON request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req dto.CreateLoanRequest
			if err := readJSON(cmd, file, &req); err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.CreateLoan.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "-", "request file, - for stdin")

	var linesFile string
	lines := &cobra.Command{
		Use:   "add-lines LOAN_ID",
		Short: "Append schedule lines from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreateScheduleLinesRequest{LoanID: args[0]}
			if err := readJSON(cmd, linesFile, &req.Lines); err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.CreateScheduleLines.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	lines.Flags().StringVarP(&linesFile, "file", "f", "-", "lines file, - for stdin")

	get := &cobra.Command{
		Use:   "get LOAN_ID",
		Short: "Show a loan with its balances as of today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.GetLoan.Execute(cmd.Context(), dto.GetLoanRequest{LoanID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	state := &cobra.Command{
		Use:   "state LOAN_ID STATE",
		Short: "Move a loan along its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.ChangeLoanState.Execute(cmd.Context(), dto.ChangeLoanStateRequest{LoanID: args[0], State: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	var at string
	delay := &cobra.Command{
		Use:   "delay LOAN_ID",
		Short: "Show days past due and the amount due",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate("at", at)
			if err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.UseCases.GetDelay.Execute(cmd.Context(), dto.GetDelayRequest{LoanID: args[0], At: date})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	delay.Flags().StringVar(&at, "at", "", "evaluate as of this date (YYYY-MM-DD), default today")

	cmd.AddCommand(create, lines, get, state, delay)
	return cmd
}
