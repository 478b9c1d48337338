package commands

import (
	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

func newTransferCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Load bank transfer confirmations",
	}

	var file string
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Store transfer confirmations from a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var reqs []dto.IngestTransferRequest
			if err := readJSON(cmd, file, &reqs); err != nil {
				return err
			}
			app, _, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			out := make([]dto.IngestTransferResponse, 0, len(reqs))
			for _, req := range reqs {
				resp, err := app.UseCases.IngestTransfer.Execute(cmd.Context(), req)
				if err != nil {
					return err
				}
				out = append(out, resp)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	ingest.Flags().StringVarP(&file, "file", "f", "-", "transfers file, - for stdin")

	cmd.AddCommand(ingest)
	return cmd
}
