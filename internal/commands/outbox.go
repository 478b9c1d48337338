package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/bootstrap"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/kafka"
	"github.com/Singh-Sg/loan-app/pkg/events"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
)

func newOutboxCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the event outbox",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Publish every pending outbox event to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cfg, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			logger := slog.Default()

			producer, err := pkgkafka.NewProducer(bootstrap.KafkaConfig(cfg))
			if err != nil {
				return err
			}
			defer producer.Close()
			relay := events.NewRelay(app.Outbox,
				kafka.NewOutboxPublisher(producer, cfg.Kafka.EventsTopic, logger),
				cfg.Jobs.OutboxBatchSize, logger)

			total := 0
			for {
				n, err := relay.Flush(cmd.Context())
				if err != nil {
					return err
				}
				total += n
				if n < cfg.Jobs.OutboxBatchSize || n == 0 {
					break
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %d events\n", total)
			return err
		},
	})
	return cmd
}
