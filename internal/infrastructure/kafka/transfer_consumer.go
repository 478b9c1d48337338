package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
)

// TransferIngester stores one transfer confirmation.
type TransferIngester interface {
	Execute(ctx context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error)
}

// TransferConfirmationHandler returns a consumer handler that ingests
// transfer confirmations. Malformed or invalid messages are logged and
// dropped; any other failure is returned so the offset is not committed.
func TransferConfirmationHandler(ingest TransferIngester, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var req dto.IngestTransferRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			logger.WarnContext(ctx, "dropping malformed transfer confirmation",
				"key", string(msg.Key),
				"error", err,
			)
			return nil
		}

		resp, err := ingest.Execute(ctx, req)
		if err != nil {
			if errors.Is(err, usecase.ErrInvalidRequest) {
				logger.WarnContext(ctx, "dropping invalid transfer confirmation",
					"transfer_id", req.ID,
					"error", err,
				)
				return nil
			}
			return err
		}

		if !resp.Inserted {
			logger.DebugContext(ctx, "transfer confirmation already stored", "transfer_id", resp.ID)
			return nil
		}
		logger.InfoContext(ctx, "transfer confirmation stored",
			"transfer_id", resp.ID,
			"counterparty_id", req.CounterpartyID,
			"amount", req.Amount.String(),
		)
		return nil
	}
}
