package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
)

// IngestTransferUseCase stores a transfer confirmation from the payments
// system. Redelivered confirmations are accepted and ignored.
type IngestTransferUseCase struct {
	transfers port.TransferRepository
}

// NewIngestTransferUseCase wires dependencies.
func NewIngestTransferUseCase(transfers port.TransferRepository) *IngestTransferUseCase {
	return &IngestTransferUseCase{transfers: transfers}
}

// Execute validates and inserts the transfer.
func (uc *IngestTransferUseCase) Execute(ctx context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
	t, err := model.NewTransfer(req.ID, req.CounterpartyID, req.Amount, req.Timestamp, req.Successful, req.ExternalRef)
	if err != nil {
		return dto.IngestTransferResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	inserted, err := uc.transfers.Save(ctx, t)
	if err != nil {
		return dto.IngestTransferResponse{}, fmt.Errorf("save transfer: %w", err)
	}
	return dto.IngestTransferResponse{ID: t.ID(), Inserted: inserted}, nil
}
