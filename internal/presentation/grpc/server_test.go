package grpc_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/clock"
	grpcserver "github.com/Singh-Sg/loan-app/internal/presentation/grpc"
)

// --- Mock implementations ---

type memoryLedgerStore struct {
	mu      sync.Mutex
	ledgers map[string]*model.Ledger
}

func (m *memoryLedgerStore) Create(_ context.Context, ledger *model.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[ledger.Loan().ID()] = model.NewLedger(ledger.Loan(), ledger.Lines(), ledger.Repayments())
	return nil
}

func (m *memoryLedgerStore) Update(_ context.Context, loanID string, fn func(ledger *model.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[loanID]
	if !ok {
		return model.ErrNotFound
	}
	work := model.NewLedger(l.Loan(), l.Lines(), l.Repayments())
	if err := fn(work); err != nil {
		return err
	}
	m.ledgers[loanID] = model.NewLedger(work.Loan(), work.Lines(), work.Repayments())
	return nil
}

func (m *memoryLedgerStore) Load(_ context.Context, loanID string) (*model.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[loanID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return model.NewLedger(l.Loan(), l.Lines(), l.Repayments()), nil
}

func (m *memoryLedgerStore) ListOpenLoanIDs(context.Context) ([]string, error) { return nil, nil }

func (m *memoryLedgerStore) ListLoanIDsWithLinesBetween(context.Context, time.Time, time.Time) ([]string, error) {
	return nil, nil
}

// --- Helpers ---

func startServer(t *testing.T) *grpclib.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memoryLedgerStore{ledgers: make(map[string]*model.Ledger)}
	clk := clock.Fixed(time.UTC, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))

	handler := grpcserver.NewServicingHandler(grpcserver.UseCases{
		CreateLoan:      usecase.NewCreateLoanUseCase(store, clk),
		GetLoan:         usecase.NewGetLoanUseCase(store, clk),
		ChangeLoanState: usecase.NewChangeLoanStateUseCase(store, clk),
	})
	srv, err := grpcserver.NewServer(handler, grpcserver.ServerOptions{ServiceName: "servicing"}, logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(ctx context.Context, conn *grpclib.ClientConn, method string, req, resp any) error {
	return conn.Invoke(ctx, "/"+grpcserver.ServiceName+"/"+method, req, resp, grpclib.CallContentSubtype("json"))
}

func createLoanRequest() *dto.CreateLoanRequest {
	return &dto.CreateLoanRequest{
		BorrowerID:        "borrower-1",
		CounterpartyID:    "agent-1",
		Currency:          "MMK",
		Amount:            decimal.NewFromInt(3000),
		InterestModel:     "ACTUAL_360",
		RatePeriod:        "YEARLY",
		NormalInstallment: decimal.NewFromInt(1000),
	}
}

// --- Tests ---

func TestServer_LoanRoundTrip(t *testing.T) {
	conn := startServer(t)
	ctx := context.Background()

	var created dto.LoanResponse
	require.NoError(t, invoke(ctx, conn, "CreateLoan", createLoanRequest(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "DRAFT", created.State)

	var summary dto.LoanSummaryResponse
	require.NoError(t, invoke(ctx, conn, "GetLoan", &dto.GetLoanRequest{LoanID: created.ID}, &summary))
	assert.Equal(t, created.ID, summary.Loan.ID)
	assert.True(t, decimal.NewFromInt(3000).Equal(summary.Loan.Amount))

	var changed dto.LoanResponse
	err := invoke(ctx, conn, "ChangeLoanState", &dto.ChangeLoanStateRequest{LoanID: created.ID, State: "SUBMITTED"}, &changed)
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED", changed.State)
}

func TestServer_ErrorCodes(t *testing.T) {
	conn := startServer(t)
	ctx := context.Background()

	t.Run("unknown loan", func(t *testing.T) {
		var resp dto.LoanSummaryResponse
		err := invoke(ctx, conn, "GetLoan", &dto.GetLoanRequest{LoanID: "missing"}, &resp)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("bad currency", func(t *testing.T) {
		req := createLoanRequest()
		req.Currency = "kyat"
		var resp dto.LoanResponse
		err := invoke(ctx, conn, "CreateLoan", req, &resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("illegal transition", func(t *testing.T) {
		var created dto.LoanResponse
		require.NoError(t, invoke(ctx, conn, "CreateLoan", createLoanRequest(), &created))

		var resp dto.LoanResponse
		err := invoke(ctx, conn, "ChangeLoanState", &dto.ChangeLoanStateRequest{LoanID: created.ID, State: "APPROVED"}, &resp)
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})
}

func TestServer_Health(t *testing.T) {
	conn := startServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
