package commands

import (
	"bytes"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/infrastructure/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"migrate", "counterparty", "loan", "repayment", "schedule", "reconcile", "transfer", "outbox",
	}, names)
}

func TestRootCommand_RejectsBadInputBeforeConnecting(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"shift needs from", []string{"schedule", "shift", "--days", "1"}, `required flag(s) "from" not set`},
		{"shift bad date", []string{"schedule", "shift", "--from", "10/03/2024", "--days", "1"}, "--from"},
		{"shift zero days", []string{"schedule", "shift", "--from", "2024-03-10"}, "--days"},
		{"repayment bad amount", []string{"repayment", "record", "loan-1", "--amount", "lots"}, "--amount"},
		{"repayment bad date", []string{"repayment", "record", "loan-1", "--amount", "100", "--date", "yesterday"}, "--date"},
		{"delay bad date", []string{"loan", "delay", "loan-1", "--at", "soon"}, "--at"},
		{"manual needs operator", []string{"reconcile", "manual", "--repayment", "r-1"}, `required flag(s) "by" not set`},
		{"state needs two args", []string{"loan", "state", "loan-1"}, "accepts 2 arg(s)"},
		{"counterparty needs zone", []string{"counterparty", "add", "agent-1"}, `required flag(s) "tz" not set`},
		{"counterparty bad zone", []string{"counterparty", "add", "agent-1", "--tz", "Mars/Olympus"}, "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShiftRequest(t *testing.T) {
	req, err := shiftRequest("2024-03-10", "", 2)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).Equal(req.From))
	assert.True(t, req.To.IsZero())
	assert.Equal(t, 2, req.Days)
}

func TestGlobalFlags_Clock(t *testing.T) {
	cfg := config.Default()

	g := &globalFlags{now: "2024-03-10T20:00:00Z"}
	clk, err := g.clock(cfg)
	require.NoError(t, err)
	// 20:00 UTC is already the next day in Yangon (UTC+06:30).
	assert.True(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC).Equal(clk.Today()))

	g.now = "tomorrow"
	_, err = g.clock(cfg)
	assert.ErrorContains(t, err, "--now")
}
