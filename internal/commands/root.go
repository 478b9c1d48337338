// Package commands implements servicingctl, the operator CLI for the
// servicing ledger.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/bootstrap"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/clock"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/config"
	"github.com/Singh-Sg/loan-app/pkg/observability"
)

type globalFlags struct {
	configPath string
	now        string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "servicingctl",
		Short: "Operate the microloan servicing ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv(config.ConfigFileEnv), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&g.now, "now", "", "run as of this RFC 3339 instant instead of the wall clock")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(
		newMigrateCommand(g),
		newCounterpartyCommand(g),
		newLoanCommand(g),
		newRepaymentCommand(g),
		newScheduleCommand(g),
		newReconcileCommand(g),
		newTransferCommand(g),
		newOutboxCommand(g),
	)
	return rootCmd
}

func (g *globalFlags) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := observability.InitLogger(observability.LogConfig{
		Output:  cmd.ErrOrStderr(),
		Level:   g.logLevel,
		Format:  "text",
		Service: "servicingctl",
	})
	return cfg, logger, nil
}

func (g *globalFlags) clock(cfg config.Config) (port.Clock, error) {
	if g.now == "" {
		return clock.New(cfg.Location()), nil
	}
	t, err := time.Parse(time.RFC3339, g.now)
	if err != nil {
		return nil, fmt.Errorf("--now: %w", err)
	}
	return clock.Fixed(cfg.Location(), t), nil
}

// open wires the service against the configured database. The caller must
// Close the returned App.
func (g *globalFlags) open(ctx context.Context, cmd *cobra.Command) (*bootstrap.App, config.Config, error) {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	clk, err := g.clock(cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	app, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Clock: clk}, logger)
	if err != nil {
		return nil, config.Config{}, err
	}
	return app, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDate reads a YYYY-MM-DD calendar date. An empty value is the zero time.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD: %w", flag, err)
	}
	return valueobject.TruncateDate(t), nil
}

// readJSON decodes a request from path, or from stdin when path is "-".
func readJSON(cmd *cobra.Command, path string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
