package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/auth"
	"github.com/retrobus-essonne/finance/internal/infrastructure/config"
	"github.com/retrobus-essonne/finance/internal/infrastructure/postgres"
)

// Seams for tests.
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
	loadConfig  = config.Load
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "finance-cli",
		Short:         "RétroBus Essonne finance CLI",
		Long:          `A command line interface for the RétroBus Essonne finance service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the finance API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FINANCE_TOKEN"), "Bearer token when authentication is enabled")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		migrateCmd(),
		balanceCmd(opts),
		breakdownCmd(opts),
		consistencyCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(fn func(string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.UsesMemoryStore() {
				return errors.New("DATABASE_URL is required for migrations")
			}
			if err := fn(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply every pending migration", Args: cobra.NoArgs, RunE: run(migrateUp)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", Args: cobra.NoArgs, RunE: run(migrateDown)},
	)

	return cmd
}

func balanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the association balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var b struct {
				Amount string `json:"amount"`
				Locked bool   `json:"locked"`
			}
			if err := getJSON(cmd.Context(), opts, "/finance/balance", &b); err != nil {
				return err
			}

			locked := ""
			if b.Locked {
				locked = " (locked)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s EUR%s\n", b.Amount, locked)
			return nil
		},
	}
}

func breakdownCmd(opts *options) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show credits and debits per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := domain.ParsePeriod(period); err != nil {
				return err
			}

			var report struct {
				Period     string `json:"period"`
				Categories map[string]struct {
					Credits string `json:"credits"`
					Debits  string `json:"debits"`
					Bilan   string `json:"bilan"`
				} `json:"categories"`
			}
			path := "/finance/category-breakdown?period=" + url.QueryEscape(period)
			if err := getJSON(cmd.Context(), opts, path, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Period: %s\n", report.Period)
			for _, name := range slices.Sorted(maps.Keys(report.Categories)) {
				c := report.Categories[name]
				fmt.Fprintf(out, "%-20s +%s -%s = %s\n", name, c.Credits, c.Debits, c.Bilan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "all", "all, YYYY or YYYY-MM")

	return cmd
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var report struct {
				Consistent      bool   `json:"consistent"`
				RecordedBalance string `json:"recordedBalance"`
				ExpectedBalance string `json:"expectedBalance"`
				Difference      string `json:"difference"`
				DocumentIssues  []struct {
					Number string `json:"number"`
					Reason string `json:"reason"`
				} `json:"documentIssues"`
			}
			if err := getJSON(cmd.Context(), opts, "/finance/consistency", &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Consistent {
				fmt.Fprintln(out, "Consistency check PASSED")
				return nil
			}

			fmt.Fprintln(out, "Consistency check FAILED")
			fmt.Fprintf(out, "Recorded: %s  Expected: %s  Difference: %s\n",
				report.RecordedBalance, report.ExpectedBalance, report.Difference)
			for _, issue := range report.DocumentIssues {
				fmt.Fprintf(out, "  %s: %s\n", issue.Number, issue.Reason)
			}
			return errors.New("ledger is inconsistent")
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID   string
		email    string
		role     string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			manager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, duration)
			token, err := manager.Generate(&domain.User{ID: userID, Email: email, Role: domain.Role(strings.ToLower(role))})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "User id recorded in audit logs")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "admin, treasurer or viewer")
	cmd.Flags().DurationVar(&duration, "ttl", 12*time.Hour, "Token lifetime")

	return cmd
}

func getJSON(ctx context.Context, opts *options, path string, dst any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return json.Unmarshal(body, dst)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
