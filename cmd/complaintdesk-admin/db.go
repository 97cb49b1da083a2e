package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/acadly/complaintdesk/internal/bootstrap"
	"github.com/acadly/complaintdesk/internal/data"
	"github.com/acadly/complaintdesk/internal/devseed"
)

var errAborted = errors.New("aborted by user")

func newMigrateCmd(cmdCtx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdCtx.withDatabase(cmd.Context(), timeout, func(ctx context.Context, db *sql.DB) error {
				cmdCtx.Logger.InfoContext(ctx, "running database migrations")
				if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				cmdCtx.Logger.InfoContext(ctx, "migrations completed successfully")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations to finish")
	return cmd
}

func newSeedCmd(cmdCtx *commandContext) *cobra.Command {
	var (
		timeout     time.Duration
		allowRemote bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run migrations and seed development departments, accounts and complaints",
		Long: fmt.Sprintf(`Seed development data. Creates the CS, MATH and REG departments, the
accounts admin@example.edu, officer@example.edu and student@example.edu
(password %q), and a few sample complaints. Existing rows are kept.`, devseed.DefaultPassword),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmdCtx.guardRemoteHost(cmd, allowRemote, "seed development data on the configured database")
			if err != nil {
				return err
			}
			return cmdCtx.withDatabase(cmd.Context(), timeout, func(ctx context.Context, db *sql.DB) error {
				cmdCtx.Logger.InfoContext(ctx, "ensuring database migrations are current")
				if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				cmdCtx.Logger.InfoContext(ctx, "seeding development data")
				if err := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); err != nil {
					return fmt.Errorf("seed data: %w", err)
				}
				cmdCtx.Logger.InfoContext(ctx, "database seeding completed successfully")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time for migrations and seeding")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "allow seeding a database host that does not look local")
	return cmd
}

func newVerifyCmd(cmdCtx *commandContext) *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the schema exists and role/department invariants hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdCtx.withDatabase(cmd.Context(), timeout, func(ctx context.Context, db *sql.DB) error {
				rep, err := data.NewIntegrityRepo(db).Verify(ctx)
				if err != nil {
					return fmt.Errorf("verify: %w", err)
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if err := enc.Encode(rep); err != nil {
						return fmt.Errorf("encode report: %w", err)
					}
				} else if err := printIntegrityReport(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				if !rep.OK() {
					return errors.New("integrity check failed")
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "maximum time for the verification queries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printIntegrityReport(w io.Writer, rep *data.IntegrityReport) error {
	if len(rep.MissingTables) > 0 {
		if err := writef(w, "Missing tables: %s\n", strings.Join(rep.MissingTables, ", ")); err != nil {
			return fmt.Errorf("print missing tables: %w", err)
		}
		return writeln(w, "Run `complaintdesk-admin migrate` to create them.")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "TABLE\tROWS"); err != nil {
		return fmt.Errorf("print row counts: %w", err)
	}
	tables := make([]string, 0, len(rep.RowCounts))
	for t := range rep.RowCounts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		if err := writef(tw, "%s\t%d\n", t, rep.RowCounts[t]); err != nil {
			return fmt.Errorf("print row counts: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush row counts: %w", err)
	}

	checks := []struct {
		label string
		n     int
	}{
		{"officers without a department", rep.OfficersWithoutDept},
		{"complaints without a department", rep.ComplaintsWithoutDept},
		{"assignees that are not officers of the complaint's department", rep.AssigneesNotOfficers},
	}
	if err := writeln(w); err != nil {
		return err
	}
	for _, c := range checks {
		status := "ok"
		if c.n > 0 {
			status = fmt.Sprintf("FAIL (%d)", c.n)
		}
		if err := writef(w, "%-64s %s\n", c.label, status); err != nil {
			return fmt.Errorf("print check: %w", err)
		}
	}
	return nil
}

func (c *commandContext) withDatabase(
	parent context.Context,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: c.Config.Postgres,
		Logger:   c.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			c.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// guardRemoteHost refuses to touch a non-local database unless allowed, and
// then asks the operator to type the host name back.
func (c *commandContext) guardRemoteHost(cmd *cobra.Command, allow bool, action string) (bool, error) {
	host := c.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	if err := requireRemoteHostConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), action, host); err != nil {
		return true, err
	}
	return true, nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(in io.Reader, out io.Writer, action, host string) error {
	if err := writef(out,
		"\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\n",
		host, action,
	); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(out, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errAborted
	}
	if strings.TrimSpace(resp) != host {
		if werr := writeln(out, "\nRemote safeguard check failed; aborting."); werr != nil {
			return fmt.Errorf("print remote safeguard failure: %w", werr)
		}
		return errAborted
	}
	return nil
}

// confirmAction asks for a y/N answer unless yes is set.
func confirmAction(cmd *cobra.Command, yes bool, prompt string) error {
	if yes {
		return nil
	}
	if err := writef(cmd.OutOrStdout(), "%s\nContinue? [y/N]: ", prompt); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errAborted
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errAborted
}
