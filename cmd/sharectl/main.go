package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/medshare/internal/share/app"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the configuration shared by every subcommand. Flags override
// the environment.
type cli struct {
	cfg    app.Config
	out    io.Writer
	logger *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{cfg: app.LoadConfig(), out: out}

	rootCmd := &cobra.Command{
		Use:           "sharectl",
		Short:         "Administer the patient sharing service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.logger = app.NewLogger(c.cfg)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfg.DatabaseDriver, "driver", c.cfg.DatabaseDriver, "Database driver (sqlite, postgres)")
	flags.StringVar(&c.cfg.DatabaseFile, "database-file", c.cfg.DatabaseFile, "SQLite database path")
	flags.StringVar(&c.cfg.DatabaseURL, "database-url", c.cfg.DatabaseURL, "Postgres connection string")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(c.migrateCmd())
	rootCmd.AddCommand(c.sweepCmd())
	rootCmd.AddCommand(c.transferCmd())

	return rootCmd
}

// withStore opens the store, applying pending migrations, and closes it
// after fn.
func (c *cli) withStore(ctx context.Context, fn func(st store.Store) error) error {
	st, err := app.OpenStore(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store.Store) error {
				fmt.Fprintf(c.out, "migrations applied (%s)\n", c.cfg.DatabaseDriver)
				return nil
			})
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue invitations and deactivate expired shares",
		Long: "Runs one housekeeping pass. Schedule this from cron when the server runs " +
			"with HOUSEKEEPING_ENABLED=false.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				svcs := app.NewServices(st, c.cfg, clock.System)
				hk := service.NewHousekeepingService(svcs.Invitations, svcs.Sharing, c.logger, c.cfg.HousekeepingInterval)

				res, err := hk.RunOnce(cmd.Context())
				fmt.Fprintf(c.out, "invitations expired: %d\nshares deactivated: %d\n",
					res.InvitationsExpired, res.SharesDeactivated)
				return err
			})
		},
	}
}

func (c *cli) transferCmd() *cobra.Command {
	var patientID, newOwnerID, adminID string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer a patient record to a new owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := slogx.WithContext(cmd.Context(), c.logger)
			return c.withStore(ctx, func(st store.Store) error {
				svcs := app.NewServices(st, c.cfg, clock.System)
				res, err := svcs.Transfer.TransferPatientOwnership(ctx, patientID, newOwnerID, adminID)
				if err != nil {
					return err
				}

				fmt.Fprintf(c.out, "patient %s transferred from %s to %s\n",
					res.PatientID, res.OriginalOwnerID, res.NewOwnerID)
				if res.ReplacementCreated {
					fmt.Fprintf(c.out, "replacement self-record: %s\n", res.ReplacementPatientID)
				}
				if res.EditShareGranted {
					fmt.Fprintf(c.out, "edit share for original owner: %s\n", res.EditShareID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "Patient ID to transfer")
	cmd.Flags().StringVar(&newOwnerID, "to", "", "User ID of the new owner")
	cmd.Flags().StringVar(&adminID, "admin", "", "User ID of the admin performing the transfer")
	for _, f := range []string{"patient", "to", "admin"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
