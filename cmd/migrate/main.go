package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	mongoMigration "calbook/internal/migrations/mongo"
	"calbook/pkg/config"

	"github.com/spf13/cobra"
)

const JobName = "mongo-migration"

var migrationTimeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the calbook Mongo schema",
	Long: `Create collections, JSON schema validators and indexes used by the
bookings and insights services.

Available subcommands:
  up   - Apply collections, validators and indexes
  plan - Print what up would apply without connecting`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply collections, validators and indexes",
	RunE:  runUp,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the managed collections and their indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printPlan(cmd.OutOrStdout())
	},
}

func init() {
	upCmd.Flags().DurationVar(&migrationTimeout, "timeout", 120*time.Second, "overall migration deadline")
	rootCmd.AddCommand(upCmd, planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUp(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), migrationTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		return err
	}
	return nil
}

func printPlan(w io.Writer) error {
	for _, def := range mongoMigration.Collections() {
		if _, err := fmt.Fprintf(w, "%s (%d indexes)\n", def.Name, len(def.Indexes)); err != nil {
			return err
		}
	}
	return nil
}
