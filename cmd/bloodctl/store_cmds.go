package main

import (
	"fmt"
	"os"

	"bloodconnect/internal/app"
	"bloodconnect/internal/config"
	"bloodconnect/internal/seed"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema",
		Long:  "Runs gorm auto-migration for every table. Only meaningful with DATABASE_URL; Supabase schemas are managed in the Supabase project.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel, cfg, zl, err := c.env(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer func() { _ = zl.Sync() }()

			if cfg.Mode() != config.ModeSQL {
				return fmt.Errorf("migrate needs DATABASE_URL (current mode: %s)", cfg.Mode())
			}
			store, err := app.OpenStore(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(c.out, "schema is up to date")
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture accounts, inventory, requests and camps",
		Long:  "Loads the built-in demo fixtures, or a YAML file in the same format, into a persistent backend. Does nothing when the fixture admin already exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel, cfg, zl, err := c.env(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer func() { _ = zl.Sync() }()

			if cfg.Mode() == config.ModeDemo {
				return fmt.Errorf("seed needs a persistent backend; demo mode seeds itself on startup")
			}

			fx, err := loadFixtures(file)
			if err != nil {
				return err
			}
			store, err := app.OpenStore(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer store.Close()

			sum, err := seed.Apply(ctx, store.Repos, fx, zl)
			if err != nil {
				return err
			}
			if sum.Skipped {
				fmt.Fprintln(c.out, "already seeded, nothing to do")
				return nil
			}
			fmt.Fprintf(c.out, "seeded %d users (%d donors, %d hospitals), %d requests, %d camps\n",
				sum.Users, sum.Donors, sum.Hospitals, sum.Requests, sum.Camps)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture file (default: built-in demo data)")
	return cmd
}

func loadFixtures(file string) (*seed.Fixtures, error) {
	if file == "" {
		return seed.Demo()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return seed.Parse(data)
}
