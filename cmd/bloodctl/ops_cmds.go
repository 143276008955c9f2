package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"bloodconnect/internal/app"
	"bloodconnect/internal/domain"

	"github.com/spf13/cobra"
)

func (c *cli) alertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts <hospital-id|email>",
		Short: "Print stock alerts for a hospital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, zl, err := c.env(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer func() { _ = zl.Sync() }()

			a, err := app.New(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer a.Close()

			hospitalID, err := resolveHospital(ctx, a, args[0])
			if err != nil {
				return err
			}
			alerts, err := a.Inventory.Alerts(ctx, hospitalID)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Fprintln(c.out, "no alerts")
				return nil
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEVERITY\tGROUP\tMESSAGE")
			for _, al := range alerts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", al.Severity, al.BloodGroup, al.Message)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <request-id>",
		Short: "Match available donors to a request and notify them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, zl, err := c.env(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer func() { _ = zl.Sync() }()

			a, err := app.New(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Matching.MatchDonors(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "request %s is %s: %d donor(s) matched (%s mode)\n",
				res.Request.ID, res.Request.Status, len(res.DonorIDs), res.Mode)
			for _, id := range res.DonorIDs {
				fmt.Fprintln(c.out, "  "+id)
			}
			return nil
		},
	}
}

// resolveHospital accepts a hospital id or the hospital account's email.
func resolveHospital(ctx context.Context, a *app.App, ref string) (string, error) {
	if !strings.Contains(ref, "@") {
		return ref, nil
	}
	u, _, err := a.Store().Repos.Users.GetCredentials(ctx, ref)
	if err != nil {
		return "", err
	}
	if u.Role != domain.RoleHospital {
		return "", fmt.Errorf("%s is a %s account, not a hospital", ref, u.Role)
	}
	return u.ID, nil
}
