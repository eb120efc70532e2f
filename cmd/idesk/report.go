package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/outbox"
	"github.com/zulandar/incidentdesk/internal/reconcile"
)

func newReportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show message counts by category and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			counts, err := a.reporter.Counts(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total messages: %d\n\n", counts.Total)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tCOLOR\tCOUNT")
			for _, c := range a.taxonomy.Categories() {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.Label, c.Color, counts.Categories[c.Label])
			}
			w.Flush()
			fmt.Fprintln(out)

			w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tCOUNT")
			for _, s := range models.MessageStatuses {
				label := s.DisplayLabel()
				fmt.Fprintf(w, "%s\t%d\n", label, counts.Statuses[label])
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newOutboxCmd() *cobra.Command {
	var (
		configPath  string
		limit       int
		unaddressed bool
	)

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "List SMS waiting to be sent by the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := context.Background()

			if unaddressed {
				reqs, err := outbox.Unaddressed(ctx, a.db)
				if err != nil {
					return err
				}
				if len(reqs) == 0 {
					fmt.Fprintln(out, "No unaddressed requests.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "REQUEST\tMESSAGE\tBARANGAY\tCREATED")
				for _, r := range reqs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.MessageID, dash(r.Barangay), formatTime(r.CreatedAt))
				}
				w.Flush()
				return nil
			}

			items, err := outbox.Pending(ctx, a.db, limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "Outbox is empty.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tID\tNUMBER\tCREATED\tTEXT")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Kind, it.ID, it.TargetPhone, formatTime(it.CreatedAt), truncate(it.Text, 50))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum items to list (0 for all)")
	cmd.Flags().BoolVar(&unaddressed, "unaddressed", false, "list verification requests created without a captain phone")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report verification requests left behind by interrupted writes",
		Long:  "Runs the orphan audit once and lists what it finds. Nothing is repaired.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			orphans, err := reconcile.NewAuditor(a.verify, a.log.Named("reconcile")).Run(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(orphans) == 0 {
				fmt.Fprintln(out, "No orphaned requests.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "REQUEST\tMESSAGE\tMESSAGE STATUS\tREASON")
			for _, o := range orphans {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Request.ID, o.Request.MessageID, dash(string(o.MessageStatus)), o.Reason)
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
