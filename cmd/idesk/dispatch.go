package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDispatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Responder dispatch commands",
	}

	cmd.AddCommand(newDispatchSendCmd())
	cmd.AddCommand(newDispatchRespondersCmd())
	return cmd
}

func newDispatchSendCmd() *cobra.Command {
	var (
		configPath string
		contactID  string
	)

	cmd := &cobra.Command{
		Use:   "send <message-id>",
		Short: "Notify a responder agency about a verified message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			d, err := a.dispatch.Dispatch(context.Background(), args[0], contactID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dispatch %s queued for %s (%s)\n", d.ID, d.Agency, d.TargetPhone)
			fmt.Fprintf(out, "Text: %s\n", d.OutgoingText)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&contactID, "contact", "", "responder contact ID (required)")
	cmd.MarkFlagRequired("contact")
	return cmd
}

func newDispatchRespondersCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "responders",
		Short: "List responder contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			contacts, err := a.dispatch.Responders(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(contacts) == 0 {
				fmt.Fprintln(out, "No responders found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAGENCY\tPHONE\tBARANGAY")
			for _, c := range contacts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Agency, c.Phone, dash(c.Barangay))
			}
			w.Flush()
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
