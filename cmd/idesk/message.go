package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/zulandar/incidentdesk/internal/dashboard"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/verify"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Received message commands",
	}

	cmd.AddCommand(newMessageListCmd())
	cmd.AddCommand(newMessageVerifyCmd())
	cmd.AddCommand(newMessageReplyCmd())
	cmd.AddCommand(newMessageDeclineCmd())
	return cmd
}

func newMessageListCmd() *cobra.Command {
	var (
		configPath string
		barangay   string
		statuses   []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List received messages",
		Long:  "Lists received messages newest first, optionally filtered by barangay tab and status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageList(cmd, configPath, barangay, statuses)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&barangay, "barangay", "", `barangay tab ("All Barangay", "Unknown" or a barangay name)`)
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "status filter, repeatable")
	return cmd
}

func runMessageList(cmd *cobra.Command, configPath, barangay string, statuses []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}

	f := dashboard.InboxFilter{Barangay: barangay}
	for _, s := range statuses {
		st, err := models.ParseMessageStatus(s)
		if err != nil {
			return err
		}
		f.Statuses = append(f.Statuses, st)
	}

	msgs, err := a.reporter.Inbox(context.Background(), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages found.")
		return nil
	}

	width := bodyWidth(out, 130, 40)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECEIVED\tSTATUS\tTYPE\tBARANGAY\tMESSAGE")
	for _, m := range msgs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, formatTime(m.ReceivedAt), m.Status.DisplayLabel(),
			orDash(m.IncidentType), a.barangays.Group(deref(m.Barangay)), truncate(m.Body, width))
	}
	w.Flush()
	return nil
}

func newMessageVerifyCmd() *cobra.Command {
	var (
		configPath   string
		incidentType string
		barangay     string
		requestKey   string
	)

	cmd := &cobra.Command{
		Use:   "verify <message-id>",
		Short: "Send a message to the barangay captain for confirmation",
		Long: "Classifies the message, creates a verification request addressed to the barangay captain " +
			"and moves the message to Verifying. Re-running with the same --request-key is safe.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageVerify(cmd, configPath, verify.BeginOpts{
				MessageID:    args[0],
				IncidentType: incidentType,
				Barangay:     barangay,
				RequestKey:   requestKey,
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&incidentType, "type", "", "incident type label (required)")
	cmd.Flags().StringVar(&barangay, "barangay", "", "barangay of the incident (required)")
	cmd.Flags().StringVar(&requestKey, "request-key", "", "idempotency key (generated when empty)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("barangay")
	return cmd
}

func runMessageVerify(cmd *cobra.Command, configPath string, opts verify.BeginOpts) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	if opts.RequestKey == "" {
		opts.RequestKey = uuid.NewString()
	}

	req, err := a.verify.Begin(context.Background(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verification request %s created (key %s)\n", req.ID, req.RequestKey)
	if req.TargetPhone == "" {
		fmt.Fprintln(out, "Warning: no captain phone on file; follow up manually.")
	} else {
		fmt.Fprintf(out, "To: %s (%s)\n", req.CaptainName, req.TargetPhone)
	}
	fmt.Fprintf(out, "Prompt: %s\n", req.OutgoingText)
	return nil
}

func newMessageReplyCmd() *cobra.Command {
	var (
		configPath string
		answer     string
	)

	cmd := &cobra.Command{
		Use:   "reply <request-id>",
		Short: "Record the captain's answer to a verification request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := parseAnswer(answer)
			if err != nil {
				return err
			}
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.verify.Resolve(context.Background(), args[0], reply); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded reply %s for request %s\n", reply, args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&answer, "answer", "", "captain answer: yes or no (required)")
	cmd.MarkFlagRequired("answer")
	return cmd
}

// parseAnswer accepts yes/no in any case.
func parseAnswer(s string) (models.CaptainReply, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return models.ReplyYes, nil
	case "no", "n":
		return models.ReplyNo, nil
	}
	return "", fmt.Errorf("answer must be yes or no, got %q", s)
}

func newMessageDeclineCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "decline <message-id>",
		Short: "Decline a message without waiting for the captain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.verify.Decline(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Declined message %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
