package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/monster-tracker/internal/app"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/report"
)

func archiveCmd(a *app.App, out *output) *cobra.Command {
	var (
		file    string
		label   string
		takenAt string
	)
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store a snapshot file in the archive and record its totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseTime("taken-at", takenAt)
			if err != nil {
				return err
			}
			archive, err := a.Archive(cmd.Context())
			if err != nil {
				return err
			}

			var when time.Time
			if at != nil {
				when = *at
			}
			archived, err := archive.Archive(cmd.Context(), file, label, when)
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), archived, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Archived snapshot %s (%d players)\n", archived.ID, archived.Players)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "snapshot file (default: monsters file)")
	cmd.Flags().StringVar(&label, "label", "", "free-form label")
	cmd.Flags().StringVar(&takenAt, "taken-at", "", "RFC 3339 time the snapshot was taken (default: now)")

	cmd.AddCommand(archiveListCmd(a, out), archiveShowCmd(a, out))
	return cmd
}

func archiveListCmd(a *app.App, out *output) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.Archive(cmd.Context())
			if err != nil {
				return err
			}
			snapshots, err := archive.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), snapshots, func(w io.Writer) error {
				return report.RenderArchiveList(w, snapshots)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of snapshots")
	return cmd
}

func archiveShowCmd(a *app.App, out *output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|latest>",
		Short: "Print an archived snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.Archive(cmd.Context())
			if err != nil {
				return err
			}
			archived, err := archive.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.WriteJSON(cmd.OutOrStdout(), archived.Snapshot)
		},
	}
}

func historyCmd(a *app.App, out *output) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "history <monster>",
		Short: "Show a monster's archived totals over time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromAt, err := parseTime("from", from)
			if err != nil {
				return err
			}
			toAt, err := parseTime("to", to)
			if err != nil {
				return err
			}

			archive, err := a.Archive(cmd.Context())
			if err != nil {
				return err
			}
			points, err := archive.ItemHistory(cmd.Context(), args[0], fromAt, toAt)
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), points, func(w io.Writer) error {
				return report.RenderHistory(w, points)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "RFC 3339 lower bound")
	cmd.Flags().StringVar(&to, "to", "", "RFC 3339 upper bound")
	return cmd
}

func parseTime(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewInvalidParameterError(flag, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}
