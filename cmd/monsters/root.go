package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/monster-tracker/internal/app"
	"github.com/monster-tracker/internal/report"
	"github.com/monster-tracker/internal/types"
)

// output carries the --format flag shared by every report command
type output struct {
	format string
}

func (o *output) write(w io.Writer, v interface{}, text func(io.Writer) error) error {
	format, ok := types.ParseReportFormat(o.format)
	if !ok {
		return fmt.Errorf("unknown format %q (want text or json)", o.format)
	}
	if format == types.FormatJSON {
		return report.WriteJSON(w, v)
	}
	return text(w)
}

func rootCmd(a *app.App) *cobra.Command {
	out := &output{}

	root := &cobra.Command{
		Use:           "monsters",
		Short:         "Metamob monster inventory reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f := cmd.Flag("users-file"); f != nil && f.Changed {
				a.Config.Files.UsersFile = f.Value.String()
			}
			if f := cmd.Flag("monsters-file"); f != nil && f.Changed {
				a.Config.Files.MonstersFile = f.Value.String()
			}
		},
	}
	root.PersistentFlags().StringVar(&out.format, "format", "text", "output format: text or json")
	root.PersistentFlags().String("users-file", a.Config.Files.UsersFile, "user directory file")
	root.PersistentFlags().String("monsters-file", a.Config.Files.MonstersFile, "monsters snapshot file")

	root.AddCommand(
		statsCmd(a, out),
		histCmd(a, out),
		compareCmd(a, out),
		imbalanceCmd(a, out),
		findCmd(a, out, "find-proposing", "List players offering a monster", searchProposing),
		findCmd(a, out, "find-researching", "List players looking for a monster", searchResearching),
		refreshUsersCmd(a, out),
		refreshMonstersCmd(a, out),
		archiveCmd(a, out),
		historyCmd(a, out),
		serveCmd(a),
	)
	return root
}
