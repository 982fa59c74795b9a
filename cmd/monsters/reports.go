package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/app"
	"github.com/monster-tracker/internal/report"
	"github.com/monster-tracker/internal/service"
)

const (
	searchProposing   = service.SearchProposing
	searchResearching = service.SearchResearching
)

func statsCmd(a *app.App, out *output) *cobra.Command {
	var (
		n        int
		verbose  bool
		proposed bool
		all      bool
		file     string
		players  []string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the rarest and most common monsters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := a.Reports().Stats(cmd.Context(), service.StatsQuery{
				Path:         file,
				N:            n,
				OnlyArchi:    !all,
				OnlyProposed: proposed,
				Players:      players,
			})
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), ex, func(w io.Writer) error {
				return report.RenderExtremes(w, ex, verbose)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", service.DefaultTopN, "monsters per list")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show names, zones and stages")
	cmd.Flags().BoolVarP(&proposed, "proposed", "p", false, "count offers instead of owned quantities")
	cmd.Flags().BoolVar(&all, "all", false, "include every monster, not only archimonstres")
	cmd.Flags().StringVar(&file, "file", "", "snapshot file (default: monsters file)")
	cmd.Flags().StringSliceVar(&players, "player", nil, "restrict to these players")
	return cmd
}

func histCmd(a *app.App, out *output) *cobra.Command {
	var (
		proposed bool
		all      bool
		file     string
		width    int
	)
	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Show every monster total as a text histogram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.Reports().Histogram(cmd.Context(), service.StatsQuery{
				Path:         file,
				OnlyArchi:    !all,
				OnlyProposed: proposed,
			})
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), entries, func(w io.Writer) error {
				return report.RenderHistogram(w, entries, width)
			})
		},
	}
	cmd.Flags().BoolVarP(&proposed, "proposed", "p", false, "count offers instead of owned quantities")
	cmd.Flags().BoolVar(&all, "all", false, "include every monster, not only archimonstres")
	cmd.Flags().StringVar(&file, "file", "", "snapshot file (default: monsters file)")
	cmd.Flags().IntVar(&width, "width", 50, "width of the longest bar")
	return cmd
}

func compareCmd(a *app.App, out *output) *cobra.Command {
	var (
		presence   bool
		oldPath    string
		newPath    string
		oldArchive string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Show per-player changes between two snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := analysis.DiffQuantity
			if presence {
				mode = analysis.DiffPresence
			}

			var (
				res analysis.DiffResult
				err error
			)
			if oldArchive != "" {
				archive, aerr := a.Archive(cmd.Context())
				if aerr != nil {
					return aerr
				}
				res, err = archive.CompareArchived(cmd.Context(), oldArchive, newPath, mode)
			} else {
				res, err = a.Reports().Compare(cmd.Context(), oldPath, newPath, mode)
			}
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return report.RenderDiff(w, res)
			})
		},
	}
	cmd.Flags().BoolVarP(&presence, "presence", "p", false, "compare market offers instead of quantities")
	cmd.Flags().StringVar(&oldPath, "old", "", "older snapshot (default: monsters file)")
	cmd.Flags().StringVar(&newPath, "new", "", "newer snapshot (default: compare file)")
	cmd.Flags().StringVar(&oldArchive, "old-archive", "", "archived snapshot id or 'latest' to use as the older snapshot")
	cmd.MarkFlagsMutuallyExclusive("old", "old-archive")
	return cmd
}

func imbalanceCmd(a *app.App, out *output) *cobra.Command {
	var (
		factor float64
		file   string
	)
	cmd := &cobra.Command{
		Use:   "imbalance",
		Short: "List players hoarding some monsters while missing others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.Reports().Imbalance(cmd.Context(), file, factor)
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), reports, func(w io.Writer) error {
				return report.RenderImbalance(w, reports)
			})
		},
	}
	cmd.Flags().Float64Var(&factor, "factor", service.DefaultImbalanceFactor, "multiple of the average count that counts as high")
	cmd.Flags().StringVar(&file, "file", "", "snapshot file (default: monsters file)")
	return cmd
}

func findCmd(a *app.App, out *output, use, short string, kind service.SearchKind) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <monster>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := a.Reports().Search(cmd.Context(), kind, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), lines, func(w io.Writer) error {
				return report.RenderPlayers(w, lines)
			})
		},
	}
}
