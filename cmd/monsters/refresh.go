package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monster-tracker/internal/app"
	"github.com/monster-tracker/internal/service"
)

func refreshUsersCmd(a *app.App, out *output) *cobra.Command {
	var (
		add     []string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "refresh-users",
		Short: "Update user profiles from Metamob, or register new users with --add",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh := a.Refresh(cmd.Context())

			if len(add) > 0 {
				added, err := refresh.AddUsers(cmd.Context(), "", add)
				if err != nil {
					return err
				}
				return out.write(cmd.OutOrStdout(), added, func(w io.Writer) error {
					if len(added) == 0 {
						_, err := fmt.Fprintln(w, "No new users to add.")
						return err
					}
					_, err := fmt.Fprintf(w, "Added users: %s\n", strings.Join(added, ", "))
					return err
				})
			}

			res, err := refresh.RefreshUsers(cmd.Context(), service.RefreshOptions{SkipCache: noCache})
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return writeRefreshSummary(w, "users", res)
			})
		},
	}
	cmd.Flags().StringSliceVar(&add, "add", nil, "register these usernames without fetching")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached responses")
	return cmd
}

func refreshMonstersCmd(a *app.App, out *output) *cobra.Command {
	var (
		all     bool
		users   []string
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "refresh-monsters",
		Short: "Fetch every user's monsters from Metamob into a new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			onlyArchi := a.Config.Metamob.OnlyArchi
			if all {
				onlyArchi = false
			}

			res, err := a.Refresh(cmd.Context()).RefreshMonsters(cmd.Context(), service.RefreshOptions{
				Users:      users,
				OutputPath: output,
				OnlyArchi:  onlyArchi,
				SkipCache:  noCache,
			})
			if err != nil {
				return err
			}
			return out.write(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return writeRefreshSummary(w, "players", res)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "keep every monster, not only archimonstres")
	cmd.Flags().StringSliceVar(&users, "user", nil, "fetch only these users (default: every known user)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file to write (default: monsters file)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached responses")
	return cmd
}

func writeRefreshSummary(w io.Writer, noun string, res *service.RefreshResult) error {
	_, err := fmt.Fprintf(w, "Stored %d %s in %s (%d fetched, %d cached, %d failed) in %s\n",
		res.Users, noun, res.Path, res.Fetched, res.Cached, len(res.Failed), res.Duration.Round(1e6))
	if err != nil || len(res.Failed) == 0 {
		return err
	}
	_, err = fmt.Fprintf(w, "Failed: %s\n", strings.Join(res.Failed, ", "))
	return err
}
