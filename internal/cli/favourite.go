package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newFavouriteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourite",
		Aliases: []string{"favourites", "fav"},
		Short:   "Manage favourite noodles",
	}
	cmd.AddCommand(
		newFavouriteAddCmd(a),
		newFavouriteRemoveCmd(a),
		newFavouriteToggleCmd(a),
		newFavouriteListCmd(a),
	)
	return cmd
}

func newFavouriteAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <noodle-id>",
		Short: "Mark a noodle as a favourite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableFavourites)
				if err != nil {
					return err
				}
				if _, err := tbl.Set(args[0], &types.Favourite{NoodleID: args[0]}); err != nil {
					return classify("add favourite", err)
				}
				return a.output(cmd, favouriteState(args[0], true), "Added "+args[0]+" to favourites")
			})
		},
	}
}

func newFavouriteRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <noodle-id>",
		Short: "Clear a noodle's favourite mark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableFavourites)
				if err != nil {
					return err
				}
				if err := tbl.Delete(args[0]); err != nil {
					return classify("remove favourite", err)
				}
				return a.output(cmd, favouriteState(args[0], false), "Removed "+args[0]+" from favourites")
			})
		},
	}
}

func newFavouriteToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <noodle-id>",
		Short: "Add a noodle to the favourites, or remove it if already there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				on, err := types.ToggleFavourite(p, args[0])
				if err != nil {
					return classify("toggle favourite", err)
				}
				text := "Removed " + args[0] + " from favourites"
				if on {
					text = "Added " + args[0] + " to favourites"
				}
				return a.output(cmd, favouriteState(args[0], on), text)
			})
		},
	}
}

func newFavouriteListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favourite noodles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableFavourites)
				if err != nil {
					return err
				}
				results, err := tbl.Fetch(nil)
				if err != nil {
					return classify("list favourites", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), results)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NOODLE\tADDED")
				for _, r := range results {
					if fav, ok := r.(*types.Favourite); ok {
						fmt.Fprintf(w, "%s\t%s\n", fav.NoodleID, fav.CreatedAt.Format(time.RFC3339))
					}
				}
				return w.Flush()
			})
		},
	}
}

func favouriteState(noodleID string, favourite bool) map[string]any {
	return map[string]any{"noodleId": noodleID, "favourite": favourite}
}
