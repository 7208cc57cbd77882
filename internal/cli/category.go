package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage noodle categories",
	}
	cmd.AddCommand(
		newCategoryAddCmd(a),
		newCategoryListCmd(a),
		newCategoryDeleteCmd(a),
	)
	return cmd
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableCategories)
				if err != nil {
					return err
				}
				cat := &types.Category{Name: args[0]}
				id, err := tbl.Set("", cat)
				if err != nil {
					return classify("add category", err)
				}
				cat.CategoryID = id
				return a.output(cmd, cat, id)
			})
		},
	}
}

func newCategoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableCategories)
				if err != nil {
					return err
				}
				results, err := tbl.Fetch(nil)
				if err != nil {
					return classify("list categories", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), results)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME")
				for _, r := range results {
					if cat, ok := r.(*types.Category); ok {
						fmt.Fprintf(w, "%s\t%s\n", cat.CategoryID, cat.Name)
					}
				}
				return w.Flush()
			})
		},
	}
}

func newCategoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a category; its noodles become uncategorised",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableCategories)
				if err != nil {
					return err
				}
				if err := tbl.Delete(args[0]); err != nil {
					return classify("delete category", err)
				}
				return a.output(cmd, map[string]string{"deleted": args[0]}, "Deleted "+args[0])
			})
		},
	}
}
