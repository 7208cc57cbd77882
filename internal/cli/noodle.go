package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// noodleFlags holds the writable noodle fields shared by add and update.
type noodleFlags struct {
	name       string
	brand      string
	spiciness  int
	country    string
	rating     int
	reviews    int64
	imageURL   string
	categoryID string
}

func (f *noodleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.brand, "brand", "", "manufacturer")
	cmd.Flags().IntVar(&f.spiciness, "spiciness", 0, "spiciness level 1-5 (default 3 on add)")
	cmd.Flags().StringVar(&f.country, "country", "", "origin country value, see pantry noodle countries")
	cmd.Flags().IntVar(&f.rating, "rating", 0, "rating 1-10 (default 5 on add)")
	cmd.Flags().Int64Var(&f.reviews, "reviews", 0, "reviews count (can never decrease)")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "image URL")
	cmd.Flags().StringVar(&f.categoryID, "category", "", "category ID")
}

// patch returns a NoodlePatch holding only the flags set on the command line.
func (f *noodleFlags) patch(cmd *cobra.Command) *types.NoodlePatch {
	changed := cmd.Flags().Changed
	p := &types.NoodlePatch{}
	if changed("name") {
		p.Name = &f.name
	}
	if changed("brand") {
		p.Brand = &f.brand
	}
	if changed("spiciness") {
		level := types.SpicinessLevel(f.spiciness)
		p.SpicinessLevel = &level
	}
	if changed("country") {
		p.OriginCountry = &f.country
	}
	if changed("rating") {
		p.Rating = &f.rating
	}
	if changed("reviews") {
		p.ReviewsCount = &f.reviews
	}
	if changed("image-url") {
		p.ImageURL = &f.imageURL
	}
	if changed("category") {
		p.CategoryID = &f.categoryID
	}
	return p
}

func newNoodleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "noodle",
		Aliases: []string{"noodles"},
		Short:   "Manage noodles",
	}
	cmd.AddCommand(
		newNoodleAddCmd(a),
		newNoodleGetCmd(a),
		newNoodleListCmd(a),
		newNoodleUpdateCmd(a),
		newNoodleDeleteCmd(a),
		newNoodleReviewCmd(a),
		newNoodleCountriesCmd(a),
	)
	return cmd
}

func newNoodleAddCmd(a *app) *cobra.Command {
	var f noodleFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a noodle",
		Example: `  pantry noodle add --name "Shin Ramyun" --brand Nongshim --country south_korea
  pantry noodle add --name "Mi Goreng" --brand Indomie --country indonesia --spiciness 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := &types.Noodle{}
			f.patch(cmd).ApplyTo(n)
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableNoodles)
				if err != nil {
					return err
				}
				id, err := tbl.Set("", n)
				if err != nil {
					return classify("add noodle", err)
				}
				created, err := types.GetNoodle(tbl, id)
				if err != nil {
					return classify("read noodle", err)
				}
				return a.output(cmd, created, created.NoodleID)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newNoodleGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a noodle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableNoodles)
				if err != nil {
					return err
				}
				n, err := types.GetNoodle(tbl, args[0])
				if err != nil {
					return classify("get noodle", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), n)
				}
				return writeNoodleDetail(cmd.OutOrStdout(), n)
			})
		},
	}
}

func newNoodleListCmd(a *app) *cobra.Command {
	var (
		spiciness  int
		country    string
		categoryID string
		favourites bool
		limit      int
		offset     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List noodles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := types.Filter{}
			if cmd.Flags().Changed("spiciness") {
				filter["spiciness_level"] = spiciness
			}
			if country != "" {
				filter["origin_country"] = country
			}
			if categoryID != "" {
				filter["category_id"] = categoryID
			}
			if favourites {
				filter["favourites"] = true
			}
			if limit > 0 {
				filter["limit"] = limit
			}
			if offset > 0 {
				filter["offset"] = offset
			}
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableNoodles)
				if err != nil {
					return err
				}
				results, err := tbl.Fetch(filter)
				if err != nil {
					return classify("list noodles", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), results)
				}
				return writeNoodleTable(cmd.OutOrStdout(), results)
			})
		},
	}
	cmd.Flags().IntVar(&spiciness, "spiciness", 0, "only noodles with this spiciness level")
	cmd.Flags().StringVar(&country, "country", "", "only noodles from this origin country")
	cmd.Flags().StringVar(&categoryID, "category", "", "only noodles in this category")
	cmd.Flags().BoolVar(&favourites, "favourites", false, "only favourite noodles")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of noodles")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of noodles to skip")
	return cmd
}

func newNoodleUpdateCmd(a *app) *cobra.Command {
	var f noodleFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update noodle fields",
		Long: "Update sets only the fields given as flags. Lowering --reviews is\n" +
			"rejected and leaves the noodle unchanged.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd)
			if patch.Empty() {
				return userError(fmt.Errorf("update: at least one field flag must be provided"))
			}
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableNoodles)
				if err != nil {
					return err
				}
				if _, err := tbl.Set(args[0], patch); err != nil {
					return classify("update noodle", err)
				}
				n, err := types.GetNoodle(tbl, args[0])
				if err != nil {
					return classify("read noodle", err)
				}
				return a.output(cmd, n, "Updated "+n.NoodleID)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newNoodleDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a noodle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				tbl, err := table(p, types.TableNoodles)
				if err != nil {
					return err
				}
				if err := tbl.Delete(args[0]); err != nil {
					return classify("delete noodle", err)
				}
				return a.output(cmd, map[string]string{"deleted": args[0]}, "Deleted "+args[0])
			})
		},
	}
}

func newNoodleReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review <id>",
		Short: "Leave a review, adding one to the reviews count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPantry(func(p types.Pantry) error {
				n, err := types.LeaveReview(p, args[0])
				if err != nil {
					return classify("review noodle", err)
				}
				text := fmt.Sprintf("Reviewed %s: %d reviews", n.NoodleID, n.ReviewsCount)
				return a.output(cmd, map[string]any{
					"noodleId":       n.NoodleID,
					"reviewsCount":   n.ReviewsCount,
					"lastReviewedAt": n.LastReviewedAt,
				}, text)
			})
		},
	}
}

func newNoodleCountriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the accepted origin countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), types.Countries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range types.Countries {
				fmt.Fprintf(w, "%s\t%s\n", c.Value, c.Label)
			}
			return w.Flush()
		},
	}
}

func writeNoodleTable(out io.Writer, results []any) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tSPICINESS\tCOUNTRY\tRATING\tREVIEWS")
	for _, r := range results {
		n, ok := r.(*types.Noodle)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			n.NoodleID, n.Name, n.Brand, n.SpicinessDescription(),
			types.CountryLabel(n.OriginCountry), n.Rating, n.ReviewsCount)
	}
	return w.Flush()
}

func writeNoodleDetail(out io.Writer, n *types.Noodle) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	lastReviewed := "never"
	if n.LastReviewedAt != nil {
		lastReviewed = n.LastReviewedAt.Format(time.RFC3339)
	}
	rows := [][2]string{
		{"ID", n.NoodleID},
		{"Name", n.Name},
		{"Brand", n.Brand},
		{"Spiciness", fmt.Sprintf("%d (%s)", n.SpicinessLevel, n.SpicinessDescription())},
		{"Country", types.CountryLabel(n.OriginCountry)},
		{"Rating", fmt.Sprintf("%d/%d", n.Rating, types.MaxRating)},
		{"Reviews", fmt.Sprintf("%d", n.ReviewsCount)},
		{"Last reviewed", lastReviewed},
		{"Image", n.ImageURL},
		{"Category", n.CategoryID},
		{"Created", n.CreatedAt.Format(time.RFC3339)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
	}
	return w.Flush()
}
