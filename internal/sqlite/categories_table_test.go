package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func categories(t *testing.T, b *Backend) types.Table {
	t.Helper()
	tbl, err := b.GetTable(types.TableCategories)
	require.NoError(t, err)
	return tbl
}

func TestCategoriesTable(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "create populates ID and createdAt",
			check: func(t *testing.T, b *Backend) {
				cat := &types.Category{Name: "Udon"}
				id, err := categories(t, b).Set("", cat)
				require.NoError(t, err)
				assert.Equal(t, id, cat.CategoryID)
				assert.False(t, cat.CreatedAt.IsZero())

				got, err := categories(t, b).Get(id)
				require.NoError(t, err)
				assert.Equal(t, "Udon", got.(*types.Category).Name)
			},
		},
		{
			name: "duplicate name is rejected",
			check: func(t *testing.T, b *Backend) {
				_, err := categories(t, b).Set("", &types.Category{Name: "Ramen"})
				assert.ErrorIs(t, err, types.ErrDuplicateName)
			},
		},
		{
			name: "empty name is a validation error",
			check: func(t *testing.T, b *Backend) {
				_, err := categories(t, b).Set("", &types.Category{})
				assert.ErrorIs(t, err, types.ErrValidation)
			},
		},
		{
			name: "rename keeps createdAt and checks uniqueness",
			check: func(t *testing.T, b *Backend) {
				tbl := categories(t, b)
				cat := &types.Category{Name: "Udon"}
				id, err := tbl.Set("", cat)
				require.NoError(t, err)
				created := cat.CreatedAt

				_, err = tbl.Set(id, &types.Category{Name: "Soup"})
				assert.ErrorIs(t, err, types.ErrDuplicateName)

				renamed := &types.Category{Name: "Thick Udon"}
				_, err = tbl.Set(id, renamed)
				require.NoError(t, err)
				assert.True(t, created.Equal(renamed.CreatedAt))

				_, err = tbl.Set(id, &types.Category{Name: "Thick Udon"})
				assert.NoError(t, err, "renaming to its own name is fine")
			},
		},
		{
			name: "update of missing category returns ErrNotFound",
			check: func(t *testing.T, b *Backend) {
				_, err := categories(t, b).Set("missing", &types.Category{Name: "X"})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "fetch orders by name and filters",
			check: func(t *testing.T, b *Backend) {
				tbl := categories(t, b)
				all, err := tbl.Fetch(nil)
				require.NoError(t, err)
				var got []string
				for _, c := range all {
					got = append(got, c.(*types.Category).Name)
				}
				assert.Equal(t, []string{"Cup Noodles", "Ramen", "Soup", "Stir-Fry"}, got)

				one, err := tbl.Fetch(types.Filter{"name": "Soup"})
				require.NoError(t, err)
				require.Len(t, one, 1)

				_, err = tbl.Fetch(types.Filter{"name": 3})
				assert.ErrorIs(t, err, types.ErrInvalidFilter)
			},
		},
		{
			name: "delete clears categoryId on noodles",
			check: func(t *testing.T, b *Backend) {
				cat := &types.Category{Name: "Udon"}
				catID, err := categories(t, b).Set("", cat)
				require.NoError(t, err)

				n := newShin()
				n.CategoryID = catID
				noodleID, err := noodles(t, b).Set("", n)
				require.NoError(t, err)

				members, err := cat.Noodles(b)
				require.NoError(t, err)
				require.Len(t, members, 1)
				assert.Equal(t, noodleID, members[0].NoodleID)

				require.NoError(t, categories(t, b).Delete(catID))
				assert.Equal(t, "", getNoodle(t, noodles(t, b), noodleID).CategoryID)
				assert.ErrorIs(t, categories(t, b).Delete(catID), types.ErrNotFound)
			},
		},
		{
			name: "get with empty id returns ErrInvalidID",
			check: func(t *testing.T, b *Backend) {
				_, err := categories(t, b).Get("")
				assert.ErrorIs(t, err, types.ErrInvalidID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t))
		})
	}
}
