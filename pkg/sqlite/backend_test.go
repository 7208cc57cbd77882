package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestNewBackend(t *testing.T) {
	p := sqlite.NewBackend(sqlite.WithLogger(zap.NewNop()))
	require.NoError(t, p.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer p.Detach()

	tbl, err := p.GetTable(types.TableNoodles)
	require.NoError(t, err)
	id, err := tbl.Set("", &types.Noodle{Name: "Indomie Mi Goreng", Brand: "Indofood", OriginCountry: types.CountryIndonesia})
	require.NoError(t, err)

	n, err := types.LeaveReview(p, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.ReviewsCount)
	assert.NotNil(t, n.LastReviewedAt)
}
