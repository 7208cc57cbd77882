package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// ReviewResponse is returned by POST /noodles/:id/reviews.
type ReviewResponse struct {
	NoodleID       string     `json:"noodleId"`
	ReviewsCount   int64      `json:"reviewsCount"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
}

// ListNoodles returns the noodles matching the query parameters
// spicinessLevel, originCountry, categoryId, favourites, limit and offset.
func (c *Controller) ListNoodles(ctx echo.Context) error {
	filter, err := noodleFilter(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Invalid query parameter")
	}
	tbl, err := c.pantry.GetTable(types.TableNoodles)
	if err != nil {
		return c.handleStoreError(ctx, err, "Noodles unavailable")
	}
	results, err := tbl.Fetch(filter)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list noodles")
	}
	return ctx.JSON(http.StatusOK, results)
}

// GetNoodle returns one noodle.
func (c *Controller) GetNoodle(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableNoodles)
	if err != nil {
		return c.handleStoreError(ctx, err, "Noodles unavailable")
	}
	n, err := types.GetNoodle(tbl, ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to get noodle")
	}
	return ctx.JSON(http.StatusOK, n)
}

// CreateNoodle adds a noodle from the JSON body and returns it with 201.
func (c *Controller) CreateNoodle(ctx echo.Context) error {
	var n types.Noodle
	if err := ctx.Bind(&n); err != nil {
		return c.handleStoreError(ctx, fmt.Errorf("%w: %v", types.ErrInvalidData, err), "Invalid noodle body")
	}
	n.NoodleID = ""

	tbl, err := c.pantry.GetTable(types.TableNoodles)
	if err != nil {
		return c.handleStoreError(ctx, err, "Noodles unavailable")
	}
	id, err := tbl.Set("", &n)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to create noodle")
	}
	created, err := types.GetNoodle(tbl, id)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to read created noodle")
	}
	return ctx.JSON(http.StatusCreated, created)
}

// UpdateNoodle applies a partial update from the JSON body. A body that
// lowers reviewsCount is rejected with 400 and the noodle is unchanged.
func (c *Controller) UpdateNoodle(ctx echo.Context) error {
	var patch types.NoodlePatch
	if err := ctx.Bind(&patch); err != nil {
		return c.handleStoreError(ctx, fmt.Errorf("%w: %v", types.ErrInvalidData, err), "Invalid noodle body")
	}
	if patch.Empty() {
		return c.handleStoreError(ctx, types.ErrInvalidData, "No fields to update")
	}

	id := ctx.Param("id")
	tbl, err := c.pantry.GetTable(types.TableNoodles)
	if err != nil {
		return c.handleStoreError(ctx, err, "Noodles unavailable")
	}
	if _, err := tbl.Set(id, &patch); err != nil {
		return c.handleStoreError(ctx, err, "Failed to update noodle")
	}
	updated, err := types.GetNoodle(tbl, id)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to read updated noodle")
	}
	return ctx.JSON(http.StatusOK, updated)
}

// DeleteNoodle removes a noodle and its favourite mark.
func (c *Controller) DeleteNoodle(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableNoodles)
	if err != nil {
		return c.handleStoreError(ctx, err, "Noodles unavailable")
	}
	if err := tbl.Delete(ctx.Param("id")); err != nil {
		return c.handleStoreError(ctx, err, "Failed to delete noodle")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// LeaveReview increments the noodle's review count by one.
func (c *Controller) LeaveReview(ctx echo.Context) error {
	n, err := types.LeaveReview(c.pantry, ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to leave review")
	}
	return ctx.JSON(http.StatusOK, ReviewResponse{
		NoodleID:       n.NoodleID,
		ReviewsCount:   n.ReviewsCount,
		LastReviewedAt: n.LastReviewedAt,
	})
}

// noodleFilter converts query parameters to a noodles table filter.
func noodleFilter(ctx echo.Context) (types.Filter, error) {
	filter := types.Filter{}
	intParams := []struct{ param, key string }{
		{"spicinessLevel", "spiciness_level"},
		{"limit", "limit"},
		{"offset", "offset"},
	}
	for _, p := range intParams {
		raw := ctx.QueryParam(p.param)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", types.ErrInvalidFilter, p.param)
		}
		filter[p.key] = v
	}
	if v := ctx.QueryParam("originCountry"); v != "" {
		filter["origin_country"] = v
	}
	if v := ctx.QueryParam("categoryId"); v != "" {
		filter["category_id"] = v
	}
	if raw := ctx.QueryParam("favourites"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: favourites must be a boolean", types.ErrInvalidFilter)
		}
		filter["favourites"] = v
	}
	return filter, nil
}
