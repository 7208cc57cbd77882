package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// ListFavourites returns the favourite marks, newest first.
func (c *Controller) ListFavourites(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableFavourites)
	if err != nil {
		return c.handleStoreError(ctx, err, "Favourites unavailable")
	}
	results, err := tbl.Fetch(nil)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list favourites")
	}
	return ctx.JSON(http.StatusOK, results)
}

// AddFavourite marks a noodle as a favourite. Marking it twice is not an
// error.
func (c *Controller) AddFavourite(ctx echo.Context) error {
	id := ctx.Param("id")
	tbl, err := c.pantry.GetTable(types.TableFavourites)
	if err != nil {
		return c.handleStoreError(ctx, err, "Favourites unavailable")
	}
	if _, err := tbl.Set(id, &types.Favourite{NoodleID: id}); err != nil {
		return c.handleStoreError(ctx, err, "Failed to add favourite")
	}
	fav, err := tbl.Get(id)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to read favourite")
	}
	return ctx.JSON(http.StatusOK, fav)
}

// RemoveFavourite clears a noodle's favourite mark.
func (c *Controller) RemoveFavourite(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableFavourites)
	if err != nil {
		return c.handleStoreError(ctx, err, "Favourites unavailable")
	}
	if err := tbl.Delete(ctx.Param("id")); err != nil {
		return c.handleStoreError(ctx, err, "Failed to remove favourite")
	}
	return ctx.NoContent(http.StatusNoContent)
}
