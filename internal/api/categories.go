package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// CategoryRequest is the body of category create and update requests.
type CategoryRequest struct {
	Name string `json:"name"`
}

// ListCategories returns all categories ordered by name. The name query
// parameter narrows the result to an exact match.
func (c *Controller) ListCategories(ctx echo.Context) error {
	filter := types.Filter{}
	if name := ctx.QueryParam("name"); name != "" {
		filter["name"] = name
	}
	tbl, err := c.pantry.GetTable(types.TableCategories)
	if err != nil {
		return c.handleStoreError(ctx, err, "Categories unavailable")
	}
	results, err := tbl.Fetch(filter)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list categories")
	}
	return ctx.JSON(http.StatusOK, results)
}

// GetCategory returns one category with its noodles.
func (c *Controller) GetCategory(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableCategories)
	if err != nil {
		return c.handleStoreError(ctx, err, "Categories unavailable")
	}
	v, err := tbl.Get(ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to get category")
	}
	cat, ok := v.(*types.Category)
	if !ok {
		return c.handleStoreError(ctx, types.ErrInvalidData, "Failed to get category")
	}
	noodles, err := cat.Noodles(c.pantry)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list category noodles")
	}
	return ctx.JSON(http.StatusOK, struct {
		*types.Category
		Noodles []*types.Noodle `json:"noodles"`
	}{cat, noodles})
}

// CreateCategory adds a category and returns it with 201.
func (c *Controller) CreateCategory(ctx echo.Context) error {
	return c.saveCategory(ctx, "", http.StatusCreated)
}

// UpdateCategory renames a category.
func (c *Controller) UpdateCategory(ctx echo.Context) error {
	return c.saveCategory(ctx, ctx.Param("id"), http.StatusOK)
}

func (c *Controller) saveCategory(ctx echo.Context, id string, status int) error {
	var req CategoryRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleStoreError(ctx, fmt.Errorf("%w: %v", types.ErrInvalidData, err), "Invalid category body")
	}
	tbl, err := c.pantry.GetTable(types.TableCategories)
	if err != nil {
		return c.handleStoreError(ctx, err, "Categories unavailable")
	}
	id, err = tbl.Set(id, &types.Category{Name: req.Name})
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to save category")
	}
	saved, err := tbl.Get(id)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to read saved category")
	}
	return ctx.JSON(status, saved)
}

// DeleteCategory removes a category. Its noodles become uncategorised.
func (c *Controller) DeleteCategory(ctx echo.Context) error {
	tbl, err := c.pantry.GetTable(types.TableCategories)
	if err != nil {
		return c.handleStoreError(ctx, err, "Categories unavailable")
	}
	if err := tbl.Delete(ctx.Param("id")); err != nil {
		return c.handleStoreError(ctx, err, "Failed to delete category")
	}
	return ctx.NoContent(http.StatusNoContent)
}
