package postapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleList(c echo.Context) error {
	posts, err := a.Repo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGet(c echo.Context) error {
	id := c.Param("id")
	post, err := a.Repo.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if post == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleCreate(c echo.Context) error {
	var req CreateRequest
	if err := decodeJSON(c, &req, createKeys...); err != nil {
		return err
	}
	if err := validateCreate(req); err != nil {
		return err
	}
	post, err := a.Repo.InsertOne(c.Request().Context(), req.post())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/posts/"+post.ID)
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleUpdate(c echo.Context) error {
	id := c.Param("id")
	var req UpdateRequest
	if err := decodeJSON(c, &req, updateKeys...); err != nil {
		return err
	}
	if err := validateUpdate(id, req); err != nil {
		return err
	}
	if err := a.Repo.UpdateByID(c.Request().Context(), id, req.fields()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleDelete answers 204 whether or not the post existed.
func (a *App) handleDelete(c echo.Context) error {
	if err := a.Repo.DeleteByID(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
