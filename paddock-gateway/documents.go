package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taldoflemis/cassa/repository"
)

// documentLimit bounds one saved entity document.
const documentLimit = 64 << 10

// documents serves one repository bucket. Bodies and answers are the
// entity's JSON document, so a GET returns exactly what a PUT accepts.
type documents[T any] struct {
	bucket *repository.Bucket[T]
}

func registerDocuments[T any](g *echo.Group, path string, bucket *repository.Bucket[T]) {
	d := documents[T]{bucket: bucket}
	g.GET(path, d.list)
	g.PUT(path+"/:name", d.put)
	g.GET(path+"/:name", d.get)
	g.DELETE(path+"/:name", d.delete)
}

func (d documents[T]) put(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, documentLimit))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read document", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	v, err := d.bucket.Unmarshal(body)
	if err != nil {
		return respondError(c, err)
	}
	if err := d.bucket.Save(ctx, name, v); err != nil {
		return respondError(c, err)
	}

	slog.InfoContext(ctx, "saved document", slog.String("bucket", d.bucket.Name()), slog.String("name", name))
	return c.NoContent(http.StatusNoContent)
}

func (d documents[T]) get(c echo.Context) error {
	v, err := d.bucket.Load(c.Request().Context(), c.Param("name"))
	if err != nil {
		return respondError(c, err)
	}
	data, err := d.bucket.Marshal(v)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (d documents[T]) list(c echo.Context) error {
	names, err := d.bucket.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Names: names})
}

func (d documents[T]) delete(c echo.Context) error {
	if err := d.bucket.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
