package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func respondCreated(c echo.Context, body interface{}) error {
	return c.JSON(http.StatusCreated, body)
}

func respondOK(c echo.Context, body interface{}) error {
	return c.JSON(http.StatusOK, body)
}
