package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/deescovery/deescovery/pkg/webapp/router"
)

type pingController struct{}

func (pingController) Register(r *router.Router) {
	api := r.Group("api")

	api.GET("/ping", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, ctx.Response().Header().Get("X-Api"))
	})
	api.POST("/ping", func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusCreated)
	})
	r.GET("/apiary", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, ctx.Response().Header().Get("X-Api"))
	})
}

func TestRouterGroupsAndMiddleware(t *testing.T) {
	t.Parallel()

	root := router.New()
	root.Register(pingController{})

	api := root.Group("api")
	assert.Equal(t, "/api", api.Prefix())

	api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Response().Header().Set("X-Api", "yes")
			return next(ctx)
		}
	})

	assert.Equal(t, []string{"GET /api/ping", "POST /api/ping"}, api.Routes())
	assert.Equal(t, []string{"GET /api/ping", "GET /apiary", "POST /api/ping"}, root.Routes())

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yes", rec.Body.String())

	// a sibling path sharing the prefix text is not below the group
	rec = httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apiary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ping", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
