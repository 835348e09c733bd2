// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/event-window-booking/internal/handler"
	"github.com/iliyamo/event-window-booking/internal/middleware"
	"github.com/iliyamo/event-window-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the auth endpoints.  Register, login, refresh
// and logout need no session; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterAPI registers the event and booking endpoints.  Everything
// requires a valid access token; event management additionally
// requires the ADMIN role.  Bookings are open to any authenticated
// user.
func RegisterAPI(e *echo.Echo, ev *handler.EventHandler, bk *handler.BookingHandler, jwtSecret string) {
	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))

	admin := middleware.RequireRole(model.RoleAdmin)

	// event catalog
	api.POST("/events", ev.Create, admin)
	api.PATCH("/events/:id", ev.Update, admin)
	api.DELETE("/events/:id", ev.Delete, admin)
	api.GET("/events", ev.List)
	api.GET("/events/:id", ev.Get)
	api.POST("/events/:id/windows", ev.AddWindow, admin)
	api.GET("/events/:id/windows", ev.ListWindows)
	api.GET("/events/:id/bookings", ev.ListBookings, admin)

	// bookings
	api.POST("/bookings", bk.Create)
	api.GET("/bookings", bk.List)
	api.GET("/bookings/:id", bk.Get)
	api.DELETE("/bookings/:id", bk.Cancel)
}
