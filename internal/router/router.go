// Package router wires handlers and middleware into the echo route table.
package router

import (
    "fmt"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/iliyamo/conference-portal/internal/handler"
    "github.com/iliyamo/conference-portal/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
    Schedules *handler.ScheduleHandler
    Catalog   *handler.CatalogHandler
    Uploads   *handler.UploadHandler
    Files     *handler.FileHandler
    Auth      *handler.AuthHandler
    Ready     echo.HandlerFunc

    JWTSecret      string
    UploadMaxBytes int64
    Cache          echo.MiddlewareFunc // response cache for schedule reads
    RateLimit      echo.MiddlewareFunc // token bucket for logins
    UploadLimit    echo.MiddlewareFunc // token bucket for uploads
}

// RegisterRoutes registers health and metrics endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers) {
    e.GET("/healthz", handler.Health)
    if h.Ready != nil {
        e.GET("/readyz", h.Ready)
    }
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the unauthenticated read and speaker endpoints.
func RegisterPublic(e *echo.Echo, h Handlers) {
    cache := orPass(h.Cache)
    limit := orPass(h.RateLimit)

    e.GET("/conferences", h.Catalog.ListConferences)
    e.GET("/conferences/:id", h.Catalog.GetConference)
    e.GET("/halls", h.Catalog.ListHalls)
    e.GET("/speakers", h.Catalog.ListSpeakers)
    e.GET("/timeslots", h.Catalog.ListTimeSlots)

    e.GET("/schedules", h.Schedules.List, cache)
    e.GET("/schedules/:id", h.Schedules.Get, cache)

    e.POST("/speaker/login", h.Catalog.SpeakerLogin, limit)
    e.GET("/speakers/:code/profile", h.Catalog.SpeakerProfile)
    e.GET("/speakers/:code/files", h.Catalog.SpeakerFiles)

    // multipart overhead on top of the file limit
    bodyLimit := echomw.BodyLimit(fmt.Sprintf("%dB", h.UploadMaxBytes+1<<20))
    // body limit first: the upload bucket may parse the form for the speaker code
    e.POST("/uploads/presentation", h.Uploads.Presentation, bodyLimit, orPass(h.UploadLimit))
}

// RegisterAuth registers the admin login endpoint.
func RegisterAuth(e *echo.Echo, h Handlers) {
    e.POST("/admin/login", h.Auth.Login, orPass(h.RateLimit))
}

// RegisterAdmin registers the write endpoints.  Every route requires a
// valid JWT with the ADMIN role.  Middleware is attached per route so
// unauthenticated 404s stay 404s.
func RegisterAdmin(e *echo.Echo, h Handlers) {
    admin := []echo.MiddlewareFunc{
        middleware.JWTAuth(h.JWTSecret),
        middleware.RequireRole(handler.RoleAdmin),
    }

    // ---- Schedule ----
    e.POST("/schedules", h.Schedules.Create, admin...)
    e.PUT("/schedules/:id", h.Schedules.Update, admin...)
    e.DELETE("/schedules/:id", h.Schedules.Delete, admin...)
    e.DELETE("/schedules", h.Schedules.DeleteAll, admin...)

    // ---- Catalog ----
    e.POST("/conferences", h.Catalog.CreateConference, admin...)
    e.POST("/halls", h.Catalog.CreateHall, admin...)
    e.PUT("/halls/:id", h.Catalog.UpdateHall, admin...)
    e.DELETE("/halls/:id", h.Catalog.DeleteHall, admin...)
    e.POST("/speakers", h.Catalog.CreateSpeaker, admin...)
    e.DELETE("/speakers/:id", h.Catalog.DeleteSpeaker, admin...)
    e.DELETE("/speakers", h.Catalog.DeleteAllSpeakers, admin...)
    e.POST("/timeslots", h.Catalog.CreateTimeSlot, admin...)
    e.DELETE("/timeslots/:id", h.Catalog.DeleteTimeSlot, admin...)

    // ---- Files ----
    e.GET("/files", h.Files.List, admin...)
    e.DELETE("/files/:id", h.Files.Delete, admin...)
    e.POST("/files/:id/retry", h.Files.Retry, admin...)
    e.POST("/files/process", h.Files.Process, admin...)
}

// Register installs the full route table.
func Register(e *echo.Echo, h Handlers) {
    RegisterRoutes(e, h)
    RegisterPublic(e, h)
    RegisterAuth(e, h)
    RegisterAdmin(e, h)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
    if m != nil {
        return m
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
