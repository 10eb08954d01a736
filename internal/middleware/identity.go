package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
    ctxSubject = "subject"
    ctxRole    = "role"
)

// subject returns the authenticated subject, or "anon" for public callers.
func subject(c echo.Context) string {
    if s, ok := c.Get(ctxSubject).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Subject exposes the authenticated subject to handlers.
func Subject(c echo.Context) string {
    return subject(c)
}
