package handler

import (
    "crypto/subtle"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/utils"
)

// RoleAdmin is the role claim required by the admin routes.
const RoleAdmin = "ADMIN"

// AuthHandler issues admin access tokens.
type AuthHandler struct {
    Username     string
    PasswordHash string // bcrypt; empty disables admin login
    Secret       string
    TTLMin       int
    Log          *logrus.Logger
}

type loginReq struct {
    Username string `json:"username" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type tokenResp struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// Login handles POST /admin/login.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Username)) == 1
    if h.PasswordHash == "" || !userOK || !utils.VerifyPassword(h.PasswordHash, req.Password) {
        h.Log.WithField("username", req.Username).Warn("admin login rejected")
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    tok, err := utils.NewAccessToken(h.Secret, h.Username, RoleAdmin, h.TTLMin)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp})
}
