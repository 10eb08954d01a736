package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

type speakerLoginReq struct {
    SpeakerCode string `json:"speakerCode" form:"speakerCode" validate:"required"`
}

// SpeakerLogin handles POST /speaker/login.  A speaker "logs in" with the
// code the organisers gave them and gets their profile and sessions back.
func (h *CatalogHandler) SpeakerLogin(c echo.Context) error {
    var req speakerLoginReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    sess, err := h.Catalog.SpeakerLogin(c.Request().Context(), req.SpeakerCode)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sess)
}

// SpeakerProfile handles GET /speakers/:code/profile.
func (h *CatalogHandler) SpeakerProfile(c echo.Context) error {
    sp, err := h.Catalog.GetSpeakerByCode(c.Request().Context(), c.Param("code"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// SpeakerFiles handles GET /speakers/:code/files, newest first.
func (h *CatalogHandler) SpeakerFiles(c echo.Context) error {
    files, err := h.Catalog.SpeakerFiles(c.Request().Context(), c.Param("code"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, files)
}
