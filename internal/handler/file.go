package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/model"
    "github.com/iliyamo/conference-portal/internal/service"
)

// FileHandler serves the admin /files endpoints.
type FileHandler struct {
    Lifecycle *service.FileLifecycle
    Log       *logrus.Logger
}

// List handles GET /files?status=&orphaned=&speaker_code=.
func (h *FileHandler) List(c echo.Context) error {
    f := model.FileFilter{Status: c.QueryParam("status"), SpeakerCode: c.QueryParam("speaker_code")}
    if raw := c.QueryParam("orphaned"); raw != "" {
        b, err := strconv.ParseBool(raw)
        if err != nil {
            return respondError(c, h.Log, &service.ValidationError{Field: "orphaned", Msg: "must be true or false"})
        }
        f.Orphaned = b
    }
    out, err := h.Lifecycle.ListFiles(c.Request().Context(), f)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /files/:id.
func (h *FileHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Lifecycle.DeleteFile(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "file deleted"})
}

// Retry handles POST /files/:id/retry.
func (h *FileHandler) Retry(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Lifecycle.RetryFile(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{"message": "file queued for processing"})
}

// Process handles POST /files/process: one synchronous run.
func (h *FileHandler) Process(c echo.Context) error {
    sum, err := h.Lifecycle.ProcessPending(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sum)
}
