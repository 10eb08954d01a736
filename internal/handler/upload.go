package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/service"
)

// UploadHandler serves POST /uploads/presentation.
type UploadHandler struct {
    Uploads *service.UploadResolver
    Log     *logrus.Logger
}

// Presentation accepts a multipart upload with the file under "file" or
// "presentation" and the fields speakerCode, hallName, dayNumber,
// sessionTitle and optionally scheduleId.
func (h *UploadHandler) Presentation(c echo.Context) error {
    fh, err := c.FormFile("file")
    if errors.Is(err, http.ErrMissingFile) {
        fh, err = c.FormFile("presentation")
    }
    if err != nil {
        return respondError(c, h.Log, &service.ValidationError{Field: "file", Msg: "a .ppt or .pptx file is required"})
    }

    day, err := optionalInt(c.FormValue("dayNumber"))
    if err != nil {
        return respondError(c, h.Log, &service.ValidationError{Field: "dayNumber", Msg: "must be a number"})
    }
    scheduleID, err := optionalInt(c.FormValue("scheduleId"))
    if err != nil || scheduleID < 0 {
        return respondError(c, h.Log, &service.ValidationError{Field: "scheduleId", Msg: "must be a positive number"})
    }

    src, err := fh.Open()
    if err != nil {
        return respondError(c, h.Log, err)
    }
    defer src.Close()

    f, err := h.Uploads.Upload(c.Request().Context(), service.UploadInput{
        SpeakerCode:  c.FormValue("speakerCode"),
        HallName:     c.FormValue("hallName"),
        DayNumber:    day,
        SessionTitle: c.FormValue("sessionTitle"),
        ScheduleID:   uint64(scheduleID),
        Filename:     fh.Filename,
        Size:         fh.Size,
        Body:         src,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "presentation uploaded",
        "file":    f,
    })
}

func optionalInt(s string) (int, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return 0, nil
    }
    return strconv.Atoi(s)
}
