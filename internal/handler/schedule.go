package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/model"
    "github.com/iliyamo/conference-portal/internal/service"
)

// ScheduleHandler serves /schedules.
type ScheduleHandler struct {
    Scheduler           *service.Scheduler
    Log                 *logrus.Logger
    DefaultConferenceID uint64 // applied when a request omits conference_id
}

type createScheduleReq struct {
    ConferenceID       uint64 `json:"conference_id"`
    SpeakerID          uint64 `json:"speaker_id" validate:"required"`
    HallID             uint64 `json:"hall_id" validate:"required"`
    SlotID             uint64 `json:"slot_id" validate:"required"`
    SessionTitle       string `json:"session_title" validate:"required,max=255"`
    SessionDescription string `json:"session_description"`
}

type updateScheduleReq struct {
    SpeakerID          *uint64 `json:"speaker_id"`
    HallID             *uint64 `json:"hall_id"`
    SlotID             *uint64 `json:"slot_id"`
    SessionTitle       *string `json:"session_title" validate:"omitnil,max=255"`
    SessionDescription *string `json:"session_description"`
    Status             *string `json:"status" validate:"omitnil,oneof=scheduled cancelled"`
}

// List handles GET /schedules?conference_id=&hall_id=&day_number=&speaker_id=.
func (h *ScheduleHandler) List(c echo.Context) error {
    var (
        f   model.ScheduleFilter
        err error
    )
    if f.ConferenceID, err = queryUint(c, "conference_id", h.DefaultConferenceID); err != nil {
        return respondError(c, h.Log, err)
    }
    if f.HallID, err = queryUint(c, "hall_id", 0); err != nil {
        return respondError(c, h.Log, err)
    }
    if f.SpeakerID, err = queryUint(c, "speaker_id", 0); err != nil {
        return respondError(c, h.Log, err)
    }
    day, err := queryUint(c, "day_number", 0)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    f.DayNumber = int(day)

    out, err := h.Scheduler.ListSchedule(c.Request().Context(), f)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /schedules/:id.
func (h *ScheduleHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    v, err := h.Scheduler.GetSchedule(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, v)
}

// Create handles POST /schedules.
func (h *ScheduleHandler) Create(c echo.Context) error {
    var req createScheduleReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    if req.ConferenceID == 0 {
        req.ConferenceID = h.DefaultConferenceID
    }
    id, err := h.Scheduler.CreateSchedule(c.Request().Context(), service.CreateScheduleInput{
        ConferenceID:       req.ConferenceID,
        SpeakerID:          req.SpeakerID,
        HallID:             req.HallID,
        SlotID:             req.SlotID,
        SessionTitle:       req.SessionTitle,
        SessionDescription: req.SessionDescription,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"schedule_id": id})
}

// Update handles PUT /schedules/:id.  Omitted fields keep their value.
func (h *ScheduleHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req updateScheduleReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    v, err := h.Scheduler.UpdateSchedule(c.Request().Context(), id, service.SchedulePatch{
        SpeakerID:          req.SpeakerID,
        HallID:             req.HallID,
        SlotID:             req.SlotID,
        SessionTitle:       req.SessionTitle,
        SessionDescription: req.SessionDescription,
        Status:             req.Status,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /schedules/:id.
func (h *ScheduleHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Scheduler.DeleteSchedule(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "schedule deleted"})
}

// DeleteAll handles DELETE /schedules?conference_id=, the admin reset.
func (h *ScheduleHandler) DeleteAll(c echo.Context) error {
    confID, err := queryUint(c, "conference_id", 0)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    n, err := h.Scheduler.DeleteAllSchedules(c.Request().Context(), confID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
