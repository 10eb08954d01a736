package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/service"
)

// CatalogHandler serves conferences, halls, speakers and time slots, plus
// the speaker self-service endpoints.
type CatalogHandler struct {
    Catalog             *service.Catalog
    Log                 *logrus.Logger
    DefaultConferenceID uint64
}

type createConferenceReq struct {
    Name      string `json:"name" validate:"required,max=255"`
    StartDate string `json:"start_date"`
    EndDate   string `json:"end_date"`
    TotalDays int    `json:"total_days" validate:"gte=0"`
}

type hallReq struct {
    ConferenceID uint64 `json:"conference_id"`
    Name         string `json:"hall_name" validate:"required,max=100"`
    Capacity     int    `json:"capacity" validate:"gte=0"`
    Location     string `json:"location" validate:"max=255"`
}

type updateHallReq struct {
    Name     *string `json:"hall_name" validate:"omitnil,max=100"`
    Capacity *int    `json:"capacity" validate:"omitnil,gte=0"`
    Location *string `json:"location" validate:"omitnil,max=255"`
}

type speakerReq struct {
    FullName string `json:"full_name" validate:"required,max=255"`
    Email    string `json:"email" validate:"omitempty,email"`
    Phone    string `json:"phone" validate:"max=50"`
    Title    string `json:"title" validate:"max=255"`
    Bio      string `json:"bio"`
}

type timeSlotReq struct {
    ConferenceID uint64 `json:"conference_id"`
    DayNumber    int    `json:"day_number" validate:"required,gte=1"`
    StartTime    string `json:"start_time" validate:"required"`
    EndTime      string `json:"end_time" validate:"required"`
    SlotName     string `json:"slot_name" validate:"max=100"`
}

// ListConferences handles GET /conferences.
func (h *CatalogHandler) ListConferences(c echo.Context) error {
    out, err := h.Catalog.ListConferences(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// GetConference handles GET /conferences/:id.
func (h *CatalogHandler) GetConference(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    conf, err := h.Catalog.GetConference(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, conf)
}

// CreateConference handles POST /conferences.
func (h *CatalogHandler) CreateConference(c echo.Context) error {
    var req createConferenceReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    conf, err := h.Catalog.CreateConference(c.Request().Context(), service.ConferenceInput{
        Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate, TotalDays: req.TotalDays,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, conf)
}

// ListHalls handles GET /halls?conference_id=.
func (h *CatalogHandler) ListHalls(c echo.Context) error {
    confID, err := queryUint(c, "conference_id", h.DefaultConferenceID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out, err := h.Catalog.ListHalls(c.Request().Context(), confID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// CreateHall handles POST /halls.
func (h *CatalogHandler) CreateHall(c echo.Context) error {
    var req hallReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    if req.ConferenceID == 0 {
        req.ConferenceID = h.DefaultConferenceID
    }
    hall, err := h.Catalog.CreateHall(c.Request().Context(), service.HallInput{
        ConferenceID: req.ConferenceID, Name: req.Name, Capacity: req.Capacity, Location: req.Location,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, hall)
}

// UpdateHall handles PUT /halls/:id.
func (h *CatalogHandler) UpdateHall(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req updateHallReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    hall, err := h.Catalog.UpdateHall(c.Request().Context(), id, service.HallPatch{
        Name: req.Name, Capacity: req.Capacity, Location: req.Location,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, hall)
}

// DeleteHall handles DELETE /halls/:id.
func (h *CatalogHandler) DeleteHall(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Catalog.DeleteHall(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "hall deleted"})
}

// ListSpeakers handles GET /speakers.
func (h *CatalogHandler) ListSpeakers(c echo.Context) error {
    out, err := h.Catalog.ListSpeakers(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// CreateSpeaker handles POST /speakers.  The speaker code is assigned by
// the server.
func (h *CatalogHandler) CreateSpeaker(c echo.Context) error {
    var req speakerReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    sp, err := h.Catalog.CreateSpeaker(c.Request().Context(), service.SpeakerInput{
        FullName: req.FullName, Email: req.Email, Phone: req.Phone, Title: req.Title, Bio: req.Bio,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, sp)
}

// DeleteSpeaker handles DELETE /speakers/:id.
func (h *CatalogHandler) DeleteSpeaker(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Catalog.DeleteSpeaker(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "speaker deleted"})
}

// DeleteAllSpeakers handles DELETE /speakers.
func (h *CatalogHandler) DeleteAllSpeakers(c echo.Context) error {
    n, err := h.Catalog.DeleteAllSpeakers(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// ListTimeSlots handles GET /timeslots?conference_id=.
func (h *CatalogHandler) ListTimeSlots(c echo.Context) error {
    confID, err := queryUint(c, "conference_id", h.DefaultConferenceID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out, err := h.Catalog.ListTimeSlots(c.Request().Context(), confID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// CreateTimeSlot handles POST /timeslots.
func (h *CatalogHandler) CreateTimeSlot(c echo.Context) error {
    var req timeSlotReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    if req.ConferenceID == 0 {
        req.ConferenceID = h.DefaultConferenceID
    }
    slot, err := h.Catalog.CreateTimeSlot(c.Request().Context(), service.TimeSlotInput{
        ConferenceID: req.ConferenceID, DayNumber: req.DayNumber, StartTime: req.StartTime, EndTime: req.EndTime, SlotName: req.SlotName,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, slot)
}

// DeleteTimeSlot handles DELETE /timeslots/:id.
func (h *CatalogHandler) DeleteTimeSlot(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if err := h.Catalog.DeleteTimeSlot(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "time slot deleted"})
}
