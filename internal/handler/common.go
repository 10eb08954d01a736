// Package handler exposes the portal's HTTP endpoints.  Handlers bind and
// validate input, call the service layer and translate its typed errors
// into status codes through respondError.
package handler

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/service"
)

// CustomValidator adapts validator/v10 to echo's Validator interface.
type CustomValidator struct {
    v *validator.Validate
}

// NewValidator returns the validator registered on the echo instance.
func NewValidator() *CustomValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    // report json/form names instead of Go field names
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        for _, tag := range []string{"json", "form"} {
            if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
                return name
            }
        }
        return f.Name
    })
    return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

// bind decodes the request into dst and validates it.
func bind(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return &service.ValidationError{Msg: "invalid request body"}
    }
    if err := c.Validate(dst); err != nil {
        var ve validator.ValidationErrors
        if errors.As(err, &ve) && len(ve) > 0 {
            fe := ve[0]
            return &service.ValidationError{Field: fe.Field(), Msg: describeTag(fe)}
        }
        return &service.ValidationError{Msg: err.Error()}
    }
    return nil
}

func describeTag(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "is required"
    case "min", "gte":
        return "must be at least " + fe.Param()
    case "max", "lte":
        return "must be at most " + fe.Param()
    case "oneof":
        return "must be one of " + fe.Param()
    case "email":
        return "must be a valid email"
    }
    return "is invalid"
}

// respondError maps service errors to status codes.  Anything unexpected
// is logged and answered with a bare 500.
func respondError(c echo.Context, log *logrus.Logger, err error) error {
    var (
        nf *service.NotFoundError
        ce *service.ConflictError
        ve *service.ValidationError
        he *echo.HTTPError
    )
    switch {
    case errors.As(err, &nf):
        return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
    case errors.As(err, &ce):
        return c.JSON(http.StatusConflict, echo.Map{"error": ce.Error()})
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
    case errors.As(err, &he) && he.Code < http.StatusInternalServerError:
        return c.JSON(he.Code, echo.Map{"error": fmt.Sprint(he.Message)})
    }
    log.WithError(err).WithFields(logrus.Fields{
        "method": c.Request().Method,
        "route":  c.Path(),
    }).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, &service.ValidationError{Field: name, Msg: "must be a positive integer"}
    }
    return id, nil
}

// queryUint parses an optional numeric query parameter; def when absent.
func queryUint(c echo.Context, name string, def uint64) (uint64, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return def, nil
    }
    n, err := strconv.ParseUint(raw, 10, 64)
    if err != nil {
        return 0, &service.ValidationError{Field: name, Msg: "must be a non-negative integer"}
    }
    return n, nil
}
