package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

var validate = newValidator()

// newValidator reports fields by their query or JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// placesQuery is the query string of GET /v1/places.
type placesQuery struct {
	South  *float64 `query:"south" validate:"required,gte=-90,lte=90"`
	West   *float64 `query:"west" validate:"required,gte=-180,lte=180"`
	North  *float64 `query:"north" validate:"required,gte=-90,lte=90"`
	East   *float64 `query:"east" validate:"required,gte=-180,lte=180"`
	Lat    *float64 `query:"lat" validate:"required_with=Lon,omitempty,gte=-90,lte=90"`
	Lon    *float64 `query:"lon" validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Zoom   *float64 `query:"zoom" validate:"omitempty,gte=0,lte=22"`
	Offset int      `query:"offset" validate:"gte=0"`
	Limit  int      `query:"limit" validate:"gte=0,lte=500"`
}

func (q placesQuery) box() domain.BoundingBox {
	return domain.BoundingBox{South: *q.South, West: *q.West, North: *q.North, East: *q.East}
}

// routeQuery is the query string of GET /v1/route. A missing origin means
// the configured default location.
type routeQuery struct {
	FromLat *float64 `query:"from_lat" validate:"required_with=FromLon,omitempty,gte=-90,lte=90"`
	FromLon *float64 `query:"from_lon" validate:"required_with=FromLat,omitempty,gte=-180,lte=180"`
	ToLat   *float64 `query:"to_lat" validate:"required,gte=-90,lte=90"`
	ToLon   *float64 `query:"to_lon" validate:"required,gte=-180,lte=180"`
	Mode    string   `query:"mode" validate:"omitempty,oneof=driving walking cycling"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// bindQuery parses and validates the query string into dst.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return validationError(validate.Struct(dst))
}

// bindBody parses and validates a JSON body into dst.
func bindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errors.New("invalid request body")
	}
	return validationError(validate.Struct(dst))
}

// validationError flattens validator output into one readable message.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_with":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
