package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// PlacesHandler returns the places inside a bounding box. With lat/lon the
// list is ordered by distance from that point; with zoom it is decluttered
// the way the map would draw it.
func PlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q placesQuery
		if err := bindQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}

		var (
			places []domain.Place
			err    error
		)
		if q.Lat != nil && q.Lon != nil {
			from := domain.GeoPoint{Lat: *q.Lat, Lon: *q.Lon}
			places, err = deps.Places.Nearby(c.UserContext(), q.box(), from, 0)
		} else {
			places, err = deps.Places.FetchPlacesInBounds(c.UserContext(), q.box())
		}
		if err != nil {
			return errDomain(c, err)
		}

		if q.Zoom != nil {
			places = domain.VisiblePlaces(places, *q.Zoom, deps.Visibility)
		}

		page, pg := paginate(places, q.Offset, q.Limit)
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=120")
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// RouteHandler returns a route between two points.
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q routeQuery
		if err := bindQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}

		mode, err := domain.ParseTransportMode(q.Mode)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		from := deps.Origin
		if q.FromLat != nil && q.FromLon != nil {
			from = domain.GeoPoint{Lat: *q.FromLat, Lon: *q.FromLon}
		}
		to := domain.GeoPoint{Lat: *q.ToLat, Lon: *q.ToLon}

		route := deps.Routes.FetchRoute(c.UserContext(), from, to, mode)
		if route == nil {
			return errRouteUnavailable(c)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{
			"mode":  mode,
			"from":  from,
			"to":    to,
			"route": route,
		})
	}
}

// RegisterHandler creates an account.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := bindBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		sess, err := deps.Auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// LoginHandler exchanges credentials for a session token.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := bindBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		sess, err := deps.Auth.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// ResetHandler accepts a password reset request. It answers the same way
// whether or not the account exists.
func ResetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetRequest
		if err := bindBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Auth.RequestReset(c.UserContext(), req.Email); err != nil {
			return errDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
	}
}

// GuestHandler signs in an anonymous user.
func GuestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Auth.Guest(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// MeHandler returns the claims of the bearer token.
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return errUnauthorized(c, "missing bearer token")
		}
		claims, err := deps.Auth.ParseToken(token)
		if err != nil {
			return errUnauthorized(c, "invalid token")
		}
		return c.JSON(fiber.Map{
			"user_id":    claims.Subject,
			"username":   claims.Username,
			"is_guest":   claims.Guest,
			"expires_at": claims.ExpiresAt.Time,
		})
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	const prefix = "Bearer "
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", false
	}
	return h[len(prefix):], true
}
