package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
// Field names follow the JSON names of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"description": &graphql.Field{Type: graphql.String},
			"image_url":   &graphql.Field{Type: graphql.String},
			"rating":      &graphql.Field{Type: graphql.Float},
			"subtitle":    &graphql.Field{Type: graphql.String},
			"distance":    &graphql.Field{Type: graphql.Float, Description: "Meters from the reference point, when one was given"},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"coordinates": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"distance":    &graphql.Field{Type: graphql.Float, Description: "Meters"},
			"duration":    &graphql.Field{Type: graphql.Float, Description: "Seconds"},
		},
	})

	boxArgs := graphql.FieldConfigArgument{
		"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"zoom":  &graphql.ArgumentConfig{Type: graphql.Float},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Points of interest inside a bounding box",
				Args:        boxArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					places, err := deps.Places.FetchPlacesInBounds(p.Context, boxFromArgs(p.Args))
					if err != nil {
						return nil, err
					}
					return applyZoom(places, p.Args, deps.Visibility), nil
				},
			},
			"nearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Points of interest inside a bounding box, closest to (lat, lon) first",
				Args: graphql.FieldConfigArgument{
					"south": boxArgs["south"],
					"west":  boxArgs["west"],
					"north": boxArgs["north"],
					"east":  boxArgs["east"],
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Places.Nearby(p.Context, boxFromArgs(p.Args), from, p.Args["limit"].(int))
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Route to a destination; null when none is available",
				Args: graphql.FieldConfigArgument{
					"toLat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"fromLat": &graphql.ArgumentConfig{Type: graphql.Float},
					"fromLon": &graphql.ArgumentConfig{Type: graphql.Float},
					"mode":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.DefaultMode)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode, err := domain.ParseTransportMode(p.Args["mode"].(string))
					if err != nil {
						return nil, err
					}
					from := deps.Origin
					if lat, ok := p.Args["fromLat"].(float64); ok {
						lon, ok := p.Args["fromLon"].(float64)
						if !ok {
							return nil, fmt.Errorf("fromLon is required with fromLat")
						}
						from = domain.GeoPoint{Lat: lat, Lon: lon}
					}
					to := domain.GeoPoint{Lat: p.Args["toLat"].(float64), Lon: p.Args["toLon"].(float64)}

					route := deps.Routes.FetchRoute(p.Context, from, to, mode)
					if route == nil {
						return nil, nil
					}
					return route, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func boxFromArgs(args map[string]interface{}) domain.BoundingBox {
	return domain.BoundingBox{
		South: args["south"].(float64),
		West:  args["west"].(float64),
		North: args["north"].(float64),
		East:  args["east"].(float64),
	}
}

func applyZoom(places []domain.Place, args map[string]interface{}, policy domain.VisibilityPolicy) []domain.Place {
	if zoom, ok := args["zoom"].(float64); ok {
		return domain.VisiblePlaces(places, zoom, policy)
	}
	return places
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
