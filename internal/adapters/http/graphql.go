package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/geospatial"
)

type gqlSessionKey struct{}

func sessionFrom(ctx context.Context) (*domain.Session, error) {
	sess, _ := ctx.Value(gqlSessionKey{}).(*domain.Session)
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}

// routeGeometry is the answer to the routeGeometry query.
type routeGeometry struct {
	Points       int            `json:"points"`
	LengthMeters float64        `json:"length_meters"`
	Bounds       *domain.Bounds `json:"bounds"`
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"longitude": &graphql.Field{Type: graphql.Float},
			"latitude":  &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lng": &graphql.Field{Type: graphql.Float},
			"min_lat": &graphql.Field{Type: graphql.Float},
			"max_lng": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
		},
	})

	vehicleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vehicle",
		Fields: graphql.Fields{
			"type":        &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.Float},
			"icon":        &graphql.Field{Type: graphql.String},
		},
	})

	packageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PackageType",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"label": &graphql.Field{Type: graphql.String},
			"icon":  &graphql.Field{Type: graphql.String},
		},
	})

	deliveryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Delivery",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"tracking_id":  &graphql.Field{Type: graphql.String},
			"vehicle_type": &graphql.Field{Type: graphql.String},
			"origin":       &graphql.Field{Type: graphql.String},
			"destination":  &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"amount":       &graphql.Field{Type: graphql.Float},
			"date":         &graphql.Field{Type: graphql.DateTime},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"address":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	trackingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tracking",
		Fields: graphql.Fields{
			"tracking_id": &graphql.Field{Type: graphql.String},
			"rider": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "Rider",
				Fields: graphql.Fields{
					"name":     &graphql.Field{Type: graphql.String},
					"phone":    &graphql.Field{Type: graphql.String},
					"location": &graphql.Field{Type: coordinateType},
				},
			})},
			"pickup":           &graphql.Field{Type: placeType},
			"destination":      &graphql.Field{Type: placeType},
			"active_step":      &graphql.Field{Type: graphql.Int},
			"remaining_meters": &graphql.Field{Type: graphql.Float},
			"eta_minutes":      &graphql.Field{Type: graphql.Int},
			"encoded_route":    &graphql.Field{Type: graphql.String},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"full_name":    &graphql.Field{Type: graphql.String},
			"email":        &graphql.Field{Type: graphql.String},
			"phone_number": &graphql.Field{Type: graphql.String},
			"address":      &graphql.Field{Type: graphql.String},
		},
	})

	routeGeometryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteGeometry",
		Fields: graphql.Fields{
			"points":        &graphql.Field{Type: graphql.Int},
			"length_meters": &graphql.Field{Type: graphql.Float},
			"bounds":        &graphql.Field{Type: boundsType, Description: "Null when the route cannot be framed"},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"vehicles": &graphql.Field{
				Type:        graphql.NewList(vehicleType),
				Description: "Bookable vehicle classes",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Bookings.Vehicles(), nil
				},
			},
			"vehicle": &graphql.Field{
				Type: vehicleType,
				Args: graphql.FieldConfigArgument{
					"type": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return domain.LookupVehicle(p.Args["type"].(string))
				},
			},
			"packageTypes": &graphql.Field{
				Type: graphql.NewList(packageType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Bookings.PackageTypes(), nil
				},
			},
			"deliveries": &graphql.Field{
				Type:        graphql.NewList(deliveryType),
				Description: "Delivery history, or one shipments tab (active, completed)",
				Args: graphql.FieldConfigArgument{
					"tab":   &graphql.ArgumentConfig{Type: graphql.String},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFrom(p.Context)
					if err != nil {
						return nil, err
					}
					if tab, ok := p.Args["tab"].(string); ok && tab != "" {
						list, err := deps.Deliveries.Shipments(p.Context, sess, tab)
						if err != nil {
							return nil, err
						}
						return list.Items, nil
					}
					limit := p.Args["limit"].(int)
					if limit <= 0 || limit > maxPageLimit {
						limit = defaultPageLimit
					}
					items, _, err := deps.Deliveries.History(p.Context, sess, 0, limit)
					return items, err
				},
			},
			"tracking": &graphql.Field{
				Type: trackingType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFrom(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Deliveries.Track(p.Context, sess, p.Args["id"].(string))
				},
			},
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFrom(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Auth.CurrentUser(p.Context, sess)
				},
			},
			"routeGeometry": &graphql.Field{
				Type:        routeGeometryType,
				Description: "Decode an encoded polyline and report its extent",
				Args: graphql.FieldConfigArgument{
					"polyline": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := geospatial.DecodeRoute(p.Args["polyline"].(string))
					if err != nil {
						return nil, err
					}
					g := routeGeometry{Points: len(route), LengthMeters: geospatial.PathLength(route)}
					if b, ok := deps.Overlay.ComputeBounds(route); ok {
						g.Bounds = &b
					}
					return g, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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

		ctx := context.WithValue(c.UserContext(), gqlSessionKey{}, currentSession(c))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
