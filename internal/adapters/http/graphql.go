package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
)

// pointList turns a [[x, y], ...] argument into points.
func pointList(arg interface{}) ([]orb.Point, error) {
	rows, ok := arg.([]interface{})
	if !ok {
		return nil, errors.New("points must be a list")
	}
	out := make([]orb.Point, len(rows))
	for i, r := range rows {
		xy, ok := r.([]interface{})
		if !ok || len(xy) < 2 {
			return nil, fmt.Errorf("point %d needs two values", i)
		}
		x, okx := xy[0].(float64)
		y, oky := xy[1].(float64)
		if !okx || !oky {
			return nil, fmt.Errorf("point %d is not numeric", i)
		}
		out[i] = orb.Point{x, y}
	}
	return out, nil
}

func pointMap(p domain.GeoPoint) map[string]interface{} {
	m := map[string]interface{}{"x": p.X, "y": p.Y, "crs": p.CRS}
	if p.Z != nil {
		m["z"] = *p.Z
	}
	if p.Quality != nil {
		m["source"] = p.Quality.Source
	}
	return m
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	authorityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Authority",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"code": &graphql.Field{Type: graphql.String},
		},
	})

	crsInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CRSInfo",
		Fields: graphql.Fields{
			"name":          &graphql.Field{Type: graphql.String},
			"authority":     &graphql.Field{Type: authorityType},
			"is_geographic": &graphql.Field{Type: graphql.Boolean},
			"is_projected":  &graphql.Field{Type: graphql.Boolean},
			"datum":         &graphql.Field{Type: graphql.String},
			"ellipsoid":     &graphql.Field{Type: graphql.String},
			"units":         &graphql.Field{Type: graphql.String},
		},
	})

	aliasType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alias",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"code": &graphql.Field{Type: graphql.String},
		},
	})

	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x":      &graphql.Field{Type: graphql.Float},
			"y":      &graphql.Field{Type: graphql.Float},
			"z":      &graphql.Field{Type: graphql.Float},
			"crs":    &graphql.Field{Type: graphql.String},
			"source": &graphql.Field{Type: graphql.String},
		},
	})

	transformType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransformResult",
		Fields: graphql.Fields{
			"crs":    &graphql.Field{Type: graphql.String},
			"points": &graphql.Field{Type: graphql.NewList(graphql.NewList(graphql.Float))},
		},
	})

	extractionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Extraction",
		Fields: graphql.Fields{
			"format":        &graphql.Field{Type: graphql.String},
			"crs":           &graphql.Field{Type: graphql.String},
			"points":        &graphql.Field{Type: graphql.NewList(pointType)},
			"feature_count": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"resolveCRS": &graphql.Field{
				Type:        graphql.String,
				Description: "Canonical code for a name or code",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.CRS.Resolve(p.Args["name"].(string)), nil
				},
			},
			"crsInfo": &graphql.Field{
				Type:        crsInfoType,
				Description: "Metadata for a reference system",
				Args: graphql.FieldConfigArgument{
					"code": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.CRS.Info(p.Context, p.Args["code"].(string))
				},
			},
			"searchCRS": &graphql.Field{
				Type:        graphql.NewList(aliasType),
				Description: "Aliases whose name or code contains the keyword",
				Args: graphql.FieldConfigArgument{
					"keyword": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.CRS.Search(p.Args["keyword"].(string)), nil
				},
			},
			"utmZone": &graphql.Field{
				Type:        graphql.String,
				Description: "UTM EPSG code for a WGS84 position",
				Args: graphql.FieldConfigArgument{
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.CRS.UTMZone(p.Args["lon"].(float64), p.Args["lat"].(float64)), nil
				},
			},
			"transform": &graphql.Field{
				Type:        transformType,
				Description: "Reproject a list of [x, y] points",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewList(graphql.Float)))},
					"from":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultCRS},
					"to":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pts, err := pointList(p.Args["points"])
					if err != nil {
						return nil, err
					}
					to := p.Args["to"].(string)
					out, err := deps.CRS.Transform(p.Context, pts, p.Args["from"].(string), to)
					if err != nil {
						return nil, err
					}
					rows := make([][]float64, len(out))
					for i, q := range out {
						rows[i] = []float64{q[0], q[1]}
					}
					return map[string]interface{}{"crs": deps.CRS.Resolve(to), "points": rows}, nil
				},
			},
			"extractText": &graphql.Field{
				Type:        extractionType,
				Description: "Find coordinates in free text",
				Args: graphql.FieldConfigArgument{
					"text":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"target_crs": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					target, _ := p.Args["target_crs"].(string)
					res, err := deps.Extraction.ExtractText(p.Context, p.Args["text"].(string), usecases.ExtractOptions{TargetCRS: target})
					if err != nil {
						return nil, err
					}
					points := make([]map[string]interface{}, len(res.Points))
					for i, pt := range res.Points {
						points[i] = pointMap(pt)
					}
					return map[string]interface{}{
						"format":        string(res.Format),
						"crs":           res.CRS,
						"points":        points,
						"feature_count": len(res.Features),
					}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"registerAlias": &graphql.Field{
				Type:        aliasType,
				Description: "Add a runtime alias for a reference system",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"code": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name := p.Args["name"].(string)
					code := p.Args["code"].(string)
					if err := deps.CRS.RegisterAlias(name, code); err != nil {
						return nil, err
					}
					return map[string]interface{}{"name": name, "code": deps.CRS.Resolve(code)}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
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
