package graph

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-gate"
	"github.com/graph-gophers/graphql-go"
)

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler executes GraphQL requests using the request user context, which
// carries the auth.RequestContext attached by contextware.
func Handler(schema *graphql.Schema, logger auth.Logger) fiber.Handler {
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	return func(c *fiber.Ctx) error {
		var params request

		switch c.Method() {
		case fiber.MethodGet:
			params.Query = c.Query("query")
			params.OperationName = c.Query("operationName")
			if raw := c.Query("variables"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &params.Variables); err != nil {
					return badRequest(c, "invalid variables")
				}
			}
			if strings.TrimSpace(params.Query) == "" {
				return badRequest(c, "query is required")
			}
			mutation, err := selectsMutation(params.Query, params.OperationName)
			if err != nil {
				return badRequest(c, err.Error())
			}
			if mutation {
				return c.Status(fiber.StatusMethodNotAllowed).JSON(errorBody("mutations require POST"))
			}
		case fiber.MethodPost:
			if err := json.Unmarshal(c.Body(), &params); err != nil {
				return badRequest(c, "invalid request body")
			}
		default:
			return c.Status(fiber.StatusMethodNotAllowed).JSON(errorBody("method not allowed"))
		}

		if strings.TrimSpace(params.Query) == "" {
			return badRequest(c, "query is required")
		}

		resp := schema.Exec(c.UserContext(), params.Query, params.OperationName, params.Variables)
		if len(resp.Errors) > 0 {
			logger.Debug("graphql response with errors",
				"operation", params.OperationName,
				"errors", len(resp.Errors),
			)
		}

		return c.JSON(resp)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody(msg))
}

func errorBody(msg string) fiber.Map {
	return fiber.Map{
		"errors": []fiber.Map{{"message": msg}},
	}
}
