package api

import (
	"fmt"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the service surface.
func buildSpec(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"SecurityReason": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "integer", Format: "int64"},
				"category":    {Type: "string", Example: "Persecution or Harm"},
				"title":       {Type: "string"},
				"description": {Type: "string"},
				"expiry_date": {Type: "string", Format: "date-time"},
				"created_at":  {Type: "string", Format: "date-time"},
			},
		},
		"SecurityState": {
			Type: "string",
			Enum: []any{"SUBMITTED", "PENDING_REVIEW", "SECURED", "UNSECURED"},
		},
		"CrossProductRequest": {
			Type:     "object",
			Required: []string{"security_ids", "attachment_ids"},
			Properties: map[string]*openapi.Schema{
				"security_ids": {
					Type:  "array",
					Items: &openapi.Schema{Type: "integer", Format: "int64"},
				},
				"attachment_ids": {
					Type:  "array",
					Items: &openapi.Schema{Type: "integer", Format: "int64"},
				},
			},
		},
		"BatchResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"results": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"attachment_id":  {Type: "integer", Format: "int64"},
							"revision_count": {Type: "integer"},
							"state":          openapi.SchemaRef("SecurityState"),
						},
					},
				},
			},
		},
		"SecurityStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"attachment_id":      {Type: "integer", Format: "int64"},
				"state":              openapi.SchemaRef("SecurityState"),
				"revision_count":     {Type: "integer"},
				"reviewed_at":        {Type: "string", Format: "date-time"},
				"applied_reason_ids": {Type: "array", Items: &openapi.Schema{Type: "integer", Format: "int64"}},
			},
		},
	})

	attachmentIDParam := &openapi.Parameter{
		Name:     "id",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "integer", Format: "int64"},
	}

	spec.Paths["/security/reasons"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List active security reasons",
			Tags:    []string{"reasons"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Active reason catalog", "SecurityReason"),
			},
		},
	}

	spec.Paths["/attachments/{id}/security"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get attachment security status",
			Tags:       []string{"classification"},
			Parameters: []*openapi.Parameter{attachmentIDParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Current security status", "SecurityStatus"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/attachments/{id}/security/review"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Mark attachment reviewed without changing reasons",
			Tags:       []string{"classification"},
			Parameters: []*openapi.Parameter{attachmentIDParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Batch outcome", "BatchResult"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	for _, scope := range []string{"project", "survey"} {
		param := openapi.PathParam(scope+"_id", "Owning "+scope+" identifier")

		for _, op := range []string{"add", "remove"} {
			path := fmt.Sprintf("/%s/{%s_id}/attachments/security/%s", scope, scope, op)
			spec.Paths[path] = &openapi.PathItem{
				Post: &openapi.Operation{
					Summary:     fmt.Sprintf("Batch %s security reasons on %s attachments", op, scope),
					Tags:        []string{"classification"},
					Parameters:  []*openapi.Parameter{param},
					RequestBody: openapi.RequestBodyJSON("CrossProductRequest", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Per-attachment outcomes", "BatchResult"),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
						409: openapi.ResponseRef("Conflict"),
					},
				},
			}
		}
	}

	return openapi.MarshalJSON(spec)
}
