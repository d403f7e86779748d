package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Router answers questions. It never fails.
type Router interface {
	Route(ctx context.Context, text, role string) string
}

type (
	QueryRequestDTO struct {
		Query string `json:"query"`
		Role  string `json:"role"`
	}

	QueryResponseDTO struct {
		Answer string `json:"answer"`
	}
)

type (
	QueryInput struct {
		Body QueryRequestDTO
	}

	QueryOutput struct {
		Body QueryResponseDTO
	}
)

// QueryHandler handles HTTP requests for questions.
type QueryHandler struct {
	router Router
}

// NewQueryHandler creates a new QueryHandler instance.
func NewQueryHandler(api huma.API, router Router) *QueryHandler {
	h := &QueryHandler{router: router}

	huma.Register(api, huma.Operation{
		OperationID:   "query",
		Method:        http.MethodPost,
		Path:          "/api/query",
		Summary:       "Answer a question about students or college documents",
		Tags:          []string{"assistant"},
		DefaultStatus: http.StatusOK,
	}, h.handleQuery)

	return h
}

// handleQuery handles the query operation.
func (h *QueryHandler) handleQuery(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	return &QueryOutput{
		Body: QueryResponseDTO{
			Answer: h.router.Route(ctx, input.Body.Query, input.Body.Role),
		},
	}, nil
}
