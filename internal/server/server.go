package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"tiller/internal/config"
	"tiller/internal/domain"
	"tiller/internal/engine"
	"tiller/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"title is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Tiller API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Tiller API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerCommitments(group, cfg.Engine)
	registerEntries(group, cfg.Engine)
	registerReflections(group, cfg.Engine)
	registerProjects(group, cfg.Engine)
	registerDashboard(group, cfg.Engine)
	registerInsights(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerConfig(group, cfg.Engine)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func invalidField(name string, err error) error {
	return fmt.Errorf("invalid %s: %w", name, err)
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "not open"),
		strings.Contains(lowered, "is not a decision"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "require"),
		strings.Contains(lowered, "unknown"),
		strings.Contains(lowered, "out of range"),
		strings.Contains(lowered, "exactly one"),
		strings.Contains(lowered, "must be"),
		strings.Contains(lowered, "no answer"),
		strings.Contains(lowered, "needs"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

var commonErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func registerCommitments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-commitment",
		Method:        http.MethodPost,
		Path:          "/commitments",
		Summary:       "Create commitment",
		DefaultStatus: http.StatusCreated,
		Errors:        commonErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateCommitmentRequest `json:"body"`
	}) (*struct {
		Body CommitmentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		due, err := parseTimeField("due_date", input.Body.DueDate)
		if err != nil {
			return nil, handleError(err)
		}
		score := 0
		if input.Body.PriorityScore != nil {
			score = *input.Body.PriorityScore
		}
		c, err := e.CreateCommitment(ctx, engine.CommitmentCreateOptions{
			ID:            strOrEmpty(input.Body.ID),
			Title:         input.Body.Title,
			Direction:     input.Body.Direction,
			Counterparty:  strOrEmpty(input.Body.Counterparty),
			DueDate:       due,
			PriorityScore: score,
			ProjectID:     strOrEmpty(input.Body.ProjectID),
			SourceEntryID: strOrEmpty(input.Body.SourceEntryID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitmentResponse `json:"body"`
		}{Body: commitmentResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-commitments",
		Method:      http.MethodGet,
		Path:        "/commitments",
		Summary:     "List commitments",
	}, func(ctx context.Context, input *struct {
		Direction string `query:"direction" enum:"i_owe,waiting_for"`
		Status    string `query:"status" enum:"open,done,dropped"`
		ProjectID string `query:"project_id"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body []CommitmentResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListCommitments(ctx, repo.CommitmentFilters{
			Direction: input.Direction,
			Status:    input.Status,
			ProjectID: input.ProjectID,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]CommitmentResponse, 0, len(list))
		for _, c := range list {
			out = append(out, commitmentResponse(c))
		}
		return &struct {
			Body []CommitmentResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-commitment",
		Method:      http.MethodGet,
		Path:        "/commitments/{id}",
		Summary:     "Get commitment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body CommitmentResponse `json:"body"`
	}, error) {
		c, err := e.Repo.GetCommitment(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitmentResponse `json:"body"`
		}{Body: commitmentResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-commitment",
		Method:      http.MethodPatch,
		Path:        "/commitments/{id}",
		Summary:     "Update commitment",
		Errors:      commonErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body UpdateCommitmentRequest `json:"body"`
	}) (*struct {
		Body CommitmentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		due, err := parseTimeField("due_date", input.Body.DueDate)
		if err != nil {
			return nil, handleError(err)
		}
		c, err := e.UpdateCommitment(ctx, input.ID, engine.CommitmentUpdateOptions{
			Title:         input.Body.Title,
			DueDate:       due,
			ClearDue:      input.Body.ClearDueDate,
			PriorityScore: input.Body.PriorityScore,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitmentResponse `json:"body"`
		}{Body: commitmentResponse(c)}, nil
	})

	closeOp := func(opID, pathSuffix, summary string, close func(context.Context, string) (domain.Commitment, error)) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        "/commitments/{id}/" + pathSuffix,
			Summary:     summary,
			Errors:      commonErrors,
		}, func(ctx context.Context, input *struct {
			ID string `path:"id"`
		}) (*struct {
			Body CommitmentResponse `json:"body"`
		}, error) {
			c, err := close(ctx, input.ID)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body CommitmentResponse `json:"body"`
			}{Body: commitmentResponse(c)}, nil
		})
	}
	closeOp("complete-commitment", "complete", "Mark commitment done", e.CompleteCommitment)
	closeOp("drop-commitment", "drop", "Drop commitment", e.DropCommitment)
}

func registerEntries(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-entry",
		Method:        http.MethodPost,
		Path:          "/entries",
		Summary:       "Create entry",
		DefaultStatus: http.StatusCreated,
		Errors:        commonErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateEntryRequest `json:"body"`
	}) (*struct {
		Body EntryResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		occurred, err := parseTimeField("occurred_at", input.Body.OccurredAt)
		if err != nil {
			return nil, handleError(err)
		}
		review, err := parseTimeField("review_date", input.Body.ReviewDate)
		if err != nil {
			return nil, handleError(err)
		}
		entry, err := e.CreateEntry(ctx, engine.EntryCreateOptions{
			ID:          strOrEmpty(input.Body.ID),
			Title:       input.Body.Title,
			Body:        strOrEmpty(input.Body.Body),
			OccurredAt:  occurred,
			ProjectID:   strOrEmpty(input.Body.ProjectID),
			IsDecision:  input.Body.IsDecision,
			Rationale:   strOrEmpty(input.Body.Rationale),
			Assumptions: strOrEmpty(input.Body.Assumptions),
			Confidence:  input.Body.Confidence,
			Stakes:      input.Body.Stakes,
			ReviewDate:  review,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntryResponse `json:"body"`
		}{Body: entryResponse(entry)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/entries",
		Summary:     "List entries",
	}, func(ctx context.Context, input *struct {
		Decisions bool   `query:"decisions"`
		ProjectID string `query:"project_id"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body []EntryResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListEntries(ctx, repo.EntryFilters{
			DecisionsOnly: input.Decisions,
			ProjectID:     input.ProjectID,
			Limit:         input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EntryResponse, 0, len(list))
		for _, entry := range list {
			out = append(out, entryResponse(entry))
		}
		return &struct {
			Body []EntryResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entry",
		Method:      http.MethodGet,
		Path:        "/entries/{id}",
		Summary:     "Get entry",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body EntryResponse `json:"body"`
	}, error) {
		entry, err := e.Repo.GetEntry(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntryResponse `json:"body"`
		}{Body: entryResponse(entry)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-decision",
		Method:      http.MethodPost,
		Path:        "/entries/{id}/review",
		Summary:     "Record decision outcome",
		Errors:      commonErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body ReviewDecisionRequest `json:"body"`
	}) (*struct {
		Body EntryResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		entry, err := e.ReviewDecision(ctx, input.ID, input.Body.Outcome)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntryResponse `json:"body"`
		}{Body: entryResponse(entry)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-entry",
		Method:        http.MethodDelete,
		Path:          "/entries/{id}",
		Summary:       "Soft-delete entry",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteEntry(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerReflections(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-reflection",
		Method:        http.MethodPost,
		Path:          "/reflections",
		Summary:       "Record reflection",
		DefaultStatus: http.StatusCreated,
		Errors:        commonErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateReflectionRequest `json:"body"`
	}) (*struct {
		Body ReflectionResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		var followUps []engine.CommitmentCreateOptions
		for i, fu := range input.Body.FollowUps {
			due, err := parseTimeField(fmt.Sprintf("follow_ups[%d].due_date", i), fu.DueDate)
			if err != nil {
				return nil, handleError(err)
			}
			followUps = append(followUps, engine.CommitmentCreateOptions{
				Title:        fu.Title,
				Direction:    fu.Direction,
				Counterparty: strOrEmpty(fu.Counterparty),
				DueDate:      due,
				ProjectID:    strOrEmpty(fu.ProjectID),
			})
		}
		ref, err := e.CreateReflection(ctx, engine.ReflectionCreateOptions{
			ID:             strOrEmpty(input.Body.ID),
			ReflectionType: input.Body.ReflectionType,
			PeriodType:     strOrEmpty(input.Body.PeriodType),
			Mood:           strOrEmpty(input.Body.Mood),
			Tags:           input.Body.Tags,
			Answers:        input.Body.Answers,
			LinkedEntryIDs: input.Body.LinkedEntryIDs,
			SourceEntryID:  strOrEmpty(input.Body.SourceEntryID),
			ProjectID:      strOrEmpty(input.Body.ProjectID),
			FollowUps:      followUps,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReflectionResponse `json:"body"`
		}{Body: reflectionResponse(ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reflections",
		Method:      http.MethodGet,
		Path:        "/reflections",
		Summary:     "List reflections",
	}, func(ctx context.Context, input *struct {
		Type      string `query:"type" enum:"quick,periodic,project,relationship"`
		Period    string `query:"period" enum:"weekly,monthly,quarterly"`
		ProjectID string `query:"project_id"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body []ReflectionResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListReflections(ctx, repo.ReflectionFilters{
			ReflectionType: input.Type,
			PeriodType:     input.Period,
			ProjectID:      input.ProjectID,
			Limit:          input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]ReflectionResponse, 0, len(list))
		for _, ref := range list {
			out = append(out, reflectionResponse(ref))
		}
		return &struct {
			Body []ReflectionResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-reflection",
		Method:      http.MethodGet,
		Path:        "/reflections/{id}",
		Summary:     "Get reflection",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ReflectionResponse `json:"body"`
	}, error) {
		ref, err := e.Repo.GetReflection(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReflectionResponse `json:"body"`
		}{Body: reflectionResponse(ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-themes",
		Method:      http.MethodPost,
		Path:        "/reflections/suggest-themes",
		Summary:     "Suggest themes for draft answers",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Answers []domain.QuestionAnswer `json:"answers"`
			Tags    []string                `json:"tags,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body struct {
			Themes []string `json:"themes"`
		} `json:"body"`
	}, error) {
		themes := e.SuggestThemes(input.Body.Answers, input.Body.Tags)
		resp := &struct {
			Body struct {
				Themes []string `json:"themes"`
			} `json:"body"`
		}{}
		resp.Body.Themes = themes
		return resp, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        commonErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		priority := 0
		if input.Body.Priority != nil {
			priority = *input.Body.Priority
		}
		p, err := e.CreateProject(ctx, strOrEmpty(input.Body.ID), input.Body.Name, priority)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"active,on_hold,completed,archived"`
	}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListProjects(ctx, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]ProjectResponse, 0, len(list))
		for _, p := range list {
			out = append(out, projectResponse(p))
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{id}",
		Summary:     "Update project",
		Errors:      commonErrors,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := e.UpdateProject(ctx, input.ID, input.Body.Status, input.Body.Priority)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})
}

func registerDashboard(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Attention dashboard",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Dashboard `json:"body"`
	}, error) {
		dash, err := e.Dashboard(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Dashboard `json:"body"`
		}{Body: dash}, nil
	})
}

func registerInsights(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "insights",
		Method:      http.MethodGet,
		Path:        "/insights",
		Summary:     "Longitudinal insights",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Insights `json:"body"`
	}, error) {
		ins, err := e.Insights(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Insights `json:"body"`
		}{Body: ins}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Type       string `query:"type"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListEvents(ctx, repo.EventFilters{
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Type:       input.Type,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(list))
		for _, evt := range list {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}

func registerConfig(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/config",
		Summary:     "Journal configuration",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body *config.Config `json:"body"`
	}, error) {
		if e.Config == nil {
			return nil, newAPIError(http.StatusNotFound, "not_found", "config not loaded", nil)
		}
		return &struct {
			Body *config.Config `json:"body"`
		}{Body: e.Config}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		subject := strings.TrimSpace(input.Body.Subject)
		if subject == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "subject is required", nil)
		}
		token, err := signDevToken(authCfg.JWTSecret, subject)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "who-am-i",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Show the authenticated principal",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body Principal `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			// No middleware principal means the API runs without a secret.
			p = Principal{Subject: "anonymous", Source: "open"}
		}
		return &struct {
			Body Principal `json:"body"`
		}{Body: p}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		"/" + strings.TrimPrefix(path.Join(basePath, "health"), "/"):         true,
		"/" + strings.TrimPrefix(path.Join(basePath, "auth/dev/login"), "/"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Tiller API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
