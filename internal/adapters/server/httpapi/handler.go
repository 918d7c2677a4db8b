// Package httpapi provides the REST HTTP adapter for the lead service.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/wire"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// actorKey is the echo context key holding the authenticated user.
const actorKey = "actor"

// Service is the lead service surface served over HTTP.
type Service interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
	ListLeads(ctx context.Context, actor domain.User, board domain.BoardType, q app.ListQuery) ([]domain.Lead, error)
	CreateLead(ctx context.Context, actor domain.User, board domain.BoardType, lead domain.Lead) (domain.Lead, error)
	UpdateLead(ctx context.Context, actor domain.User, board domain.BoardType, id domain.LeadID, patch domain.Patch) (domain.Lead, error)
	BulkUpdate(ctx context.Context, actor domain.User, board domain.BoardType, ids []domain.LeadID, patch domain.Patch) (app.BulkUpdateResult, error)
	BulkDelete(ctx context.Context, actor domain.User, board domain.BoardType, ids []domain.LeadID) (int, string, error)
	Enrich(ctx context.Context, actor domain.User, board domain.BoardType, id domain.LeadID) (string, error)
	ListUsers(ctx context.Context, actor domain.User) ([]domain.User, error)
	ListAudit(ctx context.Context, board domain.BoardType, limit int) ([]domain.AuditEvent, error)
}

var _ Service = (*backend.Service)(nil)

// New builds an echo instance with every route registered.
func New(svc Service, logger app.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Register(e, svc, logger)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Service, logger app.Logger) {
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger))

	auth := authenticate(svc)
	e.GET("/admin/users", listUsers(svc), auth)
	e.GET("/logs", listAudit(svc), auth)
	e.GET("/:board", listLeads(svc), auth)
	e.POST("/:board", createLead(svc), auth)
	e.PATCH("/:board/bulk", bulkUpdate(svc), auth)
	e.DELETE("/:board/bulk", bulkDelete(svc), auth)
	e.PATCH("/:board/:id", updateLead(svc), auth)
	e.POST("/:board/:id/enrich", enrichLead(svc), auth)
}

// authenticate resolves the bearer token to a user before the handler runs.
func authenticate(svc Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return &backend.RequestError{Kind: backend.ErrUnauthorized, Detail: "Not authenticated"}
			}
			user, err := svc.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}
			c.Set(actorKey, user)
			return next(c)
		}
	}
}

func listLeads(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		leads, err := svc.ListLeads(c.Request().Context(), actor(c), board, wire.ParseQuery(c.QueryParams()))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, wire.LeadsFromDomain(leads))
	}
}

func createLead(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		var in wire.Lead
		if err := decodeBody(c, &in); err != nil {
			return err
		}
		lead, err := svc.CreateLead(c.Request().Context(), actor(c), board, in.Domain())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, wire.LeadFromDomain(lead))
	}
}

func updateLead(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var body map[string]any
		if err := decodeBody(c, &body); err != nil {
			return err
		}
		patch, err := wire.ParsePatch(body)
		if err != nil {
			return err
		}
		lead, err := svc.UpdateLead(c.Request().Context(), actor(c), board, id, patch)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, wire.LeadFromDomain(lead))
	}
}

func bulkUpdate(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		var body map[string]any
		if err := decodeBody(c, &body); err != nil {
			return err
		}
		req, err := wire.ParseBulkRequest(body)
		if err != nil {
			return err
		}
		res, err := svc.BulkUpdate(c.Request().Context(), actor(c), board, req.IDs, req.Patch)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, wire.BulkResponse{Message: res.Message, Count: res.Count, Skipped: res.Skipped})
	}
}

func bulkDelete(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		var req wire.DeleteRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		ids := make([]domain.LeadID, 0, len(req.IDs))
		for _, id := range req.IDs {
			ids = append(ids, domain.LeadID(id))
		}
		count, message, err := svc.BulkDelete(c.Request().Context(), actor(c), board, ids)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, wire.DeleteResponse{Message: message, Count: count})
	}
}

func enrichLead(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boardParam(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		email, err := svc.Enrich(c.Request().Context(), actor(c), board, id)
		if err != nil {
			return err
		}
		resp := wire.EnrichResponse{Email: email}
		if email == "" {
			resp.Message = "No email found"
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func listUsers(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := svc.ListUsers(c.Request().Context(), actor(c))
		if err != nil {
			return err
		}
		out := make([]wire.User, 0, len(users))
		for _, u := range users {
			out = append(out, wire.UserFromDomain(u))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func listAudit(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var board domain.BoardType
		if raw := strings.TrimSpace(c.QueryParam("board")); raw != "" {
			parsed, err := domain.ParseBoardType(raw)
			if err != nil {
				return err
			}
			board = parsed
		}
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		events, err := svc.ListAudit(c.Request().Context(), board, limit)
		if err != nil {
			return err
		}
		out := make([]wire.AuditEvent, 0, len(events))
		for _, ev := range events {
			out = append(out, wire.AuditEventFromDomain(ev))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func actor(c echo.Context) domain.User {
	user, _ := c.Get(actorKey).(domain.User)
	return user
}

func boardParam(c echo.Context) (domain.BoardType, error) {
	return domain.ParseBoardType(c.Param("board"))
}

func idParam(c echo.Context) (domain.LeadID, error) {
	id, err := domain.ParseLeadID(c.Param("id"))
	if err != nil {
		return 0, &backend.RequestError{Kind: backend.ErrInvalidRequest, Detail: "Invalid id"}
	}
	return id, nil
}

// decodeBody decodes one required JSON request body.
func decodeBody(c echo.Context, out any) error {
	reader := io.LimitReader(c.Request().Body, maxRequestBodyBytes)
	if err := wire.Decode(reader, out); err != nil {
		return &backend.RequestError{Kind: backend.ErrInvalidRequest, Detail: "Invalid request body"}
	}
	return nil
}

// errorHandler maps service errors onto status codes with a {"detail": ...} body.
func errorHandler(logger app.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, detail := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, wire.ErrorResponse{Detail: detail})
	}
}

// statusFor returns the response status and client-facing detail for err.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	detail := err.Error()
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		detail = reqErr.Detail
	}
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, detail
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden, detail
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, domain.ErrUnknownBoard):
		return http.StatusNotFound, detail
	case errors.Is(err, backend.ErrGuardViolation),
		errors.Is(err, backend.ErrInvalidRequest),
		errors.Is(err, wire.ErrInvalidPayload):
		return http.StatusBadRequest, detail
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// requestLogger logs one line per request.
func requestLogger(logger app.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				status, _ = statusFor(err)
			}
			logger.Debug("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"duration", time.Since(start),
			)
			return err
		}
	}
}

// jsonSerializer encodes responses and decodes bound bodies with go-json.
type jsonSerializer struct{}

// Serialize implements echo.JSONSerializer.
func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize implements echo.JSONSerializer.
func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := wire.Decode(c.Request().Body, i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	return nil
}
