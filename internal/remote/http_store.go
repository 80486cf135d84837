// Package remote binds a reconciler.Client to a stallpick server, either over
// HTTP and websocket or in-process.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const DefaultTimeout = 10 * time.Second

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// HTTPStore implements the reconciler's Store and EventLog against the REST
// API.
type HTTPStore struct {
	baseURL string
	timeout time.Duration
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
}

// requestTimeout is the store timeout, shortened to the context deadline when
// that comes first.
func (s *HTTPStore) requestTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}
	return timeout, nil
}

func call[T any](ctx context.Context, s *HTTPStore, method, path string, body interface{}) (T, error) {
	var zero T

	timeout, err := s.requestTimeout(ctx)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w: %w", method, path, entity.ErrPersistenceFailed, err)
	}

	var agent *fiber.Agent
	target := s.baseURL + "/api" + path
	switch method {
	case fiber.MethodGet:
		agent = fiber.Get(target)
	case fiber.MethodPost:
		agent = fiber.Post(target)
	case fiber.MethodPut:
		agent = fiber.Put(target)
	default:
		return zero, fmt.Errorf("unsupported method %s", method)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(timeout)

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%s %s: %w: %w", method, path, entity.ErrPersistenceFailed, ctxErr)
		}
		return zero, fmt.Errorf("%s %s: %w: %w", method, path, entity.ErrPersistenceFailed, errs[0])
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%s %s: decode response (status %d): %w", method, path, code, err)
	}
	if code >= 200 && code < 300 {
		return env.Data, nil
	}

	switch code {
	case fiber.StatusNotFound:
		return zero, fmt.Errorf("%s: %w", env.Message, entity.ErrNotFound)
	case fiber.StatusBadRequest:
		return zero, fmt.Errorf("%s: %w", env.Message, entity.ErrInvalidInput)
	case fiber.StatusServiceUnavailable:
		return zero, fmt.Errorf("%s: %w", env.Message, entity.ErrPersistenceFailed)
	}
	return zero, fmt.Errorf("%s %s: status %d: %s", method, path, code, env.Message)
}

func (s *HTTPStore) Resolve(ctx context.Context, code string) (*entity.Session, error) {
	res, err := call[dto.SessionResponse](ctx, s, fiber.MethodGet, "/sessions/"+url.PathEscape(strings.TrimSpace(code)), nil)
	if err != nil {
		return nil, err
	}
	return mapper.ResponseToSession(res), nil
}

func (s *HTTPStore) ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	res, err := call[[]dto.StallResponse](ctx, s, fiber.MethodGet, "/markets/"+marketId.String()+"/stalls", nil)
	if err != nil {
		return nil, err
	}
	stalls := make([]*entity.Stall, 0, len(res))
	for _, r := range res {
		stalls = append(stalls, mapper.ResponseToStall(r, marketId))
	}
	return stalls, nil
}

func (s *HTTPStore) LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	res, err := call[[]dto.AvailabilityRow](ctx, s, fiber.MethodGet, "/sessions/"+sessionId.String()+"/availability", nil)
	if err != nil {
		return nil, err
	}
	rows := make([]*entity.Availability, 0, len(res))
	for _, r := range res {
		rows = append(rows, mapper.RowToAvailability(r))
	}
	return rows, nil
}

func (s *HTTPStore) LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	res, err := call[dto.CurrentChoiceRow](ctx, s, fiber.MethodGet, "/sessions/"+sessionId.String()+"/choice", nil)
	if err != nil {
		return nil, err
	}
	return mapper.RowToCurrentChoice(res), nil
}

func (s *HTTPStore) SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error) {
	req := dto.SetAvailabilityRequest{IsOpen: &isOpen, UpdatedBy: attributedTo}
	res, err := call[dto.AvailabilityRow](ctx, s, fiber.MethodPut, "/sessions/"+sessionId.String()+"/availability/"+stallId.String(), req)
	if err != nil {
		return nil, err
	}
	return mapper.RowToAvailability(res), nil
}

func (s *HTTPStore) SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	req := dto.SetChosenStallRequest{StallId: stallId}
	res, err := call[dto.CurrentChoiceRow](ctx, s, fiber.MethodPut, "/sessions/"+sessionId.String()+"/choice/stall", req)
	if err != nil {
		return nil, err
	}
	return mapper.RowToCurrentChoice(res), nil
}

func (s *HTTPStore) SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	req := dto.SetRequestTextRequest{Text: text}
	res, err := call[dto.CurrentChoiceRow](ctx, s, fiber.MethodPut, "/sessions/"+sessionId.String()+"/choice/request", req)
	if err != nil {
		return nil, err
	}
	return mapper.RowToCurrentChoice(res), nil
}

func (s *HTTPStore) Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error) {
	req := dto.AppendEventRequest{Kind: string(kind), Meta: meta}
	res, err := call[dto.EventResponse](ctx, s, fiber.MethodPost, "/sessions/"+sessionId.String()+"/events", req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrLogAppendFailed, err)
	}
	return mapper.ResponseToEvent(res), nil
}
