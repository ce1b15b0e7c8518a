package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, count int) {
	h.respondJSON(ctx, http.StatusOK, transport.NewList(data, count))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// respondError maps err to a status code. Unclassified errors are logged and
// reported without their text.
func (h baseHandler) respondError(ctx context.Context, rc *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		appLogger.WithRequestID(ctx, h.logger).Error("request failed",
			zap.String("path", string(rc.Path())),
			zap.Error(err))
		message = "internal error"
	}
	h.respondJSON(rc, status, transport.NewError(code, message, nil))
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeInvalidDeadline):
		return http.StatusBadRequest, string(domain.ErrCodeInvalidDeadline)
	case domain.IsDomainError(err, domain.ErrCodeProjectIncomplete):
		return http.StatusConflict, string(domain.ErrCodeProjectIncomplete)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// pathID parses the named route parameter as a UUID, writing a 400 when it is
// missing or malformed.
func (h baseHandler) pathID(ctx *fasthttp.RequestCtx, name string) (uuid.UUID, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondInvalid(ctx, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
