package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	storage string
}

func NewHealthHandler(mon *monitor.Monitor, storage string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		storage:     storage,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"storage":   h.storage,
	}
	if h.monitor == nil {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}

	status := h.monitor.GetStatus()
	payload["services"] = status.Components
	payload["last_check"] = status.LastCheck

	if status.Healthy {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
