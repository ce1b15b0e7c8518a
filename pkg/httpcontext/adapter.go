package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeySubject    Key = "subject"
)

// Adapter derives a request-scoped context.Context from fasthttp.RequestCtx.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a context bounded by the adapter timeout and carrying the
// request ID, remote address, user agent and authenticated subject.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if sub, ok := ctx.UserValue(string(KeySubject)).(string); ok && sub != "" {
		stdCtx = context.WithValue(stdCtx, KeySubject, sub)
	}

	return stdCtx, cancel
}

// Subject returns the authenticated subject placed in ctx by Attach.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(KeySubject).(string)
	return sub
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
		return header
	}
	return uuid.NewString()
}
