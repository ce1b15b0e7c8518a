package httpcontext

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

func TestAttachPropagatesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "abc")
	rc.Request.Header.SetUserAgent("probe")
	rc.SetUserValue(string(KeySubject), "user-1")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "abc", appLogger.RequestID(ctx))
	assert.Equal(t, "abc", string(rc.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "probe", ctx.Value(KeyUserAgent))
	assert.Equal(t, "user-1", Subject(ctx))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestAttachGeneratesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	id := appLogger.RequestID(ctx)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Empty(t, Subject(ctx))
}
