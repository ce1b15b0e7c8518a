package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"storage", "bus", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	assert.Equal(t, []string{"http", "bus", "storage"}, m.Components())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "bus", "storage"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(0, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false
	m.Register("a", func(context.Context) error { return errA })
	m.Register("ok", func(context.Context) error { ran = true; return nil })
	m.Register("b", func(context.Context) error { return errB })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran)
}

func TestShutdownAppliesTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
