package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	key    string
	values []any
	err    error
}

func (f *fakePusher) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)

	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(int64(len(f.values)))
	}
	return cmd
}

func TestPublisher_Send(t *testing.T) {
	fake := &fakePusher{}
	p := newPublisher(fake, "homeworkbot:notifications")
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	err := p.Send(context.Background(), "approved")

	require.NoError(t, err)
	assert.Equal(t, "homeworkbot:notifications", fake.key)
	require.Len(t, fake.values, 1)

	data, ok := fake.values[0].([]byte)
	require.True(t, ok)

	var got entry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "approved", got.Text)
	assert.True(t, got.SentAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestPublisher_SendError(t *testing.T) {
	fake := &fakePusher{err: errors.New("connection refused")}
	p := newPublisher(fake, "bot:out")

	err := p.Send(context.Background(), "approved")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot:out")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewPublisher_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPublisher(ctx, Config{Addr: "127.0.0.1:1", Key: "k"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
