package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisCacheUnreachable(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, found, err := c.Get(ctx, "missing")
	assert.Error(t, err)
	assert.False(t, found)

	assert.Error(t, c.Set(ctx, "k", "v"))
	assert.Error(t, c.Ping(ctx))
}
