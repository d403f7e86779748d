package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Normalises(t *testing.T) {
	a := Key("When is the  Physics exam?")
	b := Key("  when is the physics\texam? ")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("When is the Chemistry exam?"))
	assert.Len(t, a, len(keyPrefix)+64)
}

func TestNew_DisabledWithoutAddress(t *testing.T) {
	c, err := New(context.Background(), config.CacheConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := New(ctx, config.CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
