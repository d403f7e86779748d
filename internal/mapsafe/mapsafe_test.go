package mapsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	p := map[string]any{
		"n_predict":   512,
		"temperature": 0.7,
		"top_k":       40.0,
		"seed":        int64(7),
		"language":    "gu",
		"translate":   "true",
		"stream":      false,
		"stop":        []any{"</s>", "User:"},
		"bad_stop":    []any{"x", 1},
		"threads":     "four",
		"nothing":     nil,
	}

	assert.Equal(t, 512, Get(p, "n_predict", 0))
	assert.Equal(t, 512.0, Get(p, "n_predict", 0.0))
	assert.Equal(t, 0.7, Get(p, "temperature", -1.0))
	assert.Equal(t, 40, Get(p, "top_k", 0))
	assert.Equal(t, 7, Get(p, "seed", 0))
	assert.Equal(t, "gu", Get(p, "language", ""))
	assert.Equal(t, "512", Get(p, "n_predict", ""))
	assert.True(t, Get(p, "translate", false))
	assert.False(t, Get(p, "stream", true))
	assert.Equal(t, []string{"</s>", "User:"}, Get(p, "stop", []string(nil)))
	assert.Equal(t, []string{"default"}, Get(p, "bad_stop", []string{"default"}))

	assert.Equal(t, 2, Get(p, "threads", 2))
	assert.Equal(t, 3, Get(p, "nothing", 3))
	assert.Equal(t, "x", Get(p, "missing", "x"))
	assert.Equal(t, 1, Get[int](nil, "missing", 1))
}
