package redis

import (
	"context"
	"testing"

	"recipio/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
)

func TestNewClientDisabled(t *testing.T) {
	cfg := &config.Config{}

	client, err := NewClient(context.Background(), cfg)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClientUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	client, err := NewClient(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, client)
}
