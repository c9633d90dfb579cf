package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPostgresConnection_InvalidURL(t *testing.T) {
	t.Run("empty_database_url", func(t *testing.T) {
		db, err := NewPostgresConnection("")
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("invalid_database_url", func(t *testing.T) {
		db, err := NewPostgresConnection("invalid://malformed")
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to parse redis url")
}
