package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSizing_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PoolSizing
		want PoolSizing
	}{
		{"zero", PoolSizing{}, PoolSizing{PostgresMaxConns: 20, PostgresMinConns: 4, RedisPoolSize: 32}},
		{"min above max", PoolSizing{PostgresMaxConns: 10, PostgresMinConns: 50, RedisPoolSize: 8}, PoolSizing{PostgresMaxConns: 10, PostgresMinConns: 2, RedisPoolSize: 8}},
		{"kept", PoolSizing{PostgresMaxConns: 40, PostgresMinConns: 5, RedisPoolSize: 64}, PoolSizing{PostgresMaxConns: 40, PostgresMinConns: 5, RedisPoolSize: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.withDefaults())
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Zero(t, ratio(3, 0))
	assert.InDelta(t, 0.25, ratio(1, 4), 1e-9)
}

func TestNewPostgres_RequiresURL(t *testing.T) {
	_, err := NewPostgres(context.Background(), "", PoolSizing{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url://", PoolSizing{})
	assert.Error(t, err)
}
