package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-authlog/internal/domain/model"
	"go-authlog/internal/logging"
	"go-authlog/internal/pkg/cache"
	"go-authlog/internal/repository/dao"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	countries []string
	err       error
	calls     int
}

func (s *countingStore) List(context.Context, dao.AuthLogQuery) ([]model.AuthenticationLog, int64, error) {
	return nil, 0, nil
}

func (s *countingStore) Countries(context.Context) ([]string, error) {
	s.calls++
	return s.countries, s.err
}

func TestCachedLogStore_Countries(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{countries: []string{"Italy", "Spain"}}
	c := cache.NewLocal()
	store := NewCachedLogStore(inner, c, time.Minute, logging.Nop())

	for i := 0; i < 3; i++ {
		got, err := store.Countries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Italy", "Spain"}, got)
	}
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, c.SetEX(ctx, CountryCacheKey, "not json", time.Minute))
	_, err := store.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedLogStore_EmptyIsCached(t *testing.T) {
	inner := &countingStore{}
	store := NewCachedLogStore(inner, cache.NewLocal(), time.Minute, logging.Nop())
	for i := 0; i < 2; i++ {
		got, err := store.Countries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedLogStore_ErrorsNotCached(t *testing.T) {
	inner := &countingStore{err: errors.New("db down")}
	c := cache.NewLocal()
	store := NewCachedLogStore(inner, c, time.Minute, logging.Nop())
	_, err := store.Countries(context.Background())
	assert.Error(t, err)
	v, _ := c.Get(context.Background(), CountryCacheKey)
	assert.Empty(t, v)
}

func TestNewCachedLogStore_Disabled(t *testing.T) {
	inner := &countingStore{}
	assert.Same(t, inner, NewCachedLogStore(inner, cache.NewLocal(), 0, logging.Nop()))
	assert.Same(t, inner, NewCachedLogStore(inner, nil, time.Minute, logging.Nop()))
}
