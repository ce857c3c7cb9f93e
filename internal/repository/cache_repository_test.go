package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "reports:x", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "reports:x", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "reports:*"))
	assert.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryCountersWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	n, err := repo.Incr(ctx, "generation:reports:")
	assert.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Counter(ctx, "generation:reports:")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
