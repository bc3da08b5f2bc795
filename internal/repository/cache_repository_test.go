package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]any
	assert.ErrorIs(t, repo.Get(context.Background(), "score:x", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "score:x", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.Close())

	var nilRepo *CacheRepository
	assert.ErrorIs(t, nilRepo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
}

func TestScoreKey(t *testing.T) {
	a := ScoreKey([]byte("conflicts"), []byte("schedule"))
	assert.Equal(t, a, ScoreKey([]byte("conflicts"), []byte("schedule")))
	assert.NotEqual(t, a, ScoreKey([]byte("schedule"), []byte("conflicts")))
	// Boundaries between parts matter.
	assert.NotEqual(t, ScoreKey([]byte("ab"), []byte("c")), ScoreKey([]byte("a"), []byte("bc")))
	assert.Regexp(t, "^score:[0-9a-f]{64}$", a)
}
