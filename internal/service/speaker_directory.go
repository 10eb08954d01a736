package service

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iliyamo/conference-portal/internal/model"
	"github.com/iliyamo/conference-portal/internal/repository"
)

// SpeakerDirectory resolves speaker codes through a per-instance LRU cache
// with TTL.  Speaker deletion evicts the code.
type SpeakerDirectory struct {
	repo  *repository.SpeakerRepo
	cache *expirable.LRU[string, model.Speaker]
}

// NewSpeakerDirectory creates a directory caching up to size speakers for ttl.
func NewSpeakerDirectory(repo *repository.SpeakerRepo, size int, ttl time.Duration) *SpeakerDirectory {
	return &SpeakerDirectory{
		repo:  repo,
		cache: expirable.NewLRU[string, model.Speaker](size, nil, ttl),
	}
}

// Lookup returns the speaker with the given code (case-insensitive,
// surrounding space ignored).  NotFoundError when unknown.
func (d *SpeakerDirectory) Lookup(ctx context.Context, code string) (*model.Speaker, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, invalid("speakerCode", "is required")
	}
	if sp, ok := d.cache.Get(code); ok {
		speakerCacheHitsTotal.Inc()
		return &sp, nil
	}
	speakerCacheMissesTotal.Inc()
	sp, err := d.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "speaker", code)
	}
	d.cache.Add(code, *sp)
	return sp, nil
}

// Evict drops one code from the cache.
func (d *SpeakerDirectory) Evict(code string) {
	d.cache.Remove(normalizeCode(code))
}

// Purge empties the cache.
func (d *SpeakerDirectory) Purge() {
	d.cache.Purge()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
