package ports

import (
	"context"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
)

// FinanceRepository reads the capital position backing inventory.
// Reads that fail or find no row are mapped to ErrDataUnavailable by the
// balancer; no partial financial state is ever used.
type FinanceRepository interface {
	BaseRate(ctx context.Context) (float64, error)
	WorkingCapital(ctx context.Context) (float64, error)
	PendingPayouts(ctx context.Context) (float64, error)
}

// VideoRepository owns inventory persistence.
//
// InsertAvailable must report a youtube_id uniqueness violation as
// domainerrors.ErrDuplicateVideo so callers can treat duplicates as skipped
// no-ops. The persistent unique constraint, not the process-local processed
// set, is the dedup source of truth.
type VideoRepository interface {
	ListAvailable(ctx context.Context) ([]entities.Video, error)
	// DeleteIfAvailable removes the video only while its status is still
	// AVAILABLE, returning false when a concurrent claim won the race.
	DeleteIfAvailable(ctx context.Context, videoID string) (bool, error)
	InsertAvailable(ctx context.Context, video entities.Video) error
}

// SearchRequest describes one candidate search against the content
// provider.
type SearchRequest struct {
	Query          string
	Limit          int
	SortBy         string
	UploadedAfter  *time.Time
	UploadedBefore *time.Time
	SafeSearch     bool
}

// VideoSearcher finds external candidate videos.
type VideoSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]entities.Candidate, error)
}

type Clock interface {
	Now() time.Time
}

// Rand feeds date-window, keyword and shuffle decisions.
// *math/rand.Rand satisfies it; tests inject seeded or fixed sources.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
