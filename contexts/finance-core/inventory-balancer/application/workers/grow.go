package workers

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	application "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	domainerrors "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/errors"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/services"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"
)

// searchStrategies is round-robined across fetches to vary result ordering.
var searchStrategies = []string{"relevance", "date", "rating", "viewCount"}

// searchKeywords seed the third search arm with common stream-content themes
// to diversify the candidate pool.
var searchKeywords = []string{
	"react",
	"gameplay",
	"drama",
	"funny",
	"rage",
	"stream highlights",
	"best moments",
	"fails",
	"wins",
	"reactions",
	"controversy",
}

// grow fetches external candidates and inserts a bounded batch worth at
// most needed currency units. Item-level failures never abort the batch.
func (b *InventoryBalancer) grow(ctx context.Context, needed, baseRate float64) float64 {
	logger := application.ResolveLogger(b.Logger)

	candidates := b.fetchCandidates(ctx)
	if len(candidates) == 0 {
		logger.Info("no new videos found to add",
			"event", "balancer_grow_no_candidates",
			"module", moduleName,
			"layer", "worker",
		)
		return 0
	}

	accepted, planned := services.PlanGrowth(candidates, needed, baseRate, b.processedIDs, b.batchCap())
	logger.Info("grow batch planned",
		"event", "balancer_grow_planned",
		"module", moduleName,
		"layer", "worker",
		"candidate_count", len(candidates),
		"accepted_count", len(accepted),
		"planned_value", planned,
	)

	var added float64
	var count int
	for _, candidate := range accepted {
		video := entities.Video{
			YouTubeID:       candidate.YouTubeID,
			Title:           candidate.Title,
			DurationSeconds: candidate.DurationSeconds(),
			Status:          entities.VideoStatusAvailable,
		}
		if b.IDGen != nil {
			id, err := b.IDGen.NewID(ctx)
			if err != nil {
				logger.Error("video id generation failed",
					"event", "balancer_grow_id_failed",
					"module", moduleName,
					"layer", "worker",
					"youtube_id", candidate.YouTubeID,
					"error", err.Error(),
				)
				continue
			}
			video.ID = id
		}

		if err := b.Videos.InsertAvailable(ctx, video); err != nil {
			if errors.Is(err, domainerrors.ErrDuplicateVideo) {
				logger.Debug("candidate already in inventory, skipping",
					"event", "balancer_grow_duplicate",
					"module", moduleName,
					"layer", "worker",
					"youtube_id", candidate.YouTubeID,
				)
			} else {
				logger.Error("video insert failed",
					"event", "balancer_grow_insert_failed",
					"module", moduleName,
					"layer", "worker",
					"youtube_id", candidate.YouTubeID,
					"error", err.Error(),
				)
			}
			continue
		}

		b.processedIDs[candidate.YouTubeID] = struct{}{}
		cost := candidate.Cost(baseRate)
		added += cost
		count++
		logger.Info("video added",
			"event", "balancer_grow_video_added",
			"module", moduleName,
			"layer", "worker",
			"youtube_id", candidate.YouTubeID,
			"cost", cost,
		)
	}

	logger.Info("grow completed",
		"event", "balancer_grow_completed",
		"module", moduleName,
		"layer", "worker",
		"added_count", count,
		"added_value", added,
	)
	return added
}

// fetchCandidates fans out three search arms, merges and shuffles the
// results. Any search failure is a transient no-candidate outcome, not a
// cycle error.
func (b *InventoryBalancer) fetchCandidates(ctx context.Context) []entities.Candidate {
	logger := application.ResolveLogger(b.Logger)

	now := b.now()
	if !b.lastFetch.IsZero() && now.Sub(b.lastFetch) < b.fetchCooldown() {
		logger.Info("skipping fetch, too soon since last fetch",
			"event", "balancer_fetch_cooldown",
			"module", moduleName,
			"layer", "worker",
			"since_last_fetch", now.Sub(b.lastFetch).String(),
		)
		return nil
	}

	strategy := searchStrategies[b.strategyIndex]
	b.strategyIndex = (b.strategyIndex + 1) % len(searchStrategies)

	windowStart, windowEnd := b.randomDateWindow(now)
	pageSize := b.pageSize()

	logger.Info("fetching candidate videos",
		"event", "balancer_fetch_started",
		"module", moduleName,
		"layer", "worker",
		"strategy", strategy,
		"window_start", windowStart.Format(time.RFC3339),
		"window_end", windowEnd.Format(time.RFC3339),
		"page_size", pageSize,
	)

	requests := []ports.SearchRequest{
		{
			Query:          b.Config.Query,
			Limit:          pageSize,
			SortBy:         strategy,
			UploadedAfter:  &windowStart,
			UploadedBefore: &windowEnd,
			SafeSearch:     true,
		},
		{
			Query:      b.Config.Query,
			Limit:      pageSize,
			SortBy:     strategy,
			SafeSearch: true,
		},
		{
			Query:      b.Config.Query + " " + b.randomKeyword(),
			Limit:      pageSize,
			SafeSearch: true,
		},
	}

	batches := make([][]entities.Candidate, len(requests))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			found, err := b.Search.Search(groupCtx, req)
			if err != nil {
				return err
			}
			batches[i] = found
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Warn("candidate search failed, no candidates this cycle",
			"event", "balancer_fetch_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return nil
	}
	b.lastFetch = now

	merged := services.MergeCandidates(batches...)
	b.Rand.Shuffle(len(merged), func(i, j int) {
		merged[i], merged[j] = merged[j], merged[i]
	})
	return merged
}

// randomDateWindow picks a fixed-width window ending at a random offset
// within the lookback horizon.
func (b *InventoryBalancer) randomDateWindow(now time.Time) (time.Time, time.Time) {
	lookback := b.Config.LookbackDays
	if lookback <= 0 {
		lookback = 730
	}
	window := b.Config.DateWindowDays
	if window <= 0 {
		window = 30
	}
	end := now.AddDate(0, 0, -b.Rand.Intn(lookback))
	start := end.AddDate(0, 0, -window)
	return start, end
}

func (b *InventoryBalancer) randomKeyword() string {
	return searchKeywords[b.Rand.Intn(len(searchKeywords))]
}

func (b *InventoryBalancer) batchCap() int {
	if b.Config.MaxVideosPerBatch <= 0 {
		return 10
	}
	return b.Config.MaxVideosPerBatch
}

func (b *InventoryBalancer) pageSize() int {
	if b.Config.PageSize <= 0 {
		return 100
	}
	return b.Config.PageSize
}

func (b *InventoryBalancer) fetchCooldown() time.Duration {
	if b.Config.FetchCooldown <= 0 {
		return 5 * time.Second
	}
	return b.Config.FetchCooldown
}
