package workers

import (
	"context"
	"sort"

	application "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application"
)

// shrink removes AVAILABLE videos, highest duration first, until the
// removed value reaches excess. Removing longer videos first keeps the
// removal count low and preserves selection-pool diversity for later grow
// cycles. Deletes are status-guarded: a video claimed between listing and
// deletion is skipped and does not count toward the removed value.
func (b *InventoryBalancer) shrink(ctx context.Context, excess, baseRate float64) float64 {
	logger := application.ResolveLogger(b.Logger)

	videos, err := b.Videos.ListAvailable(ctx)
	if err != nil {
		logger.Error("shrink aborted, inventory list failed",
			"event", "balancer_shrink_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].DurationSeconds > videos[j].DurationSeconds
	})

	var removedValue float64
	var removedCount int
	for _, video := range videos {
		if removedValue >= excess {
			break
		}

		deleted, err := b.Videos.DeleteIfAvailable(ctx, video.ID)
		if err != nil {
			logger.Error("video delete failed",
				"event", "balancer_shrink_delete_failed",
				"module", moduleName,
				"layer", "worker",
				"video_id", video.ID,
				"youtube_id", video.YouTubeID,
				"error", err.Error(),
			)
			continue
		}
		if !deleted {
			// Claimed between listing and deletion; not ours to remove.
			logger.Debug("video no longer available, skipping",
				"event", "balancer_shrink_claimed_race",
				"module", moduleName,
				"layer", "worker",
				"video_id", video.ID,
				"youtube_id", video.YouTubeID,
			)
			continue
		}

		cost := video.Cost(baseRate)
		removedValue += cost
		removedCount++
		logger.Info("video removed",
			"event", "balancer_shrink_video_removed",
			"module", moduleName,
			"layer", "worker",
			"youtube_id", video.YouTubeID,
			"value", cost,
		)
	}

	logger.Info("shrink completed",
		"event", "balancer_shrink_completed",
		"module", moduleName,
		"layer", "worker",
		"removed_count", removedCount,
		"removed_value", removedValue,
	)
	return removedValue
}
