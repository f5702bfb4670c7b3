package youtubeadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"
)

const moduleName = "finance-core/inventory-balancer"

// searchPageMax is the hard page-size ceiling of the search.list endpoint.
const searchPageMax = 50

// Searcher finds candidate videos through the YouTube Data API v3.
// search.list yields IDs and snippets; durations come from a follow-up
// videos.list call on contentDetails.
type Searcher struct {
	service *youtube.Service
	timeout time.Duration
	logger  *slog.Logger
}

func NewSearcher(ctx context.Context, apiKey string, timeout time.Duration, logger *slog.Logger) (*Searcher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("youtube api key is required")
	}
	service, err := youtube.NewService(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		service: service,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (s *Searcher) Search(ctx context.Context, req ports.SearchRequest) ([]entities.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	limit := req.Limit
	if limit <= 0 {
		limit = searchPageMax
	}

	var order []string
	titles := make(map[string]string)
	uploads := make(map[string]time.Time)

	pageToken := ""
	for len(order) < limit {
		pageSize := int64(limit - len(order))
		if pageSize > searchPageMax {
			pageSize = searchPageMax
		}

		call := s.service.Search.List([]string{"snippet"}).
			Context(ctx).
			Q(req.Query).
			Type("video").
			MaxResults(pageSize)
		if req.SortBy != "" {
			call = call.Order(apiOrder(req.SortBy))
		}
		if req.SafeSearch {
			call = call.SafeSearch("strict")
		}
		if req.UploadedAfter != nil {
			call = call.PublishedAfter(req.UploadedAfter.UTC().Format(time.RFC3339))
		}
		if req.UploadedBefore != nil {
			call = call.PublishedBefore(req.UploadedBefore.UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("youtube search: %w", err)
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			videoID := item.Id.VideoId
			if _, ok := titles[videoID]; ok {
				continue
			}
			order = append(order, videoID)
			if item.Snippet != nil {
				titles[videoID] = item.Snippet.Title
				if uploadedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
					uploads[videoID] = uploadedAt
				}
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	durations, err := s.durations(ctx, order)
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.Candidate, 0, len(order))
	for _, videoID := range order {
		millis, ok := durations[videoID]
		if !ok || millis <= 0 {
			// Live or premiere entries carry no usable duration.
			continue
		}
		candidates = append(candidates, entities.Candidate{
			YouTubeID:      videoID,
			Title:          titles[videoID],
			DurationMillis: millis,
			UploadedAt:     uploads[videoID],
		})
	}

	s.logger.Debug("youtube search completed",
		"event", "youtube_search_completed",
		"module", moduleName,
		"layer", "adapter",
		"query", req.Query,
		"result_count", len(candidates),
	)
	return candidates, nil
}

// durations resolves contentDetails for the found IDs in API-sized chunks.
func (s *Searcher) durations(ctx context.Context, videoIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(videoIDs))
	for start := 0; start < len(videoIDs); start += searchPageMax {
		end := start + searchPageMax
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		resp, err := s.service.Videos.List([]string{"contentDetails"}).
			Context(ctx).
			Id(videoIDs[start:end]...).
			MaxResults(searchPageMax).
			Do()
		if err != nil {
			return nil, fmt.Errorf("youtube video details: %w", err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails == nil {
				continue
			}
			duration, err := ParseISODuration(item.ContentDetails.Duration)
			if err != nil {
				continue
			}
			out[item.Id] = duration.Milliseconds()
		}
	}
	return out, nil
}

func apiOrder(sortBy string) string {
	switch sortBy {
	case "date", "rating", "viewCount":
		return sortBy
	default:
		return "relevance"
	}
}

var _ ports.VideoSearcher = (*Searcher)(nil)
