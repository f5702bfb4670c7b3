package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	domainerrors "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/errors"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"

	"github.com/google/uuid"
)

type payoutRecord struct {
	amount float64
	status string
}

// Store is the in-memory implementation of every balancer port used by unit
// tests and NewInMemoryModule.
type Store struct {
	mu sync.RWMutex

	baseRate       float64
	workingCapital float64
	payouts        []payoutRecord

	videos      map[string]entities.Video
	byYouTubeID map[string]string

	now     time.Time
	readErr error
}

func NewStore() *Store {
	return &Store{
		videos:      make(map[string]entities.Video),
		byYouTubeID: make(map[string]string),
	}
}

func (s *Store) SetBaseRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseRate = rate
}

func (s *Store) SetWorkingCapital(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingCapital = amount
}

func (s *Store) AddPayout(amount float64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts = append(s.payouts, payoutRecord{amount: amount, status: strings.TrimSpace(status)})
}

// SetReadError makes every repository read fail until cleared with nil.
func (s *Store) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now.IsZero() {
		s.now = time.Now().UTC()
	}
	s.now = s.now.Add(d)
}

// SeedVideo inserts a video bypassing uniqueness and status rules, for test
// fixtures. An empty ID gets a generated one.
func (s *Store) SeedVideo(video entities.Video) entities.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.Status == "" {
		video.Status = entities.VideoStatusAvailable
	}
	s.videos[video.ID] = video
	s.byYouTubeID[video.YouTubeID] = video.ID
	return video
}

// ClaimVideo flips an AVAILABLE video to CLAIMED, simulating the external
// claiming flow racing the balancer.
func (s *Store) ClaimVideo(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok || video.Status != entities.VideoStatusAvailable {
		return false
	}
	video.Status = entities.VideoStatusClaimed
	s.videos[videoID] = video
	return true
}

func (s *Store) HasYouTubeID(youtubeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byYouTubeID[youtubeID]
	return ok
}

// AvailableVideos returns a stable snapshot sorted by duration descending.
func (s *Store) AvailableVideos() []entities.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var videos []entities.Video
	for _, video := range s.videos {
		if video.Status == entities.VideoStatusAvailable {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].DurationSeconds == videos[j].DurationSeconds {
			return videos[i].YouTubeID < videos[j].YouTubeID
		}
		return videos[i].DurationSeconds > videos[j].DurationSeconds
	})
	return videos
}

func (s *Store) BaseRate(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.baseRate, nil
}

func (s *Store) WorkingCapital(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.workingCapital, nil
}

func (s *Store) PendingPayouts(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	var total float64
	for _, payout := range s.payouts {
		if payout.status == "pending" {
			total += payout.amount
		}
	}
	return total, nil
}

func (s *Store) ListAvailable(_ context.Context) ([]entities.Video, error) {
	s.mu.RLock()
	err := s.readErr
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.AvailableVideos(), nil
}

func (s *Store) DeleteIfAvailable(_ context.Context, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok || video.Status != entities.VideoStatusAvailable {
		return false, nil
	}
	delete(s.videos, videoID)
	delete(s.byYouTubeID, video.YouTubeID)
	return true, nil
}

func (s *Store) InsertAvailable(_ context.Context, video entities.Video) error {
	if strings.TrimSpace(video.YouTubeID) == "" || video.DurationSeconds <= 0 {
		return domainerrors.ErrInvalidVideoInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byYouTubeID[video.YouTubeID]; ok {
		return domainerrors.ErrDuplicateVideo
	}
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	video.Status = entities.VideoStatusAvailable
	if video.CreatedAt.IsZero() {
		if s.now.IsZero() {
			video.CreatedAt = time.Now().UTC()
		} else {
			video.CreatedAt = s.now
		}
	}
	s.videos[video.ID] = video
	s.byYouTubeID[video.YouTubeID] = video.ID
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.FinanceRepository = (*Store)(nil)
	_ ports.VideoRepository   = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
)
