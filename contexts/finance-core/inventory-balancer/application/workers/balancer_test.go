package workers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/adapters/memory"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application/workers"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	domainerrors "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/errors"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"
)

// staticRand pins every random decision: zero date offset, first keyword,
// and a shuffle that preserves encounter order.
type staticRand struct{}

func (staticRand) Intn(int) int                { return 0 }
func (staticRand) Shuffle(int, func(i, j int)) {}

type stubSearcher struct {
	mu         sync.Mutex
	calls      int
	candidates []entities.Candidate
	err        error
}

func (s *stubSearcher) Search(_ context.Context, _ ports.SearchRequest) ([]entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entities.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

func (s *stubSearcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func candidate(id string, seconds int) entities.Candidate {
	return entities.Candidate{
		YouTubeID:      id,
		Title:          "candidate " + id,
		DurationMillis: int64(seconds) * 1000,
	}
}

func testConfig() workers.Config {
	return workers.Config{
		Query:               "xQc",
		WorkingCapitalFloor: 5,
		TargetRatio:         0.8,
		DeadBand:            0.25,
		MaxVideosPerBatch:   10,
		PageSize:            100,
		FetchCooldown:       5 * time.Second,
		LookbackDays:        730,
		DateWindowDays:      30,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBalancer(store *memory.Store, search ports.VideoSearcher) *workers.InventoryBalancer {
	return &workers.InventoryBalancer{
		Finance: store,
		Videos:  store,
		Search:  search,
		Clock:   store,
		IDGen:   store,
		Rand:    staticRand{},
		Config:  testConfig(),
		Logger:  quietLogger(),
	}
}

// seedFinance sets up capital 100, pending payouts 20, base rate 1:
// available balance 80, target video value 64.
func seedFinance(store *memory.Store) {
	store.SetBaseRate(1)
	store.SetWorkingCapital(100)
	store.AddPayout(20, "pending")
	store.AddPayout(50, "completed")
	store.SetNow(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
}

func availableValue(store *memory.Store, baseRate float64) float64 {
	var total float64
	for _, video := range store.AvailableVideos() {
		total += video.Cost(baseRate)
	}
	return total
}

func TestCycleGrowsToTargetAndConverges(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	store.SeedVideo(entities.Video{YouTubeID: "held-1", DurationSeconds: 600})
	store.SeedVideo(entities.Video{YouTubeID: "held-2", DurationSeconds: 600})

	search := &stubSearcher{candidates: []entities.Candidate{
		candidate("a", 300), // 10
		candidate("b", 240), // 8
		candidate("c", 180), // 6
		candidate("d", 150), // 5
	}}
	balancer := newTestBalancer(store, search)

	ran, err := balancer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("grow cycle failed: %v", err)
	}
	if !ran {
		t.Fatalf("expected the cycle to run")
	}

	// Needed 24: accepts a, b, c (exactly 24) and skips d.
	if got := availableValue(store, 1); got != 64 {
		t.Fatalf("expected inventory value 64 after grow, got %v", got)
	}
	if store.HasYouTubeID("d") {
		t.Fatalf("expected candidate d to be skipped for exceeding the budget")
	}
	if search.Calls() != 3 {
		t.Fatalf("expected 3 search arms in one fetch, got %d", search.Calls())
	}

	// A converged cycle is a no-op: no fetches, no inserts, no deletes.
	store.Advance(10 * time.Second)
	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("converged cycle failed: %v", err)
	}
	if got := availableValue(store, 1); got != 64 {
		t.Fatalf("expected inventory value unchanged at 64, got %v", got)
	}
	if search.Calls() != 3 {
		t.Fatalf("expected no further searches after convergence, got %d", search.Calls())
	}
}

func TestCycleSkipsBelowCapitalFloor(t *testing.T) {
	store := memory.NewStore()
	store.SetBaseRate(1)
	store.SetWorkingCapital(10)
	store.AddPayout(6, "pending") // available 4, below floor 5

	search := &stubSearcher{candidates: []entities.Candidate{candidate("a", 300)}}
	balancer := newTestBalancer(store, search)

	ran, err := balancer.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("cycle should run and succeed, ran=%v err=%v", ran, err)
	}
	if search.Calls() != 0 {
		t.Fatalf("expected no searches below the capital floor, got %d", search.Calls())
	}
	if len(store.AvailableVideos()) != 0 {
		t.Fatalf("expected no inserts below the capital floor")
	}
}

func TestCycleNoopInsideDeadBand(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	// 20 + 20 + 23.9 = 63.9, within 0.25 of the 64 target.
	store.SeedVideo(entities.Video{YouTubeID: "held-1", DurationSeconds: 600})
	store.SeedVideo(entities.Video{YouTubeID: "held-2", DurationSeconds: 600})
	store.SeedVideo(entities.Video{YouTubeID: "held-3", DurationSeconds: 717})

	search := &stubSearcher{candidates: []entities.Candidate{candidate("a", 300)}}
	balancer := newTestBalancer(store, search)

	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("dead-band cycle failed: %v", err)
	}
	if search.Calls() != 0 {
		t.Fatalf("expected no searches inside the dead-band, got %d", search.Calls())
	}
	if len(store.AvailableVideos()) != 3 {
		t.Fatalf("expected inventory untouched inside the dead-band")
	}
}

func TestGrowEnforcesBatchCap(t *testing.T) {
	store := memory.NewStore()
	store.SetBaseRate(1)
	store.SetWorkingCapital(1000) // target 800, plenty of budget

	var candidates []entities.Candidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, candidate("bulk-"+string(rune('a'+i%26))+string(rune('a'+i/26)), 30))
	}
	search := &stubSearcher{candidates: candidates}
	balancer := newTestBalancer(store, search)

	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("grow cycle failed: %v", err)
	}
	if got := len(store.AvailableVideos()); got != 10 {
		t.Fatalf("expected exactly 10 inserts under the batch cap, got %d", got)
	}
}

func TestGrowTreatsStoreDuplicateAsSkip(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	store.SeedVideo(entities.Video{YouTubeID: "held-1", DurationSeconds: 600})
	store.SeedVideo(entities.Video{YouTubeID: "held-2", DurationSeconds: 600})
	// Already in inventory but claimed, so it is invisible to the balancer's
	// value sum yet still collides on youtube_id at insert time.
	store.SeedVideo(entities.Video{
		YouTubeID:       "dup",
		DurationSeconds: 300,
		Status:          entities.VideoStatusClaimed,
	})

	search := &stubSearcher{candidates: []entities.Candidate{
		candidate("dup", 300), // duplicate key on insert
		candidate("b", 240),
		candidate("c", 180),
	}}
	balancer := newTestBalancer(store, search)

	ran, err := balancer.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("duplicate must not fail the cycle, ran=%v err=%v", ran, err)
	}
	if !store.HasYouTubeID("b") || !store.HasYouTubeID("c") {
		t.Fatalf("expected the batch to continue past the duplicate")
	}
	// 40 held + 8 + 6; the duplicate contributed nothing.
	if got := availableValue(store, 1); got != 54 {
		t.Fatalf("expected inventory value 54, got %v", got)
	}
}

func TestGrowRespectsFetchCooldown(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)

	search := &stubSearcher{candidates: []entities.Candidate{candidate("a", 300)}}
	balancer := newTestBalancer(store, search)

	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("first grow cycle failed: %v", err)
	}
	if search.Calls() != 3 {
		t.Fatalf("expected one fetch fan-out, got %d calls", search.Calls())
	}

	// Still far from target, but inside the cooldown window: no fetch.
	store.Advance(2 * time.Second)
	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("cooldown cycle failed: %v", err)
	}
	if search.Calls() != 3 {
		t.Fatalf("expected fetch skipped inside cooldown, got %d calls", search.Calls())
	}

	store.Advance(6 * time.Second)
	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("post-cooldown cycle failed: %v", err)
	}
	if search.Calls() != 6 {
		t.Fatalf("expected a second fetch after cooldown, got %d calls", search.Calls())
	}
}

func TestSearchFailureIsTransient(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)

	search := &stubSearcher{err: errors.New("quota exceeded")}
	balancer := newTestBalancer(store, search)

	ran, err := balancer.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("search failure must not fail the cycle, ran=%v err=%v", ran, err)
	}
	if len(store.AvailableVideos()) != 0 {
		t.Fatalf("expected no inserts when search fails")
	}
}

func TestShrinkRemovesHighestDurationFirst(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	long := store.SeedVideo(entities.Video{YouTubeID: "long", DurationSeconds: 1200}) // 40
	store.SeedVideo(entities.Video{YouTubeID: "mid", DurationSeconds: 600})           // 20
	store.SeedVideo(entities.Video{YouTubeID: "short", DurationSeconds: 300})         // 10

	balancer := newTestBalancer(store, &stubSearcher{})

	// Current 70 vs target 64: excess 6, so the single longest video goes.
	if _, err := balancer.RunOnce(context.Background()); err != nil {
		t.Fatalf("shrink cycle failed: %v", err)
	}

	if store.HasYouTubeID("long") {
		t.Fatalf("expected the longest video %s to be removed first", long.ID)
	}
	if !store.HasYouTubeID("mid") || !store.HasYouTubeID("short") {
		t.Fatalf("expected shorter videos to survive the shrink")
	}
}

// claimOnDelete claims a specific video right before the balancer's delete
// reaches it, simulating a transcriber grabbing work mid-shrink.
type claimOnDelete struct {
	*memory.Store
	targetID string
	tripped  bool
}

func (c *claimOnDelete) DeleteIfAvailable(ctx context.Context, videoID string) (bool, error) {
	if videoID == c.targetID && !c.tripped {
		c.tripped = true
		c.Store.ClaimVideo(videoID)
	}
	return c.Store.DeleteIfAvailable(ctx, videoID)
}

func TestShrinkSkipsConcurrentlyClaimedVideo(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	long := store.SeedVideo(entities.Video{YouTubeID: "long", DurationSeconds: 1200})
	store.SeedVideo(entities.Video{YouTubeID: "mid", DurationSeconds: 600})
	store.SeedVideo(entities.Video{YouTubeID: "short", DurationSeconds: 300})

	videos := &claimOnDelete{Store: store, targetID: long.ID}
	balancer := newTestBalancer(store, &stubSearcher{})
	balancer.Videos = videos

	ran, err := balancer.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("claim race must not fail the cycle, ran=%v err=%v", ran, err)
	}

	// The claimed video survives and the shrink falls through to the next
	// longest one.
	if !store.HasYouTubeID("long") {
		t.Fatalf("expected the claimed video to survive the shrink")
	}
	if store.HasYouTubeID("mid") {
		t.Fatalf("expected the next longest video to be removed instead")
	}
	if !store.HasYouTubeID("short") {
		t.Fatalf("expected the shortest video to survive")
	}
}

func TestCycleAbortsWhenFinanceUnavailable(t *testing.T) {
	store := memory.NewStore()
	seedFinance(store)
	store.SetReadError(errors.New("connection refused"))

	search := &stubSearcher{candidates: []entities.Candidate{candidate("a", 300)}}
	balancer := newTestBalancer(store, search)

	ran, err := balancer.RunOnce(context.Background())
	if !ran {
		t.Fatalf("expected the cycle to run")
	}
	if !errors.Is(err, domainerrors.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if search.Calls() != 0 {
		t.Fatalf("expected no searches when financial state is unavailable")
	}
}

// blockingFinance parks the first financial read until released so a second
// RunOnce can be attempted mid-cycle.
type blockingFinance struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *blockingFinance) BaseRate(context.Context) (float64, error) {
	f.once.Do(func() { close(f.entered) })
	<-f.release
	return 1, nil
}

func (f *blockingFinance) WorkingCapital(context.Context) (float64, error) { return 100, nil }
func (f *blockingFinance) PendingPayouts(context.Context) (float64, error) { return 20, nil }

func TestReentrancyGuardSkipsOverlappingCycle(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	finance := &blockingFinance{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	balancer := newTestBalancer(store, &stubSearcher{})
	balancer.Finance = finance

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		if _, err := balancer.RunOnce(context.Background()); err != nil {
			t.Errorf("first cycle failed: %v", err)
		}
	}()

	<-finance.entered
	ran, err := balancer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("guarded cycle errored: %v", err)
	}
	if ran {
		t.Fatalf("expected the overlapping cycle to be skipped")
	}

	close(finance.release)
	<-firstDone

	// With the first cycle finished the guard releases again.
	store.Advance(10 * time.Second)
	if ran, err := balancer.RunOnce(context.Background()); err != nil || !ran {
		t.Fatalf("expected a fresh cycle after the guard released, ran=%v err=%v", ran, err)
	}
}
