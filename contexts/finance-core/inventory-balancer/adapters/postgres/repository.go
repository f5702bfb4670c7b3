package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	domainerrors "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/errors"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const moduleName = "finance-core/inventory-balancer"

const (
	paymentConfigRowID  = 1
	payoutStatusPending = "pending"

	// queryTimeout bounds every store call so a stalled connection can never
	// wedge the reconciliation loop behind its reentrancy guard.
	queryTimeout = 30 * time.Second
)

type paymentConfigModel struct {
	ID       int     `gorm:"column:id;primaryKey"`
	BaseRate float64 `gorm:"column:base_rate"`
}

func (paymentConfigModel) TableName() string { return "payment_config" }

type balanceModel struct {
	ID             int     `gorm:"column:id;primaryKey"`
	WorkingCapital float64 `gorm:"column:working_capital"`
}

func (balanceModel) TableName() string { return "balance" }

type payoutModel struct {
	ID     string  `gorm:"column:id;primaryKey"`
	Amount float64 `gorm:"column:amount"`
	Status string  `gorm:"column:status"`
}

func (payoutModel) TableName() string { return "payouts" }

type videoModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	YouTubeID string    `gorm:"column:youtube_id;uniqueIndex"`
	Title     string    `gorm:"column:title"`
	Duration  int       `gorm:"column:duration"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (videoModel) TableName() string { return "videos" }

// Repository implements the finance and video ports against postgres.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) BaseRate(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row paymentConfigModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", paymentConfigRowID).
		Take(&row).
		Error; err != nil {
		return 0, r.logError("finance_repo_base_rate_failed", err)
	}
	return row.BaseRate, nil
}

func (r *Repository) WorkingCapital(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row balanceModel
	if err := r.db.WithContext(ctx).Take(&row).Error; err != nil {
		return 0, r.logError("finance_repo_working_capital_failed", err)
	}
	return row.WorkingCapital, nil
}

func (r *Repository) PendingPayouts(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total float64
	if err := r.db.WithContext(ctx).
		Model(&payoutModel{}).
		Where("status = ?", payoutStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).
		Error; err != nil {
		return 0, r.logError("finance_repo_pending_payouts_failed", err)
	}
	return total, nil
}

func (r *Repository) ListAvailable(ctx context.Context) ([]entities.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []videoModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.VideoStatusAvailable)).
		Order("duration DESC").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("video_repo_list_available_failed", err)
	}

	videos := make([]entities.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, videoEntityFromModel(row))
	}
	return videos, nil
}

// DeleteIfAvailable issues a conditional delete guarded on status so a
// concurrently claimed video is never removed. Zero affected rows means the
// claim won the race.
func (r *Repository) DeleteIfAvailable(ctx context.Context, videoID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", strings.TrimSpace(videoID), string(entities.VideoStatusAvailable)).
		Delete(&videoModel{})
	if result.Error != nil {
		return false, r.logError("video_repo_delete_failed", result.Error,
			"video_id", strings.TrimSpace(videoID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) InsertAvailable(ctx context.Context, video entities.Video) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if strings.TrimSpace(video.YouTubeID) == "" || video.DurationSeconds <= 0 {
		r.logWarn("video_repo_insert_invalid_input",
			"youtube_id", strings.TrimSpace(video.YouTubeID),
			"duration", video.DurationSeconds,
		)
		return domainerrors.ErrInvalidVideoInput
	}

	row := videoModel{
		ID:        strings.TrimSpace(video.ID),
		YouTubeID: strings.TrimSpace(video.YouTubeID),
		Title:     video.Title,
		Duration:  video.DurationSeconds,
		Status:    string(entities.VideoStatusAvailable),
		CreatedAt: video.CreatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("video_repo_insert_duplicate",
				"youtube_id", row.YouTubeID,
			)
			return domainerrors.ErrDuplicateVideo
		}
		return r.logError("video_repo_insert_failed", err,
			"youtube_id", row.YouTubeID,
		)
	}
	return nil
}

func videoEntityFromModel(row videoModel) entities.Video {
	return entities.Video{
		ID:              row.ID,
		YouTubeID:       row.YouTubeID,
		Title:           row.Title,
		DurationSeconds: row.Duration,
		Status:          entities.VideoStatus(row.Status),
		CreatedAt:       row.CreatedAt,
	}
}

func (r *Repository) logWarn(event string, args ...any) {
	r.logger.Warn(event,
		append([]any{"event", event, "module", moduleName, "layer", "adapter"}, args...)...,
	)
}

func (r *Repository) logError(event string, err error, args ...any) error {
	r.logger.Error(event,
		append([]any{"event", event, "module", moduleName, "layer", "adapter", "error", err.Error()}, args...)...,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock satisfies ports.Clock with the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UUIDGenerator issues v4 UUIDs for new inventory rows.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.FinanceRepository = (*Repository)(nil)
	_ ports.VideoRepository   = (*Repository)(nil)
	_ ports.Clock             = SystemClock{}
	_ ports.IDGenerator       = UUIDGenerator{}
)
