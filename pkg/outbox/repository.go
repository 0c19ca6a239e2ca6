package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
)

var errTxRequired = errors.New("outbox: transaction required")

// maxErrorLen bounds last_error and dlq error_message.
const maxErrorLen = 1024

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// pending orders undelivered rows oldest first, id breaking ties.
func pending(q *gorm.DB) *gorm.DB {
	return q.Where("published_at IS NULL").Order("created_at ASC").Order("id ASC")
}

func byID(id uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return q.Where("id = ?", id) }
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedTx claims a batch with FOR UPDATE SKIP LOCKED so parallel
// publishers never pick the same row. The sqlite dialect drops the clause.
func (r *Repository) FetchUnpublishedTx(tx *gorm.DB, limit int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	var rows []models.OutboxEvent
	err := tx.Scopes(pending).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FetchUnpublished reads without claiming.
func (r *Repository) FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.WithContext(ctx).Scopes(pending).Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&models.OutboxEvent{}).Scopes(byID(id)).Update("published_at", at).Error
}

// MarkFailedTx records the latest error and bumps attempt_count in SQL so
// the counter stays correct even if the caller's copy is stale.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	return tx.Model(&models.OutboxEvent{}).Scopes(byID(id)).Updates(map[string]any{
		"last_error":    clip(cause.Error()),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}).Error
}

// DeleteTx removes a row after it has been copied to the DLQ.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Scopes(byID(id)).Delete(&models.OutboxEvent{}).Error
}

// CountForAggregate reports how many events a booking, product or blockout
// has emitted.
func (r *Repository) CountForAggregate(ctx context.Context, aggregateID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("aggregate_id = ?", aggregateID).Count(&n).Error
	return n, err
}

// DeletePublishedBefore prunes rows published before cutoff. Unpublished rows
// are never touched. A nil tx runs outside any transaction.
func (r *Repository) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := orDefault(tx, r.db).WithContext(ctx).
		Where("published_at IS NOT NULL").
		Where("published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func orDefault(tx, fallback *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fallback
}

// clip cuts msg to maxErrorLen bytes without splitting a UTF-8 sequence.
func clip(msg string) string {
	if len(msg) <= maxErrorLen {
		return msg
	}
	cut := maxErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
