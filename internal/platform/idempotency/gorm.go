package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordRow is the persisted shape of an idempotency record.
type recordRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	RequestKey     string `gorm:"size:255"`
	Fingerprint    string `gorm:"size:64"`
	Status         string `gorm:"size:16"`
	ResponseStatus int
	ResponseBody   []byte `gorm:"type:mediumblob"`
	ContentType    string `gorm:"size:128"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time `gorm:"index"`
}

func (recordRow) TableName() string { return "idempotency_records" }

// GormStore persists idempotency records in the relational database so replay
// protection survives restarts and is shared between instances.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a database-backed idempotency store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("idempotency: db is required")
	}
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("idempotency: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Reserve implements the Store interface.
func (s *GormStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id := storageKey(key)
	fresh := recordRow{
		ID:          id,
		RequestKey:  key,
		Fingerprint: fingerprint,
		Status:      string(StatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	var reservation Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			reservation = Reservation{State: ReservationStateNew, Record: rowToRecord(fresh)}
			return nil
		}

		var existing recordRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "id = ?", id).Error; err != nil {
			return err
		}

		if !existing.ExpiresAt.IsZero() && !now.Before(existing.ExpiresAt) {
			if err := tx.Model(&recordRow{}).Where("id = ?", id).
				Updates(map[string]interface{}{
					"request_key":     key,
					"fingerprint":     fingerprint,
					"status":          string(StatusPending),
					"response_status": 0,
					"response_body":   nil,
					"content_type":    "",
					"updated_at":      now,
					"expires_at":      now.Add(ttl),
				}).Error; err != nil {
				return err
			}
			reservation = Reservation{State: ReservationStateNew, Record: rowToRecord(fresh)}
			return nil
		}

		if existing.Fingerprint != fingerprint {
			return ErrFingerprintMismatch
		}
		if Status(existing.Status) == StatusCompleted {
			reservation = Reservation{State: ReservationStateCompleted, Record: rowToRecord(existing)}
			return nil
		}
		reservation = Reservation{State: ReservationStatePending, Record: rowToRecord(existing)}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrFingerprintMismatch) {
			return Reservation{}, ErrFingerprintMismatch
		}
		return Reservation{}, fmt.Errorf("idempotency: reserve: %w", err)
	}
	return reservation, nil
}

// SaveResponse implements the Store interface.
func (s *GormStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id := storageKey(key)
	res := s.db.WithContext(ctx).Model(&recordRow{}).
		Where("id = ? AND fingerprint = ?", id, fingerprint).
		Updates(map[string]interface{}{
			"status":          string(StatusCompleted),
			"response_status": resp.Status,
			"response_body":   resp.Body,
			"content_type":    resp.ContentType,
			"updated_at":      now,
			"expires_at":      now.Add(ttl),
		})
	if res.Error != nil {
		return fmt.Errorf("idempotency: save response: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFingerprintMismatch
	}
	return nil
}

// Release deletes the reservation so that subsequent attempts may retry.
func (s *GormStore) Release(ctx context.Context, key, fingerprint string) error {
	err := s.db.WithContext(ctx).
		Where("id = ? AND fingerprint = ?", storageKey(key), fingerprint).
		Delete(&recordRow{}).Error
	if err != nil {
		return fmt.Errorf("idempotency: release: %w", err)
	}
	return nil
}

// CleanupExpired removes records past their expiry, up to limit rows.
func (s *GormStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []string
	if err := s.db.WithContext(ctx).Model(&recordRow{}).
		Where("expires_at <= ?", now.UTC()).
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("idempotency: cleanup scan: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&recordRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("idempotency: cleanup delete: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func rowToRecord(row recordRow) Record {
	return Record{
		Key:            row.RequestKey,
		Fingerprint:    row.Fingerprint,
		Status:         Status(row.Status),
		ResponseStatus: row.ResponseStatus,
		ResponseBody:   row.ResponseBody,
		ContentType:    row.ContentType,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		ExpiresAt:      row.ExpiresAt,
	}
}
