// Package gormstore is the relational persistence adapter. It backs every
// service-side store interface with a single gorm handle over Postgres in
// production or SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/savator12/agriadapt/internal/domain"
)

// Store wraps a gorm handle with the portal's persistence operations.
type Store struct {
	db *gorm.DB
}

// Open connects to the database. Driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing gorm handle, mainly for tests.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the portal's tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.Kebele{},
		&domain.FarmerProfile{},
		&domain.Subscription{},
		&domain.WeatherSnapshot{},
		&domain.Advisory{},
		&domain.Alert{},
	)
}

// Ping verifies database connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// FarmerByID loads a farmer with their kebele preloaded.
func (s *Store) FarmerByID(ctx context.Context, id uuid.UUID) (*domain.FarmerProfile, error) {
	var farmer domain.FarmerProfile
	err := s.db.WithContext(ctx).Preload("Kebele").First(&farmer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load farmer: %w", err)
	}
	return &farmer, nil
}

// CreateFarmer persists a farmer profile.
func (s *Store) CreateFarmer(ctx context.Context, farmer *domain.FarmerProfile) error {
	return s.db.WithContext(ctx).Create(farmer).Error
}

// CreateKebele persists a kebele.
func (s *Store) CreateKebele(ctx context.Context, kebele *domain.Kebele) error {
	return s.db.WithContext(ctx).Create(kebele).Error
}

// CreateSubscription persists a subscription.
func (s *Store) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

// HasActiveSubscription reports whether the farmer has at least one ACTIVE
// subscription.
func (s *Store) HasActiveSubscription(ctx context.Context, farmerID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("farmer_id = ? AND status = ?", farmerID, domain.SubscriptionActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count subscriptions: %w", err)
	}
	return count > 0, nil
}

// ActiveFarmerIDs lists farmers with consent and an ACTIVE subscription.
func (s *Store) ActiveFarmerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&domain.FarmerProfile{}).
		Distinct("farmer_profiles.id").
		Joins("JOIN subscriptions ON subscriptions.farmer_id = farmer_profiles.id").
		Where("farmer_profiles.consent = ? AND subscriptions.status = ?", true, domain.SubscriptionActive).
		Order("farmer_profiles.id").
		Pluck("farmer_profiles.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active farmers: %w", err)
	}
	return ids, nil
}

// LatestSnapshot returns the newest snapshot for the kebele created at or
// after since, or (nil, nil) when none qualifies.
func (s *Store) LatestSnapshot(ctx context.Context, kebeleID uuid.UUID, since time.Time) (*domain.WeatherSnapshot, error) {
	var snapshot domain.WeatherSnapshot
	err := s.db.WithContext(ctx).
		Where("kebele_id = ? AND created_at >= ?", kebeleID, since).
		Order("created_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snapshot, nil
}

// CreateSnapshot persists a weather snapshot.
func (s *Store) CreateSnapshot(ctx context.Context, snapshot *domain.WeatherSnapshot) error {
	return s.db.WithContext(ctx).Create(snapshot).Error
}

// CreateAdvisory persists an advisory row.
func (s *Store) CreateAdvisory(ctx context.Context, advisory *domain.Advisory) error {
	return s.db.WithContext(ctx).Create(advisory).Error
}

// AdvisoryByID loads a stored advisory.
func (s *Store) AdvisoryByID(ctx context.Context, id uuid.UUID) (*domain.Advisory, error) {
	var advisory domain.Advisory
	err := s.db.WithContext(ctx).First(&advisory, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load advisory: %w", err)
	}
	return &advisory, nil
}

// CreateAlert persists a queued alert.
func (s *Store) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

// AlertByID loads one alert.
func (s *Store) AlertByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	var alert domain.Alert
	err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load alert: %w", err)
	}
	return &alert, nil
}

// DueQueuedAlerts returns up to limit QUEUED alerts due at or before now,
// oldest first.
func (s *Store) DueQueuedAlerts(ctx context.Context, now time.Time, limit int) ([]domain.Alert, error) {
	var alerts []domain.Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND schedule_time <= ?", domain.AlertQueued, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("select due alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertSent conditionally transitions a QUEUED alert to SENT. The update
// applies only while the alert is still QUEUED with the expected attempt
// count; a false return means a concurrent pass already moved it.
func (s *Store) MarkAlertSent(ctx context.Context, alertID uuid.UUID, prevAttempts int, providerMessageID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.Alert{}).
		Where("id = ? AND status = ? AND attempts = ?", alertID, domain.AlertQueued, prevAttempts).
		Updates(map[string]any{
			"status":              domain.AlertSent,
			"attempts":            prevAttempts + 1,
			"provider_message_id": providerMessageID,
			"last_attempt_at":     at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark alert sent: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkAlertFailure conditionally records a failed delivery attempt. The alert
// stays QUEUED until the attempt cap, then transitions to FAILED.
func (s *Store) MarkAlertFailure(ctx context.Context, alertID uuid.UUID, prevAttempts int, at time.Time) (bool, error) {
	status := domain.AlertQueued
	if prevAttempts+1 >= domain.MaxDeliveryAttempts {
		status = domain.AlertFailed
	}
	res := s.db.WithContext(ctx).Model(&domain.Alert{}).
		Where("id = ? AND status = ? AND attempts = ?", alertID, domain.AlertQueued, prevAttempts).
		Updates(map[string]any{
			"status":          status,
			"attempts":        prevAttempts + 1,
			"last_attempt_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark alert failure: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CancelAlert conditionally transitions a QUEUED alert to CANCELLED without
// touching the attempt counter.
func (s *Store) CancelAlert(ctx context.Context, alertID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.Alert{}).
		Where("id = ? AND status = ?", alertID, domain.AlertQueued).
		Update("status", domain.AlertCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("cancel alert: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
