package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/TierFox/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Upsert writes the row keyed by (subscriber_address, creator_address).
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subscriber_address"},
			{Name: "creator_address"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier_id",
			"expiry",
			"verified_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Re-read the row: on the update path LastInsertId does not carry the
	// existing id, and created_at must reflect the original insert.
	var stored models.Subscription
	if err := db.Where("subscriber_address = ? AND creator_address = ?", sub.SubscriberAddress, sub.CreatorAddress).
		First(&stored).Error; err != nil {
		return err
	}
	*sub = stored
	return nil
}

// Get retrieves the cached membership of one subscriber at one creator
func (r *subscriptionRepository) Get(ctx context.Context, subscriberAddress, creatorAddress string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("subscriber_address = ? AND creator_address = ?", subscriberAddress, creatorAddress).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

// List filters by subscriber and/or creator; empty arguments are ignored
func (r *subscriptionRepository) List(ctx context.Context, subscriberAddress, creatorAddress string) ([]models.Subscription, error) {
	q := r.db.WithContext(ctx).Model(&models.Subscription{})
	if subscriberAddress != "" {
		q = q.Where("subscriber_address = ?", subscriberAddress)
	}
	if creatorAddress != "" {
		q = q.Where("creator_address = ?", creatorAddress)
	}
	var subs []models.Subscription
	err := q.Order("expiry DESC").Find(&subs).Error
	return subs, err
}

// ListActiveByCreator returns cached memberships whose expiry lies after now
func (r *subscriptionRepository) ListActiveByCreator(ctx context.Context, creatorAddress string, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("creator_address = ? AND expiry > ?", creatorAddress, now).
		Order("created_at ASC").Find(&subs).Error
	return subs, err
}

// CountActiveByCreator counts cached memberships whose expiry lies after now
func (r *subscriptionRepository) CountActiveByCreator(ctx context.Context, creatorAddress string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("creator_address = ? AND expiry > ?", creatorAddress, now).
		Count(&count).Error
	return count, err
}
