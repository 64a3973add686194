package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filehost/backend/internal/domain/account"
	"github.com/filehost/backend/internal/domain/shared"
)

// AccountRepository is the GORM implementation of account.Repository
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID loads an account by its ID
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var acc account.Account
	err := r.db.WithContext(ctx).First(&acc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// FindByCustomerID loads an account by its provider customer ID
func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	var acc account.Account
	err := r.db.WithContext(ctx).First(&acc, "stripe_customer_id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// UpdatePlanAndLimit persists the mirrored plan state. An empty customerID
// leaves the stored customer link untouched.
func (r *AccountRepository) UpdatePlanAndLimit(ctx context.Context, id uuid.UUID, plan account.Plan, uploadLimit int64, customerID string) error {
	updates := map[string]interface{}{
		"plan":         plan,
		"upload_limit": uploadLimit,
	}
	if customerID != "" {
		updates["stripe_customer_id"] = customerID
	}

	result := r.db.WithContext(ctx).
		Model(&account.Account{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetBanned sets or clears (until == nil) the ban marker on the account's
// identity. A missing identity row is created on demand so deactivation
// always leaves a marker behind.
func (r *AccountRepository) SetBanned(ctx context.Context, id uuid.UUID, until *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&account.Identity{}).
		Where("account_id = ?", id).
		Update("banned_until", until)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	acc, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	identity := account.Identity{
		AccountID:   id,
		Email:       acc.Email,
		BannedUntil: until,
	}
	return r.db.WithContext(ctx).Create(&identity).Error
}

// SetActive flags the account active or inactive
func (r *AccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&account.Account{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByPlan counts accounts on the given plan
func (r *AccountRepository) CountByPlan(ctx context.Context, plan account.Plan) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&account.Account{}).
		Where("plan = ?", plan).
		Count(&count).Error
	return count, err
}

// DeleteOwnedContent removes every upload owned by the account
func (r *AccountRepository) DeleteOwnedContent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ?", id).
		Delete(&account.Upload{}).Error
}

// Delete removes the account row
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&account.Account{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteIdentity removes the account's identity row
func (r *AccountRepository) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ?", id).
		Delete(&account.Identity{}).Error
}

var _ account.Repository = (*AccountRepository)(nil)
