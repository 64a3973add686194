package account

import (
	"strings"
	"time"

	"github.com/filehost/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Plan represents the subscription plan of an account
type Plan string

const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
)

// IsValid reports whether p is a known plan
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPlus
}

// Account is the billing-relevant view of a user account. The plan and
// upload limit mirror the subscription state held by the payment provider;
// StripeCustomerID links the account to its provider-side customer.
type Account struct {
	shared.BaseEntity
	Email            string `gorm:"type:varchar(320);not null;uniqueIndex"`
	Plan             Plan   `gorm:"type:varchar(20);not null;default:'free'"`
	UploadLimit      int64  `gorm:"not null;default:0"`
	StripeCustomerID string `gorm:"type:varchar(64);index"`
	IsActive         bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a free-plan account with the given email
func NewAccount(email string, uploadLimit int64) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.ErrInvalidInput
	}
	return &Account{
		BaseEntity:  shared.NewBaseEntity(),
		Email:       email,
		Plan:        PlanFree,
		UploadLimit: uploadLimit,
		IsActive:    true,
	}, nil
}

// IsPaying reports whether the account is on a paid plan
func (a *Account) IsPaying() bool {
	return a.Plan != PlanFree
}

// Identity is the credential row tied to an account. The ban marker lives
// here so a deactivated account cannot authenticate.
type Identity struct {
	AccountID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"type:varchar(320);not null;uniqueIndex"`
	BannedUntil *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (Identity) TableName() string {
	return "identities"
}

// IsBanned reports whether the identity carries an unexpired ban marker
func (i *Identity) IsBanned(now time.Time) bool {
	return i.BannedUntil != nil && i.BannedUntil.After(now)
}

// Upload is a content row owned by an account. The engine only ever deletes
// these in bulk during account deletion.
type Upload struct {
	shared.BaseEntity
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(500);not null"`
	SizeBytes int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Upload) TableName() string {
	return "uploads"
}
