package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pililokal/merchant-ops/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = eris.New("not found")

// Store defines the persistence interface for the dashboard. It is injected
// into commands and handlers rather than referenced as a package singleton,
// so tests can substitute a mock.
type Store interface {
	// Leads. ReplaceLeads deletes every existing lead and bulk-inserts the
	// supplied rows, returning the count inserted; an empty input still
	// deletes. UpdateLead with a zero patch performs no write.
	ReplaceLeads(ctx context.Context, leads []model.Lead) (int, error)
	ListLeads(ctx context.Context) ([]model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	UpdateLead(ctx context.Context, id string, patch model.LeadPatch) error
	UpdateLeadStage(ctx context.Context, id string, stage model.Stage) error
	DeleteLead(ctx context.Context, id string) error

	// Merchants. Create/Update replace the approved-product rows wholesale.
	// Every mutation stamps last_updated_at and last_updated_by_id.
	// DeleteMerchant cascades to activity logs and product approvals.
	CreateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) (*model.Merchant, error)
	UpdateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) error
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)
	ListMerchants(ctx context.Context) ([]model.Merchant, error)
	ListMerchantsByIDs(ctx context.Context, ids []string) ([]model.Merchant, error)
	UpdateMerchantStatus(ctx context.Context, id string, status model.ShopifyStatus, userID string) error
	TouchMerchant(ctx context.Context, id, userID string) error
	DeleteMerchant(ctx context.Context, id string) error

	// Activity trail, append-only.
	AppendActivity(ctx context.Context, entry *model.ActivityLog) error
	ListActivity(ctx context.Context, merchantID string) ([]model.ActivityLog, error)

	// Users. Accounts are deactivated via SetUserActive, never deleted.
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.Role) error
	SetUserActive(ctx context.Context, id string, active bool) error
	SetUserPassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
