package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pililokal/merchant-ops/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteLeadLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.ReplaceLeads(ctx, []model.Lead{
		{
			SourceSheet:       model.SheetPHConfirmed,
			MerchantName:      "Sari Sweets",
			Stage:             model.StageSampleReceived,
			Country:           model.CountryPH,
			SocialScore:       3,
			NeedsFollowup:     true,
			LastActivityDates: []string{"12/5", "12/8"},
		},
		{
			SourceSheet:  model.SheetUSNewLeads,
			MerchantName: "Brooklyn Bagels",
			Stage:        model.StageContacted,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	first := leads[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Sari Sweets", first.MerchantName)
	assert.Equal(t, model.StageSampleReceived, first.Stage)
	assert.Equal(t, []string{"12/5", "12/8"}, first.LastActivityDates)
	assert.True(t, first.NeedsFollowup)
	assert.Equal(t, model.StatusNotStarted, first.ShopifyStatus)

	got, err := s.GetLead(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.MerchantName, got.MerchantName)

	name := "Sari Sweets PH"
	notes := "shipped 12/20"
	require.NoError(t, s.UpdateLead(ctx, first.ID, model.LeadPatch{MerchantName: &name, StatusNotes: &notes}))
	got, err = s.GetLead(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sari Sweets PH", got.MerchantName)
	assert.Equal(t, "shipped 12/20", got.StatusNotes)

	require.NoError(t, s.UpdateLeadStage(ctx, first.ID, model.StageConverted))
	got, err = s.GetLead(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageConverted, got.Stage)

	require.NoError(t, s.DeleteLead(ctx, first.ID))
	_, err = s.GetLead(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteReplaceLeadsIsDestructive(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.ReplaceLeads(ctx, []model.Lead{
		{SourceSheet: model.SheetPHNewLeads, MerchantName: "Old"},
	})
	require.NoError(t, err)

	_, err = s.ReplaceLeads(ctx, []model.Lead{
		{SourceSheet: model.SheetPHNewLeads, MerchantName: "New One"},
		{SourceSheet: model.SheetPHNewLeads, MerchantName: "New Two"},
	})
	require.NoError(t, err)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	for _, l := range leads {
		assert.NotEqual(t, "Old", l.MerchantName)
	}
}

func TestSQLiteMerchantLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.CreateMerchant(ctx, &model.Merchant{
		Name:          "Sari Sweets",
		Category:      "Food",
		SelectionMode: model.SelectionSelectedOnly,
	}, []model.ProductApproval{
		{ProductName: "Ube Jam", ProductURL: "https://example.com/ube"},
		{ProductName: "Polvoron"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 2, created.ApprovedCount)
	assert.Equal(t, model.StatusNotStarted, created.ShopifyStatus)

	got, err := s.GetMerchant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sari Sweets", got.Name)
	assert.Equal(t, 2, got.ApprovedCount)
	require.Len(t, got.ApprovedProducts, 2)

	// Update replaces approvals wholesale.
	got.Phone = "0917 111 2222"
	require.NoError(t, s.UpdateMerchant(ctx, got, []model.ProductApproval{
		{ProductName: "Ube Jam"},
	}))
	got, err = s.GetMerchant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "0917 111 2222", got.Phone)
	require.Len(t, got.ApprovedProducts, 1)
	assert.Equal(t, "Ube Jam", got.ApprovedProducts[0].ProductName)

	require.NoError(t, s.UpdateMerchantStatus(ctx, created.ID, model.StatusLive, "user-1"))
	got, err = s.GetMerchant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLive, got.ShopifyStatus)
	assert.Equal(t, "user-1", got.LastUpdatedByID)
}

func TestSQLiteMerchantListAndByIDs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateMerchant(ctx, &model.Merchant{Name: "Alpha"}, nil)
	require.NoError(t, err)
	b, err := s.CreateMerchant(ctx, &model.Merchant{Name: "Beta"}, nil)
	require.NoError(t, err)
	_, err = s.CreateMerchant(ctx, &model.Merchant{Name: "Gamma"}, nil)
	require.NoError(t, err)

	all, err := s.ListMerchants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := s.ListMerchantsByIDs(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Alpha", some[0].Name)
	assert.Equal(t, "Beta", some[1].Name)

	none, err := s.ListMerchantsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteDeleteMerchantCascades(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	m, err := s.CreateMerchant(ctx, &model.Merchant{Name: "Doomed"}, []model.ProductApproval{
		{ProductName: "Thing"},
	})
	require.NoError(t, err)
	require.NoError(t, s.AppendActivity(ctx, &model.ActivityLog{
		MerchantID: m.ID, UserID: "u1", Type: model.ActivityNote, Message: "note",
	}))

	require.NoError(t, s.DeleteMerchant(ctx, m.ID))
	_, err = s.GetMerchant(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.ListActivity(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteActivityJoinsUserName(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &model.User{Name: "Ana", Email: "ana@example.com", Role: model.RoleEditor})
	require.NoError(t, err)
	m, err := s.CreateMerchant(ctx, &model.Merchant{Name: "Shop"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.AppendActivity(ctx, &model.ActivityLog{
		MerchantID: m.ID, UserID: u.ID, Type: model.ActivityStatusChange, Message: "went live",
	}))
	require.NoError(t, s.AppendActivity(ctx, &model.ActivityLog{
		MerchantID: m.ID, UserID: "ghost-user", Type: model.ActivityNote, Message: "anonymous",
		CreatedAt: time.Now().UTC().Add(time.Second),
	}))

	entries, err := s.ListActivity(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first; unknown users join to an empty name.
	assert.Equal(t, "anonymous", entries[0].Message)
	assert.Equal(t, "", entries[0].UserName)
	assert.Equal(t, "Ana", entries[1].UserName)
}

func TestSQLiteUserLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &model.User{Name: "Ana", Email: "ANA@Example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, model.RoleViewer, u.Role)
	assert.True(t, u.IsActive)

	byEmail, err := s.GetUserByEmail(ctx, "  ana@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	// Duplicate emails are rejected case-insensitively.
	_, err = s.CreateUser(ctx, &model.User{Name: "Imposter", Email: "Ana@example.COM"})
	require.Error(t, err)

	require.NoError(t, s.UpdateUserRole(ctx, u.ID, model.RoleAdmin))
	require.NoError(t, s.SetUserActive(ctx, u.ID, false))
	require.NoError(t, s.SetUserPassword(ctx, u.ID, "newhash"))
	require.NoError(t, s.TouchLastLogin(ctx, u.ID))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)
	assert.Equal(t, "newhash", got.PasswordHash)
	require.NotNil(t, got.LastLoginAt)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	assert.ErrorIs(t, s.UpdateUserRole(ctx, "missing", model.RoleViewer), ErrNotFound)
	assert.ErrorIs(t, s.SetUserActive(ctx, "missing", true), ErrNotFound)
}
