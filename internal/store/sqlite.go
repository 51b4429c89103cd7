package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pililokal/merchant-ops/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and single-host deployments where postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'VIEWER',
	is_active     INTEGER NOT NULL DEFAULT 1,
	last_login_at DATETIME,
	invited_by_id TEXT REFERENCES users(id),
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(lower(email));

CREATE TABLE IF NOT EXISTS leads (
	id                   TEXT PRIMARY KEY,
	source_sheet         TEXT NOT NULL,
	merchant_name        TEXT NOT NULL DEFAULT '',
	category             TEXT NOT NULL DEFAULT '',
	products             TEXT NOT NULL DEFAULT '',
	email                TEXT NOT NULL DEFAULT '',
	contact              TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	status_notes         TEXT NOT NULL DEFAULT '',
	fb                   TEXT NOT NULL DEFAULT '',
	ig                   TEXT NOT NULL DEFAULT '',
	tiktok               TEXT NOT NULL DEFAULT '',
	website              TEXT NOT NULL DEFAULT '',
	encoded_by           TEXT NOT NULL DEFAULT '',
	result               TEXT NOT NULL DEFAULT '',
	calls_update         TEXT NOT NULL DEFAULT '',
	followup_email       TEXT NOT NULL DEFAULT '',
	reach_via_socmed     TEXT NOT NULL DEFAULT '',
	registered_name      TEXT NOT NULL DEFAULT '',
	contact_person       TEXT NOT NULL DEFAULT '',
	designation          TEXT NOT NULL DEFAULT '',
	authorized_signatory TEXT NOT NULL DEFAULT '',
	country              TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	social_score         INTEGER NOT NULL DEFAULT 0,
	stage                TEXT NOT NULL DEFAULT 'New / Unknown',
	needs_followup       INTEGER NOT NULL DEFAULT 0,
	last_activity_dates  TEXT,
	shopify_status       TEXT NOT NULL DEFAULT 'NOT_STARTED',
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_source_sheet ON leads(source_sheet);
CREATE INDEX IF NOT EXISTS idx_leads_stage ON leads(stage);

CREATE TABLE IF NOT EXISTS merchants (
	id                               TEXT PRIMARY KEY,
	name                             TEXT NOT NULL,
	category                         TEXT NOT NULL DEFAULT '',
	contact_name                     TEXT NOT NULL DEFAULT '',
	email                            TEXT NOT NULL DEFAULT '',
	phone                            TEXT NOT NULL DEFAULT '',
	source_website                   TEXT NOT NULL DEFAULT '',
	source_facebook                  TEXT NOT NULL DEFAULT '',
	source_instagram                 TEXT NOT NULL DEFAULT '',
	submission_type                  TEXT NOT NULL DEFAULT 'MERCHANT_SELECTED',
	selection_mode                   TEXT NOT NULL DEFAULT 'SELECTED_ONLY',
	selection_confirmed              INTEGER NOT NULL DEFAULT 0,
	shopify_status                   TEXT NOT NULL DEFAULT 'NOT_STARTED',
	shopify_vendor_name              TEXT NOT NULL DEFAULT '',
	shopify_collection               TEXT NOT NULL DEFAULT '',
	shopify_tags                     TEXT NOT NULL DEFAULT '',
	shopify_phone                    TEXT NOT NULL DEFAULT '',
	products_submitted_count         INTEGER NOT NULL DEFAULT 0,
	products_uploaded_count          INTEGER NOT NULL DEFAULT 0,
	products_target_count            INTEGER NOT NULL DEFAULT 0,
	products_extracted               INTEGER NOT NULL DEFAULT 0,
	products_sent_for_confirmation   INTEGER NOT NULL DEFAULT 0,
	merchant_approved_extracted_list INTEGER NOT NULL DEFAULT 0,
	variants_complete                INTEGER NOT NULL DEFAULT 0,
	pricing_added                    INTEGER NOT NULL DEFAULT 0,
	inventory_added                  INTEGER NOT NULL DEFAULT 0,
	sku_added                        INTEGER NOT NULL DEFAULT 0,
	images_complete                  INTEGER NOT NULL DEFAULT 0,
	final_reviewed                   INTEGER NOT NULL DEFAULT 0,
	business_address                 TEXT NOT NULL DEFAULT '',
	warehouse_address                TEXT NOT NULL DEFAULT '',
	return_address                   TEXT NOT NULL DEFAULT '',
	address_country                  TEXT NOT NULL DEFAULT '',
	address_state                    TEXT NOT NULL DEFAULT '',
	address_zip                      TEXT NOT NULL DEFAULT '',
	approved_at                      DATETIME,
	uploaded_at                      DATETIME,
	uploaded_by_id                   TEXT NOT NULL DEFAULT '',
	last_updated_by_id               TEXT NOT NULL DEFAULT '',
	last_updated_at                  DATETIME NOT NULL DEFAULT (datetime('now')),
	created_at                       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_merchants_shopify_status ON merchants(shopify_status);

CREATE TABLE IF NOT EXISTS merchant_product_approvals (
	id           TEXT PRIMARY KEY,
	merchant_id  TEXT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
	product_name TEXT NOT NULL,
	product_url  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_product_approvals_merchant ON merchant_product_approvals(merchant_id);

CREATE TABLE IF NOT EXISTS activity_logs (
	id          TEXT PRIMARY KEY,
	merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL,
	type        TEXT NOT NULL,
	message     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_merchant ON activity_logs(merchant_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var sqliteLeadInsert = fmt.Sprintf(`INSERT INTO leads (%s) VALUES (%s)`,
	strings.Join(leadColumns, ", "), placeholders(len(leadColumns)))

func (s *SQLiteStore) ReplaceLeads(ctx context.Context, leads []model.Lead) (int, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace leads")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear leads")
	}
	stmt, err := tx.PrepareContext(ctx, sqliteLeadInsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare lead insert")
	}
	defer stmt.Close()

	for i := range leads {
		if leads[i].ID == "" {
			leads[i].ID = uuid.New().String()
		}
		if leads[i].CreatedAt.IsZero() {
			// Staggered so ORDER BY created_at preserves workbook order.
			leads[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		}
		if leads[i].ShopifyStatus == "" {
			leads[i].ShopifyStatus = model.StatusNotStarted
		}
		vals, err := leadValues(leads[i])
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lead %q", leads[i].MerchantName)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace leads")
	}
	return len(leads), nil
}

// sqlRow abstracts *sql.Row and *sql.Rows for shared scan helpers.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanLeadSQL(row sqlRow) (*model.Lead, error) {
	var l model.Lead
	var datesJSON []byte
	err := row.Scan(
		&l.ID, &l.SourceSheet, &l.MerchantName, &l.Category, &l.Products,
		&l.Email, &l.Contact, &l.Address, &l.StatusNotes, &l.FB, &l.IG,
		&l.TikTok, &l.Website, &l.EncodedBy, &l.Result, &l.CallsUpdate,
		&l.FollowupEmail, &l.ReachViaSocmed, &l.RegisteredName,
		&l.ContactPerson, &l.Designation, &l.AuthorizedSignatory, &l.Country,
		&l.City, &l.SocialScore, &l.Stage, &l.NeedsFollowup, &datesJSON,
		&l.ShopifyStatus, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(datesJSON) > 0 {
		if err := json.Unmarshal(datesJSON, &l.LastActivityDates); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal activity dates")
		}
	}
	return &l, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, leadSelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanLeadSQL(s.db.QueryRowContext(ctx, leadSelect+` WHERE id = ?`, id))
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "lead %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return l, nil
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, id string, patch model.LeadPatch) error {
	cols, vals := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	vals = append(vals, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE leads SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		vals...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	return requireRowSQL(res, "lead", id)
}

func (s *SQLiteStore) UpdateLeadStage(ctx context.Context, id string, stage model.Stage) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET stage = ? WHERE id = ?`, string(stage), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead stage %s", id)
	}
	return requireRowSQL(res, "lead", id)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return requireRowSQL(res, "lead", id)
}

func requireRowSQL(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

var sqliteMerchantInsert = fmt.Sprintf(`INSERT INTO merchants (%s) VALUES (%s)`,
	strings.Join(merchantColumns, ", "), placeholders(len(merchantColumns)))

func scanMerchantSQL(row sqlRow) (*model.Merchant, error) {
	var m model.Merchant
	err := row.Scan(
		&m.ID, &m.Name, &m.Category, &m.ContactName, &m.Email, &m.Phone,
		&m.SourceWebsite, &m.SourceFacebook, &m.SourceInstagram,
		&m.SubmissionType, &m.SelectionMode, &m.SelectionConfirmed,
		&m.ShopifyStatus, &m.ShopifyVendorName, &m.ShopifyCollection,
		&m.ShopifyTags, &m.ShopifyPhone, &m.ProductsSubmittedCount,
		&m.ProductsUploadedCount, &m.ProductsTargetCount, &m.ProductsExtracted,
		&m.ProductsSentForConfirmation, &m.MerchantApprovedExtractedList,
		&m.VariantsComplete, &m.PricingAdded, &m.InventoryAdded, &m.SKUAdded,
		&m.ImagesComplete, &m.FinalReviewed, &m.BusinessAddress,
		&m.WarehouseAddress, &m.ReturnAddress, &m.AddressCountry,
		&m.AddressState, &m.AddressZip, &m.ApprovedAt, &m.UploadedAt,
		&m.UploadedByID, &m.LastUpdatedByID, &m.LastUpdatedAt, &m.CreatedAt,
		&m.ApprovedCount,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) CreateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) (*model.Merchant, error) {
	now := time.Now().UTC()
	m.ID = uuid.New().String()
	m.CreatedAt = now
	m.LastUpdatedAt = now
	if m.SubmissionType == "" {
		m.SubmissionType = model.SubmissionMerchantSelected
	}
	if m.SelectionMode == "" {
		m.SelectionMode = model.SelectionSelectedOnly
	}
	if m.ShopifyStatus == "" {
		m.ShopifyStatus = model.StatusNotStarted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create merchant")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteMerchantInsert, merchantValues(m)...); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert merchant")
	}
	if err := insertApprovalsSQL(ctx, tx, m.ID, approved); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create merchant")
	}
	m.ApprovedCount = len(approved)
	return m, nil
}

func (s *SQLiteStore) UpdateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) error {
	m.LastUpdatedAt = time.Now().UTC()

	sets := make([]string, 0, len(merchantColumns)-1)
	for _, col := range merchantColumns[1:] {
		sets = append(sets, col+" = ?")
	}
	vals := append(merchantValues(m)[1:], m.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin update merchant")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE merchants SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		vals...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update merchant %s", m.ID)
	}
	if err := requireRowSQL(res, "merchant", m.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM merchant_product_approvals WHERE merchant_id = ?`, m.ID); err != nil {
		return eris.Wrap(err, "sqlite: clear product approvals")
	}
	if err := insertApprovalsSQL(ctx, tx, m.ID, approved); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit update merchant")
}

func insertApprovalsSQL(ctx context.Context, tx *sql.Tx, merchantID string, approved []model.ProductApproval) error {
	for _, p := range approved {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO merchant_product_approvals (id, merchant_id, product_name, product_url) VALUES (?, ?, ?, ?)`,
			id, merchantID, p.ProductName, p.ProductURL,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert product approval")
		}
	}
	return nil
}

func (s *SQLiteStore) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	m, err := scanMerchantSQL(s.db.QueryRowContext(ctx, merchantSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "merchant %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get merchant %s", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, merchant_id, product_name, product_url FROM merchant_product_approvals WHERE merchant_id = ? ORDER BY product_name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list product approvals")
	}
	defer rows.Close()
	for rows.Next() {
		var p model.ProductApproval
		if err := rows.Scan(&p.ID, &p.MerchantID, &p.ProductName, &p.ProductURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product approval")
		}
		m.ApprovedProducts = append(m.ApprovedProducts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: product approvals iterate")
	}
	return m, nil
}



func (s *SQLiteStore) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	return s.queryMerchants(ctx, merchantSelect+` ORDER BY m.last_updated_at DESC`)
}

func (s *SQLiteStore) ListMerchantsByIDs(ctx context.Context, ids []string) ([]model.Merchant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryMerchants(ctx,
		fmt.Sprintf(`%s WHERE m.id IN (%s) ORDER BY m.name`, merchantSelect, placeholders(len(ids))),
		args...,
	)
}

func (s *SQLiteStore) queryMerchants(ctx context.Context, query string, args ...any) ([]model.Merchant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list merchants")
	}
	defer rows.Close()

	var merchants []model.Merchant
	for rows.Next() {
		m, err := scanMerchantSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan merchant")
		}
		merchants = append(merchants, *m)
	}
	return merchants, eris.Wrap(rows.Err(), "sqlite: list merchants iterate")
}

func (s *SQLiteStore) UpdateMerchantStatus(ctx context.Context, id string, status model.ShopifyStatus, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE merchants SET shopify_status = ?, last_updated_by_id = ?, last_updated_at = ? WHERE id = ?`,
		string(status), userID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update merchant status %s", id)
	}
	return requireRowSQL(res, "merchant", id)
}

func (s *SQLiteStore) TouchMerchant(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE merchants SET last_updated_by_id = ?, last_updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: touch merchant %s", id)
	}
	return requireRowSQL(res, "merchant", id)
}

func (s *SQLiteStore) DeleteMerchant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM merchants WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete merchant %s", id)
	}
	return requireRowSQL(res, "merchant", id)
}

func (s *SQLiteStore) AppendActivity(ctx context.Context, entry *model.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, merchant_id, user_id, type, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.MerchantID, entry.UserID, string(entry.Type), entry.Message, entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: append activity")
}

func (s *SQLiteStore) ListActivity(ctx context.Context, merchantID string) ([]model.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.merchant_id, a.user_id, a.type, a.message, a.created_at, coalesce(u.name, '')
		 FROM activity_logs a LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.merchant_id = ? ORDER BY a.created_at DESC`,
		merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activity")
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.MerchantID, &e.UserID, &e.Type, &e.Message, &e.CreatedAt, &e.UserName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list activity iterate")
}

func scanUserSQL(row sqlRow) (*model.User, error) {
	var u model.User
	var invitedBy sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &invitedBy, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.InvitedByID = invitedBy.String
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleViewer
	}

	var invitedBy any
	if u.InvitedByID != "" {
		invitedBy = u.InvitedByID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_active, invited_by_id, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), invitedBy, u.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert user")
	}
	u.IsActive = true
	return u, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUserSQL(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "user %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get user %s", id)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUserSQL(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`,
		strings.TrimSpace(email),
	))
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "user %s", email)
		}
		return nil, eris.Wrap(err, "sqlite: get user by email")
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUserSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user")
		}
		users = append(users, *u)
	}
	return users, eris.Wrap(rows.Err(), "sqlite: list users iterate")
}

func (s *SQLiteStore) UpdateUserRole(ctx context.Context, id string, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update user role %s", id)
	}
	return requireRowSQL(res, "user", id)
}

func (s *SQLiteStore) SetUserActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set user active %s", id)
	}
	return requireRowSQL(res, "user", id)
}

func (s *SQLiteStore) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set user password %s", id)
	}
	return requireRowSQL(res, "user", id)
}

func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return eris.Wrapf(err, "sqlite: touch last login %s", id)
}
