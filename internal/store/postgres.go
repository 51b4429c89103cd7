package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pililokal/merchant-ops/internal/db"
	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	// The database can come up after the app does; retry the first ping.
	pingCfg := resilience.DefaultRetryConfig()
	pingCfg.MaxAttempts = 5
	pingCfg.OnRetry = resilience.RetryLogger("postgres ping")
	err = resilience.Do(ctx, pingCfg, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'VIEWER',
	is_active     BOOLEAN NOT NULL DEFAULT true,
	last_login_at TIMESTAMPTZ,
	invited_by_id TEXT REFERENCES users(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
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
	needs_followup       BOOLEAN NOT NULL DEFAULT false,
	last_activity_dates  JSONB,
	shopify_status       TEXT NOT NULL DEFAULT 'NOT_STARTED',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
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
	selection_confirmed              BOOLEAN NOT NULL DEFAULT false,
	shopify_status                   TEXT NOT NULL DEFAULT 'NOT_STARTED',
	shopify_vendor_name              TEXT NOT NULL DEFAULT '',
	shopify_collection               TEXT NOT NULL DEFAULT '',
	shopify_tags                     TEXT NOT NULL DEFAULT '',
	shopify_phone                    TEXT NOT NULL DEFAULT '',
	products_submitted_count         INTEGER NOT NULL DEFAULT 0,
	products_uploaded_count          INTEGER NOT NULL DEFAULT 0,
	products_target_count            INTEGER NOT NULL DEFAULT 0,
	products_extracted               BOOLEAN NOT NULL DEFAULT false,
	products_sent_for_confirmation   BOOLEAN NOT NULL DEFAULT false,
	merchant_approved_extracted_list BOOLEAN NOT NULL DEFAULT false,
	variants_complete                BOOLEAN NOT NULL DEFAULT false,
	pricing_added                    BOOLEAN NOT NULL DEFAULT false,
	inventory_added                  BOOLEAN NOT NULL DEFAULT false,
	sku_added                        BOOLEAN NOT NULL DEFAULT false,
	images_complete                  BOOLEAN NOT NULL DEFAULT false,
	final_reviewed                   BOOLEAN NOT NULL DEFAULT false,
	business_address                 TEXT NOT NULL DEFAULT '',
	warehouse_address                TEXT NOT NULL DEFAULT '',
	return_address                   TEXT NOT NULL DEFAULT '',
	address_country                  TEXT NOT NULL DEFAULT '',
	address_state                    TEXT NOT NULL DEFAULT '',
	address_zip                      TEXT NOT NULL DEFAULT '',
	approved_at                      TIMESTAMPTZ,
	uploaded_at                      TIMESTAMPTZ,
	uploaded_by_id                   TEXT NOT NULL DEFAULT '',
	last_updated_by_id               TEXT NOT NULL DEFAULT '',
	last_updated_at                  TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at                       TIMESTAMPTZ NOT NULL DEFAULT now()
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
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_merchant ON activity_logs(merchant_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// leadColumns is the full lead column list, in insert/scan order.
var leadColumns = []string{
	"id", "source_sheet", "merchant_name", "category", "products", "email",
	"contact", "address", "status_notes", "fb", "ig", "tiktok", "website",
	"encoded_by", "result", "calls_update", "followup_email",
	"reach_via_socmed", "registered_name", "contact_person", "designation",
	"authorized_signatory", "country", "city", "social_score", "stage",
	"needs_followup", "last_activity_dates", "shopify_status", "created_at",
}

var leadSelect = "SELECT " + strings.Join(leadColumns, ", ") + " FROM leads"

func leadValues(l model.Lead) ([]any, error) {
	var datesJSON []byte
	if len(l.LastActivityDates) > 0 {
		var err error
		datesJSON, err = json.Marshal(l.LastActivityDates)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal activity dates")
		}
	}
	return []any{
		l.ID, string(l.SourceSheet), l.MerchantName, l.Category, l.Products,
		l.Email, l.Contact, l.Address, l.StatusNotes, l.FB, l.IG, l.TikTok,
		l.Website, l.EncodedBy, l.Result, l.CallsUpdate, l.FollowupEmail,
		l.ReachViaSocmed, l.RegisteredName, l.ContactPerson, l.Designation,
		l.AuthorizedSignatory, string(l.Country), l.City, l.SocialScore,
		string(l.Stage), l.NeedsFollowup, datesJSON, string(l.ShopifyStatus),
		l.CreatedAt,
	}, nil
}

func scanLead(row pgx.Row) (*model.Lead, error) {
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
			return nil, eris.Wrap(err, "postgres: unmarshal activity dates")
		}
	}
	return &l, nil
}

// ReplaceLeads swaps the entire lead table for the supplied rows inside one
// transaction, so concurrent readers never observe a half-imported table.
func (s *PostgresStore) ReplaceLeads(ctx context.Context, leads []model.Lead) (int, error) {
	now := time.Now().UTC()
	copyRows := make([][]any, 0, len(leads))
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
		copyRows = append(copyRows, vals)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace leads")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leads`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear leads")
	}
	if len(copyRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"leads"}, leadColumns, pgx.CopyFromRows(copyRows)); err != nil {
			return 0, eris.Wrap(err, "postgres: copy leads")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace leads")
	}
	return len(leads), nil
}

func (s *PostgresStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, leadSelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanLead(s.pool.QueryRow(ctx, leadSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "lead %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return l, nil
}

func (s *PostgresStore) UpdateLead(ctx context.Context, id string, patch model.LeadPatch) error {
	cols, vals := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	vals = append(vals, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(vals)),
		vals...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateLeadStage(ctx context.Context, id string, stage model.Stage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET stage = $1 WHERE id = $2`,
		string(stage), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead stage %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return nil
}

// merchantColumns is the full merchant column list, in insert/scan order.
var merchantColumns = []string{
	"id", "name", "category", "contact_name", "email", "phone",
	"source_website", "source_facebook", "source_instagram",
	"submission_type", "selection_mode", "selection_confirmed",
	"shopify_status", "shopify_vendor_name", "shopify_collection",
	"shopify_tags", "shopify_phone", "products_submitted_count",
	"products_uploaded_count", "products_target_count", "products_extracted",
	"products_sent_for_confirmation", "merchant_approved_extracted_list",
	"variants_complete", "pricing_added", "inventory_added", "sku_added",
	"images_complete", "final_reviewed", "business_address",
	"warehouse_address", "return_address", "address_country", "address_state",
	"address_zip", "approved_at", "uploaded_at", "uploaded_by_id",
	"last_updated_by_id", "last_updated_at", "created_at",
}

var merchantSelect = "SELECT m." + strings.Join(merchantColumns, ", m.") +
	", (SELECT count(*) FROM merchant_product_approvals a WHERE a.merchant_id = m.id) FROM merchants m"

func merchantValues(m *model.Merchant) []any {
	return []any{
		m.ID, m.Name, m.Category, m.ContactName, m.Email, m.Phone,
		m.SourceWebsite, m.SourceFacebook, m.SourceInstagram,
		string(m.SubmissionType), string(m.SelectionMode), m.SelectionConfirmed,
		string(m.ShopifyStatus), m.ShopifyVendorName, m.ShopifyCollection,
		m.ShopifyTags, m.ShopifyPhone, m.ProductsSubmittedCount,
		m.ProductsUploadedCount, m.ProductsTargetCount, m.ProductsExtracted,
		m.ProductsSentForConfirmation, m.MerchantApprovedExtractedList,
		m.VariantsComplete, m.PricingAdded, m.InventoryAdded, m.SKUAdded,
		m.ImagesComplete, m.FinalReviewed, m.BusinessAddress,
		m.WarehouseAddress, m.ReturnAddress, m.AddressCountry, m.AddressState,
		m.AddressZip, m.ApprovedAt, m.UploadedAt, m.UploadedByID,
		m.LastUpdatedByID, m.LastUpdatedAt, m.CreatedAt,
	}
}

func scanMerchant(row pgx.Row) (*model.Merchant, error) {
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

var merchantInsert = func() string {
	placeholders := make([]string, len(merchantColumns))
	for i := range merchantColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(`INSERT INTO merchants (%s) VALUES (%s)`,
		strings.Join(merchantColumns, ", "), strings.Join(placeholders, ", "))
}()

func (s *PostgresStore) CreateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) (*model.Merchant, error) {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create merchant")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, merchantInsert, merchantValues(m)...); err != nil {
		return nil, eris.Wrap(err, "postgres: insert merchant")
	}
	if err := insertApprovals(ctx, tx, m.ID, approved); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit create merchant")
	}
	m.ApprovedCount = len(approved)
	return m, nil
}

// UpdateMerchant saves the full merchant record and replaces its approved
// products wholesale.
func (s *PostgresStore) UpdateMerchant(ctx context.Context, m *model.Merchant, approved []model.ProductApproval) error {
	m.LastUpdatedAt = time.Now().UTC()

	sets := make([]string, 0, len(merchantColumns)-1)
	vals := make([]any, 0, len(merchantColumns))
	for i, col := range merchantColumns[1:] { // skip id
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	vals = append(vals, merchantValues(m)[1:]...)
	vals = append(vals, m.ID)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin update merchant")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE merchants SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(vals)),
		vals...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update merchant %s", m.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "merchant %s", m.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM merchant_product_approvals WHERE merchant_id = $1`, m.ID); err != nil {
		return eris.Wrap(err, "postgres: clear product approvals")
	}
	if err := insertApprovals(ctx, tx, m.ID, approved); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit update merchant")
}

func insertApprovals(ctx context.Context, tx pgx.Tx, merchantID string, approved []model.ProductApproval) error {
	for _, p := range approved {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO merchant_product_approvals (id, merchant_id, product_name, product_url) VALUES ($1, $2, $3, $4)`,
			id, merchantID, p.ProductName, p.ProductURL,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert product approval")
		}
	}
	return nil
}

func (s *PostgresStore) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	m, err := scanMerchant(s.pool.QueryRow(ctx, merchantSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "merchant %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get merchant %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, merchant_id, product_name, product_url FROM merchant_product_approvals WHERE merchant_id = $1 ORDER BY product_name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list product approvals")
	}
	defer rows.Close()
	for rows.Next() {
		var p model.ProductApproval
		if err := rows.Scan(&p.ID, &p.MerchantID, &p.ProductName, &p.ProductURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product approval")
		}
		m.ApprovedProducts = append(m.ApprovedProducts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: product approvals iterate")
	}
	return m, nil
}

func (s *PostgresStore) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	return s.queryMerchants(ctx, merchantSelect+` ORDER BY m.last_updated_at DESC`)
}

func (s *PostgresStore) ListMerchantsByIDs(ctx context.Context, ids []string) ([]model.Merchant, error) {
	return s.queryMerchants(ctx, merchantSelect+` WHERE m.id = ANY($1) ORDER BY m.name`, ids)
}

func (s *PostgresStore) queryMerchants(ctx context.Context, query string, args ...any) ([]model.Merchant, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list merchants")
	}
	defer rows.Close()

	var merchants []model.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan merchant")
		}
		merchants = append(merchants, *m)
	}
	return merchants, eris.Wrap(rows.Err(), "postgres: list merchants iterate")
}

func (s *PostgresStore) UpdateMerchantStatus(ctx context.Context, id string, status model.ShopifyStatus, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE merchants SET shopify_status = $1, last_updated_by_id = $2, last_updated_at = $3 WHERE id = $4`,
		string(status), userID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update merchant status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "merchant %s", id)
	}
	return nil
}

func (s *PostgresStore) TouchMerchant(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE merchants SET last_updated_by_id = $1, last_updated_at = $2 WHERE id = $3`,
		userID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: touch merchant %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "merchant %s", id)
	}
	return nil
}

// DeleteMerchant removes a merchant; activity logs and product approvals
// cascade at the schema level.
func (s *PostgresStore) DeleteMerchant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM merchants WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete merchant %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "merchant %s", id)
	}
	return nil
}

func (s *PostgresStore) AppendActivity(ctx context.Context, entry *model.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, merchant_id, user_id, type, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.MerchantID, entry.UserID, string(entry.Type), entry.Message, entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: append activity")
}

func (s *PostgresStore) ListActivity(ctx context.Context, merchantID string) ([]model.ActivityLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.merchant_id, a.user_id, a.type, a.message, a.created_at, coalesce(u.name, '')
		 FROM activity_logs a LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.merchant_id = $1 ORDER BY a.created_at DESC`,
		merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activity")
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.MerchantID, &e.UserID, &e.Type, &e.Message, &e.CreatedAt, &e.UserName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list activity iterate")
}

const userColumns = `id, name, email, password_hash, role, is_active, last_login_at, invited_by_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var invitedBy *string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &invitedBy, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if invitedBy != nil {
		u.InvitedByID = *invitedBy
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleViewer
	}

	var invitedBy *string
	if u.InvitedByID != "" {
		invitedBy = &u.InvitedByID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_active, invited_by_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), true, invitedBy, u.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert user")
	}
	u.IsActive = true
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "user %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", id)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "user %s", email)
		}
		return nil, eris.Wrap(err, "postgres: get user by email")
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		users = append(users, *u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list users iterate")
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id string, role model.Role) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update user role %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

func (s *PostgresStore) SetUserActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set user active %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

func (s *PostgresStore) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set user password %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return eris.Wrapf(err, "postgres: touch last login %s", id)
}
