package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/milltech-erp/procure-cli/internal/db"
	"github.com/milltech-erp/procure-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS vendors (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id       TEXT NOT NULL,
	name             TEXT NOT NULL,
	contact_person   TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL,
	alternate_emails JSONB,
	payment_terms    TEXT NOT NULL DEFAULT '',
	credit_days      INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vendors_company_email ON vendors(company_id, lower(email));

CREATE TABLE IF NOT EXISTS rfqs (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id          TEXT NOT NULL,
	rfq_number          TEXT NOT NULL,
	title               TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'draft',
	submission_deadline TIMESTAMPTZ NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rfqs_company_number ON rfqs(company_id, rfq_number);
CREATE INDEX IF NOT EXISTS idx_rfqs_status_deadline ON rfqs(status, submission_deadline);

CREATE TABLE IF NOT EXISTS rfq_items (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rfq_id      TEXT NOT NULL REFERENCES rfqs(id),
	position    INTEGER NOT NULL DEFAULT 0,
	item_code   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	quantity    DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_rfq_items_rfq_id ON rfq_items(rfq_id);

CREATE TABLE IF NOT EXISTS rfq_vendors (
	rfq_id                TEXT NOT NULL REFERENCES rfqs(id),
	vendor_id             TEXT NOT NULL REFERENCES vendors(id),
	email_sent            BOOLEAN NOT NULL DEFAULT FALSE,
	response_received     BOOLEAN NOT NULL DEFAULT FALSE,
	reminder_count        INTEGER NOT NULL DEFAULT 0,
	last_reminder_at      TIMESTAMPTZ,
	quotation_received_at TIMESTAMPTZ,
	PRIMARY KEY (rfq_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS rfq_email_responses (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id     TEXT NOT NULL,
	rfq_id         TEXT NOT NULL,
	vendor_id      TEXT NOT NULL,
	message_id     TEXT NOT NULL,
	subject        TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	attachments    JSONB,
	status         TEXT NOT NULL DEFAULT 'processing',
	extracted_data JSONB,
	quotation_id   TEXT,
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_email_responses_company ON rfq_email_responses(company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_email_responses_status ON rfq_email_responses(status);

CREATE TABLE IF NOT EXISTS quotations (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id       TEXT NOT NULL,
	quotation_number TEXT NOT NULL,
	vendor_id        TEXT NOT NULL,
	rfq_id           TEXT,
	valid_until      TIMESTAMPTZ,
	subtotal         DOUBLE PRECISION NOT NULL DEFAULT 0,
	tax_amount       DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
	payment_terms    TEXT NOT NULL DEFAULT '',
	delivery_terms   TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'received',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, quotation_number)
);

CREATE TABLE IF NOT EXISTS quotation_items (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	quotation_id  TEXT NOT NULL REFERENCES quotations(id),
	item_code     TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	quantity      DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit          TEXT NOT NULL DEFAULT '',
	unit_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_amount  DOUBLE PRECISION NOT NULL DEFAULT 0,
	delivery_days INTEGER NOT NULL DEFAULT 0,
	warranty      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_quotation_items_quotation ON quotation_items(quotation_id);

CREATE TABLE IF NOT EXISTS quotation_sequences (
	company_id TEXT NOT NULL,
	year       INTEGER NOT NULL,
	seq        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (company_id, year)
);

CREATE TABLE IF NOT EXISTS communication_threads (
	rfq_id          TEXT NOT NULL,
	vendor_id       TEXT NOT NULL,
	message_count   INTEGER NOT NULL DEFAULT 0,
	last_message_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (rfq_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS rfq_email_log (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id TEXT NOT NULL,
	rfq_id     TEXT NOT NULL,
	vendor_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	sent_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_email_log_company_kind ON rfq_email_log(company_id, kind, sent_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const vendorColumns = `id, company_id, name, contact_person, email, alternate_emails, payment_terms, credit_days, created_at`

func (s *PostgresStore) FindVendorsByEmail(ctx context.Context, companyID, email string) ([]model.Vendor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+vendorColumns+` FROM vendors
		 WHERE company_id = $1 AND (lower(email) = lower($2) OR alternate_emails @> to_jsonb($2::text))
		 ORDER BY created_at, id`,
		companyID, email,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find vendors by email")
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanPGVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, *v)
	}
	return vendors, eris.Wrap(rows.Err(), "postgres: find vendors iterate")
}

func (s *PostgresStore) GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, vendorID)
	v, err := scanPGVendor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("vendor not found: %s", vendorID)
	}
	return v, err
}

func scanPGVendor(row pgx.Row) (*model.Vendor, error) {
	var v model.Vendor
	var altJSON []byte
	err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.ContactPerson, &v.Email,
		&altJSON, &v.PaymentTerms, &v.CreditDays, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan vendor")
	}
	if len(altJSON) > 0 {
		if err := json.Unmarshal(altJSON, &v.AlternateEmails); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal alternate emails")
		}
	}
	return &v, nil
}

const rfqColumns = `id, company_id, rfq_number, title, status, submission_deadline, created_at, updated_at`

func (s *PostgresStore) GetRFQByNumber(ctx context.Context, companyID, rfqNumber string) (*model.RFQ, error) {
	var r model.RFQ
	err := s.pool.QueryRow(ctx,
		`SELECT `+rfqColumns+` FROM rfqs WHERE company_id = $1 AND rfq_number = $2
		 ORDER BY created_at LIMIT 1`,
		companyID, rfqNumber,
	).Scan(&r.ID, &r.CompanyID, &r.RFQNumber, &r.Title, &r.Status,
		&r.SubmissionDeadline, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get rfq by number")
	}

	items, err := s.listRFQItems(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Items = items
	return &r, nil
}

func (s *PostgresStore) listRFQItems(ctx context.Context, rfqID string) ([]model.RFQItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rfq_id, position, item_code, description, quantity, unit
		 FROM rfq_items WHERE rfq_id = $1 ORDER BY position`,
		rfqID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rfq items")
	}
	defer rows.Close()

	var items []model.RFQItem
	for rows.Next() {
		var it model.RFQItem
		if err := rows.Scan(&it.ID, &it.RFQID, &it.Position, &it.ItemCode,
			&it.Description, &it.Quantity, &it.Unit); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rfq item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list rfq items iterate")
}

func (s *PostgresStore) ListOverdueRFQs(ctx context.Context, companyID string, now time.Time) ([]model.RFQ, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+rfqColumns+` FROM rfqs
		 WHERE company_id = $1 AND status = $2 AND submission_deadline < $3
		 ORDER BY submission_deadline`,
		companyID, string(model.RFQStatusSent), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overdue rfqs")
	}
	defer rows.Close()

	var rfqs []model.RFQ
	for rows.Next() {
		var r model.RFQ
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RFQNumber, &r.Title, &r.Status,
			&r.SubmissionDeadline, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rfq")
		}
		rfqs = append(rfqs, r)
	}
	return rfqs, eris.Wrap(rows.Err(), "postgres: list overdue rfqs iterate")
}

const rfqVendorColumns = `rfq_id, vendor_id, email_sent, response_received, reminder_count, last_reminder_at, quotation_received_at`

func (s *PostgresStore) ListRFQVendors(ctx context.Context, rfqID string) ([]model.RFQVendor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+rfqVendorColumns+` FROM rfq_vendors WHERE rfq_id = $1 ORDER BY vendor_id`,
		rfqID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rfq vendors")
	}
	defer rows.Close()
	return collectRFQVendors(rows)
}

func (s *PostgresStore) GetRFQVendor(ctx context.Context, rfqID, vendorID string) (*model.RFQVendor, error) {
	var rv model.RFQVendor
	err := s.pool.QueryRow(ctx,
		`SELECT `+rfqVendorColumns+` FROM rfq_vendors WHERE rfq_id = $1 AND vendor_id = $2`,
		rfqID, vendorID,
	).Scan(&rv.RFQID, &rv.VendorID, &rv.EmailSent, &rv.ResponseReceived,
		&rv.ReminderCount, &rv.LastReminderAt, &rv.QuotationReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get rfq vendor")
	}
	return &rv, nil
}

func collectRFQVendors(rows pgx.Rows) ([]model.RFQVendor, error) {
	var out []model.RFQVendor
	for rows.Next() {
		var rv model.RFQVendor
		if err := rows.Scan(&rv.RFQID, &rv.VendorID, &rv.EmailSent, &rv.ResponseReceived,
			&rv.ReminderCount, &rv.LastReminderAt, &rv.QuotationReceivedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rfq vendor")
		}
		out = append(out, rv)
	}
	return out, eris.Wrap(rows.Err(), "postgres: rfq vendors iterate")
}

func (s *PostgresStore) MarkResponseReceived(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rfq_vendors SET response_received = TRUE, quotation_received_at = $3
		 WHERE rfq_id = $1 AND vendor_id = $2`,
		rfqID, vendorID, at,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark response received %s/%s", rfqID, vendorID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("rfq vendor not found: %s/%s", rfqID, vendorID)
	}
	return nil
}

func (s *PostgresStore) ListPendingReminderVendors(ctx context.Context, rfqID string, maxReminders int) ([]model.RFQVendor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+rfqVendorColumns+` FROM rfq_vendors
		 WHERE rfq_id = $1 AND response_received = FALSE AND reminder_count < $2
		 ORDER BY vendor_id`,
		rfqID, maxReminders,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending reminder vendors")
	}
	defer rows.Close()
	return collectRFQVendors(rows)
}

func (s *PostgresStore) RecordReminderSent(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rfq_vendors SET reminder_count = reminder_count + 1, last_reminder_at = $3
		 WHERE rfq_id = $1 AND vendor_id = $2`,
		rfqID, vendorID, at,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record reminder sent %s/%s", rfqID, vendorID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("rfq vendor not found: %s/%s", rfqID, vendorID)
	}
	return nil
}

func (s *PostgresStore) CreateEmailResponse(ctx context.Context, resp *model.RFQEmailResponse) error {
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	if resp.Status == "" {
		resp.Status = model.ProcessingStatusProcessing
	}

	attJSON, err := json.Marshal(resp.Attachments)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal attachments")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO rfq_email_responses
		 (id, company_id, rfq_id, vendor_id, message_id, subject, body, attachments, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		resp.ID, resp.CompanyID, resp.RFQID, resp.VendorID, resp.MessageID,
		resp.Subject, resp.Body, attJSON, string(resp.Status), now, now,
	)
	return eris.Wrap(err, "postgres: insert email response")
}

func (s *PostgresStore) FinishEmailResponse(ctx context.Context, id string, status model.ProcessingStatus, extracted json.RawMessage, quotationID *string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rfq_email_responses
		 SET status = $2, extracted_data = $3, quotation_id = $4, error = $5, updated_at = $6
		 WHERE id = $1`,
		id, string(status), []byte(extracted), quotationID, errMsg, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish email response %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("email response not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListEmailResponsesSince(ctx context.Context, companyID string, since time.Time) ([]model.RFQEmailResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, rfq_id, vendor_id, message_id, subject, body, attachments,
		        status, extracted_data, quotation_id, error, created_at, updated_at
		 FROM rfq_email_responses
		 WHERE company_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		companyID, since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list email responses")
	}
	defer rows.Close()

	var out []model.RFQEmailResponse
	for rows.Next() {
		var r model.RFQEmailResponse
		var attJSON, extracted []byte
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RFQID, &r.VendorID, &r.MessageID,
			&r.Subject, &r.Body, &attJSON, &r.Status, &extracted, &r.QuotationID,
			&r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email response")
		}
		if len(attJSON) > 0 {
			if err := json.Unmarshal(attJSON, &r.Attachments); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal attachments")
			}
		}
		r.ExtractedData = extracted
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list email responses iterate")
}

func (s *PostgresStore) NextQuotationSeq(ctx context.Context, companyID string, year int) (int, error) {
	var seq int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quotation_sequences (company_id, year, seq) VALUES ($1, $2, 1)
		 ON CONFLICT (company_id, year) DO UPDATE SET seq = quotation_sequences.seq + 1
		 RETURNING seq`,
		companyID, year,
	).Scan(&seq)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: next quotation seq")
	}
	return seq, nil
}

func (s *PostgresStore) CreateQuotation(ctx context.Context, q *model.Quotation, items []model.QuotationItem) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = model.QuotationStatusReceived
	}
	q.CreatedAt = time.Now().UTC()

	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO quotations
			 (id, company_id, quotation_number, vendor_id, rfq_id, valid_until,
			  subtotal, tax_amount, total_amount, payment_terms, delivery_terms, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			q.ID, q.CompanyID, q.QuotationNumber, q.VendorID, q.RFQID, q.ValidUntil,
			q.Subtotal, q.TaxAmount, q.TotalAmount, q.PaymentTerms, q.DeliveryTerms,
			string(q.Status), q.CreatedAt,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert quotation")
		}

		for i := range items {
			it := &items[i]
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.QuotationID = q.ID
			_, err := tx.Exec(ctx,
				`INSERT INTO quotation_items
				 (id, quotation_id, item_code, description, quantity, unit,
				  unit_price, total_amount, delivery_days, warranty)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				it.ID, it.QuotationID, it.ItemCode, it.Description, it.Quantity,
				it.Unit, it.UnitPrice, it.TotalAmount, it.DeliveryDays, it.Warranty,
			)
			if err != nil {
				return eris.Wrap(err, "postgres: insert quotation item")
			}
		}
		return nil
	})
	return err
}

func (s *PostgresStore) BumpCommunicationThread(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO communication_threads (rfq_id, vendor_id, message_count, last_message_at)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (rfq_id, vendor_id) DO UPDATE
		 SET message_count = communication_threads.message_count + 1, last_message_at = excluded.last_message_at`,
		rfqID, vendorID, at,
	)
	return eris.Wrap(err, "postgres: bump communication thread")
}

func (s *PostgresStore) GetCommunicationThread(ctx context.Context, rfqID, vendorID string) (*model.CommunicationThread, error) {
	var t model.CommunicationThread
	err := s.pool.QueryRow(ctx,
		`SELECT rfq_id, vendor_id, message_count, last_message_at
		 FROM communication_threads WHERE rfq_id = $1 AND vendor_id = $2`,
		rfqID, vendorID,
	).Scan(&t.RFQID, &t.VendorID, &t.MessageCount, &t.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get communication thread")
	}
	return &t, nil
}

func (s *PostgresStore) AppendEmailLog(ctx context.Context, entry *model.EmailLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rfq_email_log (id, company_id, rfq_id, vendor_id, kind, recipient, subject, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.CompanyID, entry.RFQID, entry.VendorID, string(entry.Kind),
		entry.Recipient, entry.Subject, entry.SentAt,
	)
	return eris.Wrap(err, "postgres: append email log")
}

func (s *PostgresStore) CountEmailLog(ctx context.Context, companyID string, kind model.EmailLogKind, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM rfq_email_log WHERE company_id = $1 AND kind = $2 AND sent_at >= $3`,
		companyID, string(kind), since,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count email log")
	}
	return n, nil
}
