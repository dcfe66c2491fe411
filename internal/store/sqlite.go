package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/milltech-erp/procure-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// development and as the backing store for engine integration tests.
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

// DB exposes the underlying handle for test seeding.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vendors (
	id               TEXT PRIMARY KEY,
	company_id       TEXT NOT NULL,
	name             TEXT NOT NULL,
	contact_person   TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL,
	alternate_emails TEXT,
	payment_terms    TEXT NOT NULL DEFAULT '',
	credit_days      INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_vendors_company_email ON vendors(company_id, email);

CREATE TABLE IF NOT EXISTS rfqs (
	id                  TEXT PRIMARY KEY,
	company_id          TEXT NOT NULL,
	rfq_number          TEXT NOT NULL,
	title               TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'draft',
	submission_deadline DATETIME NOT NULL,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rfqs_company_number ON rfqs(company_id, rfq_number);

CREATE TABLE IF NOT EXISTS rfq_items (
	id          TEXT PRIMARY KEY,
	rfq_id      TEXT NOT NULL REFERENCES rfqs(id),
	position    INTEGER NOT NULL DEFAULT 0,
	item_code   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	quantity    REAL NOT NULL DEFAULT 0,
	unit        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_rfq_items_rfq_id ON rfq_items(rfq_id);

CREATE TABLE IF NOT EXISTS rfq_vendors (
	rfq_id                TEXT NOT NULL REFERENCES rfqs(id),
	vendor_id             TEXT NOT NULL REFERENCES vendors(id),
	email_sent            INTEGER NOT NULL DEFAULT 0,
	response_received     INTEGER NOT NULL DEFAULT 0,
	reminder_count        INTEGER NOT NULL DEFAULT 0,
	last_reminder_at      DATETIME,
	quotation_received_at DATETIME,
	PRIMARY KEY (rfq_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS rfq_email_responses (
	id             TEXT PRIMARY KEY,
	company_id     TEXT NOT NULL,
	rfq_id         TEXT NOT NULL,
	vendor_id      TEXT NOT NULL,
	message_id     TEXT NOT NULL,
	subject        TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	attachments    TEXT,
	status         TEXT NOT NULL DEFAULT 'processing',
	extracted_data TEXT,
	quotation_id   TEXT,
	error          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_email_responses_company ON rfq_email_responses(company_id, created_at DESC);

CREATE TABLE IF NOT EXISTS quotations (
	id               TEXT PRIMARY KEY,
	company_id       TEXT NOT NULL,
	quotation_number TEXT NOT NULL,
	vendor_id        TEXT NOT NULL,
	rfq_id           TEXT,
	valid_until      DATETIME,
	subtotal         REAL NOT NULL DEFAULT 0,
	tax_amount       REAL NOT NULL DEFAULT 0,
	total_amount     REAL NOT NULL DEFAULT 0,
	payment_terms    TEXT NOT NULL DEFAULT '',
	delivery_terms   TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'received',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (company_id, quotation_number)
);

CREATE TABLE IF NOT EXISTS quotation_items (
	id            TEXT PRIMARY KEY,
	quotation_id  TEXT NOT NULL REFERENCES quotations(id),
	item_code     TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	quantity      REAL NOT NULL DEFAULT 0,
	unit          TEXT NOT NULL DEFAULT '',
	unit_price    REAL NOT NULL DEFAULT 0,
	total_amount  REAL NOT NULL DEFAULT 0,
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
	last_message_at DATETIME NOT NULL,
	PRIMARY KEY (rfq_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS rfq_email_log (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	rfq_id     TEXT NOT NULL,
	vendor_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	sent_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_email_log_company_kind ON rfq_email_log(company_id, kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindVendorsByEmail(ctx context.Context, companyID, email string) ([]model.Vendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, contact_person, email, alternate_emails, payment_terms, credit_days, created_at
		 FROM vendors
		 WHERE company_id = ? AND (lower(email) = lower(?) OR EXISTS (
			SELECT 1 FROM json_each(coalesce(alternate_emails, '[]')) je WHERE lower(je.value) = lower(?)
		 ))
		 ORDER BY created_at, id`,
		companyID, email, email,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find vendors by email")
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanSQLiteVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, *v)
	}
	return vendors, eris.Wrap(rows.Err(), "sqlite: find vendors iterate")
}

func (s *SQLiteStore) GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, contact_person, email, alternate_emails, payment_terms, credit_days, created_at
		 FROM vendors WHERE id = ?`, vendorID)
	v, err := scanSQLiteVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("vendor not found: %s", vendorID)
	}
	return v, err
}

func scanSQLiteVendor(row scannable) (*model.Vendor, error) {
	var v model.Vendor
	var altJSON sql.NullString
	err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.ContactPerson, &v.Email,
		&altJSON, &v.PaymentTerms, &v.CreditDays, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan vendor")
	}
	if altJSON.Valid && altJSON.String != "" {
		if err := json.Unmarshal([]byte(altJSON.String), &v.AlternateEmails); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal alternate emails")
		}
	}
	return &v, nil
}

func (s *SQLiteStore) GetRFQByNumber(ctx context.Context, companyID, rfqNumber string) (*model.RFQ, error) {
	var r model.RFQ
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, rfq_number, title, status, submission_deadline, created_at, updated_at
		 FROM rfqs WHERE company_id = ? AND rfq_number = ? ORDER BY created_at LIMIT 1`,
		companyID, rfqNumber,
	).Scan(&r.ID, &r.CompanyID, &r.RFQNumber, &r.Title, &r.Status,
		&r.SubmissionDeadline, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get rfq by number")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfq_id, position, item_code, description, quantity, unit
		 FROM rfq_items WHERE rfq_id = ? ORDER BY position`, r.ID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rfq items")
	}
	defer rows.Close()

	for rows.Next() {
		var it model.RFQItem
		if err := rows.Scan(&it.ID, &it.RFQID, &it.Position, &it.ItemCode,
			&it.Description, &it.Quantity, &it.Unit); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rfq item")
		}
		r.Items = append(r.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: rfq items iterate")
	}
	return &r, nil
}

func (s *SQLiteStore) ListOverdueRFQs(ctx context.Context, companyID string, now time.Time) ([]model.RFQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, rfq_number, title, status, submission_deadline, created_at, updated_at
		 FROM rfqs WHERE company_id = ? AND status = ? AND submission_deadline < ?
		 ORDER BY submission_deadline`,
		companyID, string(model.RFQStatusSent), now.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overdue rfqs")
	}
	defer rows.Close()

	var rfqs []model.RFQ
	for rows.Next() {
		var r model.RFQ
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RFQNumber, &r.Title, &r.Status,
			&r.SubmissionDeadline, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rfq")
		}
		rfqs = append(rfqs, r)
	}
	return rfqs, eris.Wrap(rows.Err(), "sqlite: list overdue rfqs iterate")
}

func (s *SQLiteStore) ListRFQVendors(ctx context.Context, rfqID string) ([]model.RFQVendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rfq_id, vendor_id, email_sent, response_received, reminder_count, last_reminder_at, quotation_received_at
		 FROM rfq_vendors WHERE rfq_id = ? ORDER BY vendor_id`, rfqID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rfq vendors")
	}
	defer rows.Close()
	return collectSQLiteRFQVendors(rows)
}

func (s *SQLiteStore) GetRFQVendor(ctx context.Context, rfqID, vendorID string) (*model.RFQVendor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT rfq_id, vendor_id, email_sent, response_received, reminder_count, last_reminder_at, quotation_received_at
		 FROM rfq_vendors WHERE rfq_id = ? AND vendor_id = ?`, rfqID, vendorID)
	rv, err := scanSQLiteRFQVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rv, err
}

func scanSQLiteRFQVendor(row scannable) (*model.RFQVendor, error) {
	var rv model.RFQVendor
	var lastReminder, received sql.NullTime
	err := row.Scan(&rv.RFQID, &rv.VendorID, &rv.EmailSent, &rv.ResponseReceived,
		&rv.ReminderCount, &lastReminder, &received)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan rfq vendor")
	}
	if lastReminder.Valid {
		t := lastReminder.Time
		rv.LastReminderAt = &t
	}
	if received.Valid {
		t := received.Time
		rv.QuotationReceivedAt = &t
	}
	return &rv, nil
}

func collectSQLiteRFQVendors(rows *sql.Rows) ([]model.RFQVendor, error) {
	var out []model.RFQVendor
	for rows.Next() {
		rv, err := scanSQLiteRFQVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: rfq vendors iterate")
}

func (s *SQLiteStore) MarkResponseReceived(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rfq_vendors SET response_received = 1, quotation_received_at = ?
		 WHERE rfq_id = ? AND vendor_id = ?`,
		at.UTC(), rfqID, vendorID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark response received %s/%s", rfqID, vendorID)
	}
	return checkRowsAffected(res, "rfq vendor", rfqID+"/"+vendorID)
}

func (s *SQLiteStore) ListPendingReminderVendors(ctx context.Context, rfqID string, maxReminders int) ([]model.RFQVendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rfq_id, vendor_id, email_sent, response_received, reminder_count, last_reminder_at, quotation_received_at
		 FROM rfq_vendors WHERE rfq_id = ? AND response_received = 0 AND reminder_count < ?
		 ORDER BY vendor_id`,
		rfqID, maxReminders,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending reminder vendors")
	}
	defer rows.Close()
	return collectSQLiteRFQVendors(rows)
}

func (s *SQLiteStore) RecordReminderSent(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rfq_vendors SET reminder_count = reminder_count + 1, last_reminder_at = ?
		 WHERE rfq_id = ? AND vendor_id = ?`,
		at.UTC(), rfqID, vendorID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record reminder sent %s/%s", rfqID, vendorID)
	}
	return checkRowsAffected(res, "rfq vendor", rfqID+"/"+vendorID)
}

func (s *SQLiteStore) CreateEmailResponse(ctx context.Context, resp *model.RFQEmailResponse) error {
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
		return eris.Wrap(err, "sqlite: marshal attachments")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rfq_email_responses
		 (id, company_id, rfq_id, vendor_id, message_id, subject, body, attachments, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ID, resp.CompanyID, resp.RFQID, resp.VendorID, resp.MessageID,
		resp.Subject, resp.Body, string(attJSON), string(resp.Status), now, now,
	)
	return eris.Wrap(err, "sqlite: insert email response")
}

func (s *SQLiteStore) FinishEmailResponse(ctx context.Context, id string, status model.ProcessingStatus, extracted json.RawMessage, quotationID *string, errMsg string) error {
	var extractedArg any
	if len(extracted) > 0 {
		extractedArg = string(extracted)
	}
	var quotationArg any
	if quotationID != nil {
		quotationArg = *quotationID
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rfq_email_responses
		 SET status = ?, extracted_data = ?, quotation_id = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		string(status), extractedArg, quotationArg, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish email response %s", id)
	}
	return checkRowsAffected(res, "email response", id)
}

func (s *SQLiteStore) ListEmailResponsesSince(ctx context.Context, companyID string, since time.Time) ([]model.RFQEmailResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, rfq_id, vendor_id, message_id, subject, body, attachments,
		        status, extracted_data, quotation_id, error, created_at, updated_at
		 FROM rfq_email_responses
		 WHERE company_id = ? AND created_at >= ?
		 ORDER BY created_at DESC`,
		companyID, since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list email responses")
	}
	defer rows.Close()

	var out []model.RFQEmailResponse
	for rows.Next() {
		var r model.RFQEmailResponse
		var attJSON, extracted, quotationID sql.NullString
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RFQID, &r.VendorID, &r.MessageID,
			&r.Subject, &r.Body, &attJSON, &r.Status, &extracted, &quotationID,
			&r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email response")
		}
		if attJSON.Valid && attJSON.String != "" {
			if err := json.Unmarshal([]byte(attJSON.String), &r.Attachments); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal attachments")
			}
		}
		if extracted.Valid {
			r.ExtractedData = json.RawMessage(extracted.String)
		}
		if quotationID.Valid {
			q := quotationID.String
			r.QuotationID = &q
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list email responses iterate")
}

func (s *SQLiteStore) NextQuotationSeq(ctx context.Context, companyID string, year int) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO quotation_sequences (company_id, year, seq) VALUES (?, ?, 1)
		 ON CONFLICT (company_id, year) DO UPDATE SET seq = seq + 1
		 RETURNING seq`,
		companyID, year,
	).Scan(&seq)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: next quotation seq")
	}
	return seq, nil
}

func (s *SQLiteStore) CreateQuotation(ctx context.Context, q *model.Quotation, items []model.QuotationItem) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = model.QuotationStatusReceived
	}
	q.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var rfqIDArg, validUntilArg any
	if q.RFQID != nil {
		rfqIDArg = *q.RFQID
	}
	if q.ValidUntil != nil {
		validUntilArg = q.ValidUntil.UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quotations
		 (id, company_id, quotation_number, vendor_id, rfq_id, valid_until,
		  subtotal, tax_amount, total_amount, payment_terms, delivery_terms, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.CompanyID, q.QuotationNumber, q.VendorID, rfqIDArg, validUntilArg,
		q.Subtotal, q.TaxAmount, q.TotalAmount, q.PaymentTerms, q.DeliveryTerms,
		string(q.Status), q.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert quotation")
	}

	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.QuotationID = q.ID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quotation_items
			 (id, quotation_id, item_code, description, quantity, unit,
			  unit_price, total_amount, delivery_days, warranty)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.QuotationID, it.ItemCode, it.Description, it.Quantity,
			it.Unit, it.UnitPrice, it.TotalAmount, it.DeliveryDays, it.Warranty,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert quotation item")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit quotation")
}

func (s *SQLiteStore) BumpCommunicationThread(ctx context.Context, rfqID, vendorID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO communication_threads (rfq_id, vendor_id, message_count, last_message_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (rfq_id, vendor_id) DO UPDATE
		 SET message_count = message_count + 1, last_message_at = excluded.last_message_at`,
		rfqID, vendorID, at.UTC(),
	)
	return eris.Wrap(err, "sqlite: bump communication thread")
}

func (s *SQLiteStore) GetCommunicationThread(ctx context.Context, rfqID, vendorID string) (*model.CommunicationThread, error) {
	var t model.CommunicationThread
	err := s.db.QueryRowContext(ctx,
		`SELECT rfq_id, vendor_id, message_count, last_message_at
		 FROM communication_threads WHERE rfq_id = ? AND vendor_id = ?`,
		rfqID, vendorID,
	).Scan(&t.RFQID, &t.VendorID, &t.MessageCount, &t.LastMessageAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get communication thread")
	}
	return &t, nil
}

func (s *SQLiteStore) AppendEmailLog(ctx context.Context, entry *model.EmailLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rfq_email_log (id, company_id, rfq_id, vendor_id, kind, recipient, subject, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CompanyID, entry.RFQID, entry.VendorID, string(entry.Kind),
		entry.Recipient, entry.Subject, entry.SentAt,
	)
	return eris.Wrap(err, "sqlite: append email log")
}

func (s *SQLiteStore) CountEmailLog(ctx context.Context, companyID string, kind model.EmailLogKind, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM rfq_email_log WHERE company_id = ? AND kind = ? AND sent_at >= ?`,
		companyID, string(kind), since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count email log")
	}
	return n, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}
