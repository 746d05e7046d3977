/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore plus the catalog tables the
  back office needs (products, banks) and the dashboard aggregates. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  orders:           the active partition
  expired_orders:   archive for orders that ran out their term
  canceled_orders:  archive for orders removed mid-term with a refund
  suppliers:        supplier masters (normalized name uniqueness)
  payment_cycles:   per-supplier debt rounds
  products, banks:  catalogs, no business rules

PARTITIONS:
  The three order tables share one column shape plus partition-specific
  extras (archived_at vs refund_amount/created_at). A given order code
  is present in at most one of them; moves happen inside WithTx with the
  archive insert ordered before the active delete.

MONEY AND DATES:
  Monetary columns are TEXT holding decimal strings - never REAL, so no
  float drift. Calendar dates are TEXT YYYY-MM-DD, nullable.

CONCURRENCY:
  sync.RWMutex for in-process safety plus WAL mode. WithTx holds the
  write lock for its whole duration, which also serializes the
  read-then-bulk-write sequences in archival and reconciliation.

USAGE:
  st, err := sqlite.New("./data/ledger.db")
  defer st.Close()

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/order-ledger/ledger"
)

// Store implements ledger.TxStore plus catalog and dashboard queries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: access is serialized by s.mu anyway, and a pool
	// would give ":memory:" databases a fresh schema per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Active partition
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_code TEXT NOT NULL UNIQUE,
		product_id TEXT,
		customer_name TEXT,
		contact_info TEXT,
		slot TEXT,
		note TEXT,
		registration_date TEXT,
		duration_days INTEGER,
		expiry_date TEXT,
		supplier_name TEXT,
		cost TEXT NOT NULL,
		price TEXT NOT NULL,
		status TEXT NOT NULL,
		check_flag INTEGER
	);

	-- Hot path: outstanding-order scan per supplier
	CREATE INDEX IF NOT EXISTS idx_orders_supplier_status
		ON orders(supplier_name, status);
	CREATE INDEX IF NOT EXISTS idx_orders_registration
		ON orders(registration_date);

	-- Expired archive
	CREATE TABLE IF NOT EXISTS expired_orders (
		id INTEGER PRIMARY KEY,
		order_code TEXT NOT NULL UNIQUE,
		product_id TEXT,
		customer_name TEXT,
		contact_info TEXT,
		slot TEXT,
		note TEXT,
		registration_date TEXT,
		duration_days INTEGER,
		expiry_date TEXT,
		supplier_name TEXT,
		cost TEXT NOT NULL,
		price TEXT NOT NULL,
		status TEXT NOT NULL,
		check_flag INTEGER,
		archived_at TEXT NOT NULL
	);

	-- Canceled archive
	CREATE TABLE IF NOT EXISTS canceled_orders (
		id INTEGER PRIMARY KEY,
		order_code TEXT NOT NULL UNIQUE,
		product_id TEXT,
		customer_name TEXT,
		contact_info TEXT,
		slot TEXT,
		note TEXT,
		registration_date TEXT,
		duration_days INTEGER,
		expiry_date TEXT,
		supplier_name TEXT,
		cost TEXT NOT NULL,
		price TEXT NOT NULL,
		status TEXT NOT NULL,
		check_flag INTEGER,
		refund_amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Suppliers (name unique under the normalized key)
	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE,
		bank_account TEXT,
		bank_bin TEXT,
		active BOOLEAN DEFAULT TRUE
	);

	-- Payment cycles (debt rounds)
	CREATE TABLE IF NOT EXISTS payment_cycles (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		import_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		round_label TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_supplier_status
		ON payment_cycles(supplier_id, status);

	-- Catalogs
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		note TEXT
	);

	CREATE TABLE IF NOT EXISTS banks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		bin TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// queryer is satisfied by both *sql.DB and *sql.Tx so every query helper
// can run inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ORDER PARTITION QUERIES
// =============================================================================

const orderColumns = `id, order_code, product_id, customer_name, contact_info, slot, note,
	registration_date, duration_days, expiry_date, supplier_name, cost, price, status, check_flag`

func (s *Store) GetActiveByCode(ctx context.Context, code string) (*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getActiveByCode(ctx, s.db, code)
}

func getActiveByCode(ctx context.Context, q queryer, code string) (*ledger.Order, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_code = ?`, code)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListActive(ctx context.Context) ([]ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryOrders(ctx, s.db,
		`SELECT `+orderColumns+` FROM orders ORDER BY id DESC`)
}

func (s *Store) InsertActive(ctx context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertActive(ctx, s.db, o)
}

func insertActive(ctx context.Context, q queryer, o *ledger.Order) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO orders
		(order_code, product_id, customer_name, contact_info, slot, note,
		 registration_date, duration_days, expiry_date, supplier_name, cost, price, status, check_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderCode, o.ProductID, o.CustomerName, o.ContactInfo, o.Slot, o.Note,
		nullDate(o.RegistrationDate), nullInt(o.DurationDays), nullDate(o.ExpiryDate),
		o.SupplierName, o.Cost.String(), o.Price.String(), string(o.Status), checkToDB(o.Check),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateOrderCode
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		o.ID = id
	}
	return nil
}

func (s *Store) UpdateActive(ctx context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateActive(ctx, s.db, o)
}

func updateActive(ctx context.Context, q queryer, o *ledger.Order) error {
	res, err := q.ExecContext(ctx, `
		UPDATE orders SET
			product_id = ?, customer_name = ?, contact_info = ?, slot = ?, note = ?,
			registration_date = ?, duration_days = ?, expiry_date = ?, supplier_name = ?,
			cost = ?, price = ?, status = ?, check_flag = ?
		WHERE order_code = ?`,
		o.ProductID, o.CustomerName, o.ContactInfo, o.Slot, o.Note,
		nullDate(o.RegistrationDate), nullInt(o.DurationDays), nullDate(o.ExpiryDate),
		o.SupplierName, o.Cost.String(), o.Price.String(), string(o.Status), checkToDB(o.Check),
		o.OrderCode,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrOrderNotFound
	}
	return nil
}

func (s *Store) DeleteActive(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteActive(ctx, s.db, code)
}

func deleteActive(ctx context.Context, q queryer, code string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM orders WHERE order_code = ?`, code)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrOrderNotFound
	}
	return nil
}

func (s *Store) FindOutstanding(ctx context.Context, supplierName string) ([]ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findOutstanding(ctx, s.db, supplierName)
}

// findOutstanding is the FIFO debt queue: oldest registration first,
// unknown dates oldest of all, id as the final tie-break.
func findOutstanding(ctx context.Context, q queryer, supplierName string) ([]ledger.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE LOWER(TRIM(status)) = 'unpaid'
		  AND (check_flag IS NULL OR check_flag = 0)
		  AND TRIM(COALESCE(supplier_name, '')) = ?
		ORDER BY
			CASE WHEN registration_date IS NULL THEN 0 ELSE 1 END ASC,
			registration_date ASC,
			id ASC
	`
	return queryOrders(ctx, q, query, strings.TrimSpace(supplierName))
}

func (s *Store) MarkPaid(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markPaid(ctx, s.db, ids)
}

func markPaid(ctx context.Context, q queryer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := fmt.Sprintf(
		`UPDATE orders SET status = '%s', check_flag = 1 WHERE id IN (%s)`,
		ledger.StatusPaid, strings.Join(placeholders, ","),
	)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark orders paid: %w", err)
	}
	return nil
}

func (s *Store) InsertExpired(ctx context.Context, rec *ledger.ExpiredOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertExpired(ctx, s.db, rec)
}

func insertExpired(ctx context.Context, q queryer, rec *ledger.ExpiredOrder) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO expired_orders
		(id, order_code, product_id, customer_name, contact_info, slot, note,
		 registration_date, duration_days, expiry_date, supplier_name, cost, price, status, check_flag,
		 archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrderCode, rec.ProductID, rec.CustomerName, rec.ContactInfo, rec.Slot, rec.Note,
		nullDate(rec.RegistrationDate), nullInt(rec.DurationDays), nullDate(rec.ExpiryDate),
		rec.SupplierName, rec.Cost.String(), rec.Price.String(), string(rec.Status), checkToDB(rec.Check),
		rec.ArchivedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expired archive: %w", err)
	}
	return nil
}

func (s *Store) InsertCanceled(ctx context.Context, rec *ledger.CanceledOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertCanceled(ctx, s.db, rec)
}

func insertCanceled(ctx context.Context, q queryer, rec *ledger.CanceledOrder) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO canceled_orders
		(id, order_code, product_id, customer_name, contact_info, slot, note,
		 registration_date, duration_days, expiry_date, supplier_name, cost, price, status, check_flag,
		 refund_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrderCode, rec.ProductID, rec.CustomerName, rec.ContactInfo, rec.Slot, rec.Note,
		nullDate(rec.RegistrationDate), nullInt(rec.DurationDays), nullDate(rec.ExpiryDate),
		rec.SupplierName, rec.Cost.String(), rec.Price.String(), string(rec.Status), checkToDB(rec.Check),
		rec.RefundAmount.String(), rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert canceled archive: %w", err)
	}
	return nil
}

func (s *Store) ListExpired(ctx context.Context) ([]ledger.ExpiredOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+`, archived_at FROM expired_orders ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired archive: %w", err)
	}
	defer rows.Close()

	var out []ledger.ExpiredOrder
	for rows.Next() {
		var rec ledger.ExpiredOrder
		var archivedAt string
		o, err := scanOrderInto(rows, &archivedAt)
		if err != nil {
			return nil, err
		}
		rec.Order = *o
		rec.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) ListCanceled(ctx context.Context) ([]ledger.CanceledOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+`, refund_amount, created_at FROM canceled_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query canceled archive: %w", err)
	}
	defer rows.Close()

	var out []ledger.CanceledOrder
	for rows.Next() {
		var rec ledger.CanceledOrder
		var refund, createdAt string
		o, err := scanOrderInto(rows, &refund, &createdAt)
		if err != nil {
			return nil, err
		}
		rec.Order = *o
		rec.RefundAmount = parseDecimal(refund)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func queryOrders(ctx context.Context, q queryer, query string, args ...any) ([]ledger.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []ledger.Order
	for rows.Next() {
		o, err := scanOrderInto(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (*ledger.Order, error) {
	return scanOrderInto(r)
}

// scanOrderInto scans the shared order columns plus any trailing
// partition-specific columns into extra.
func scanOrderInto(r rowScanner, extra ...any) (*ledger.Order, error) {
	var (
		o                ledger.Order
		productID        sql.NullString
		customerName     sql.NullString
		contactInfo      sql.NullString
		slot             sql.NullString
		note             sql.NullString
		registrationDate sql.NullString
		durationDays     sql.NullInt64
		expiryDate       sql.NullString
		supplierName     sql.NullString
		cost             string
		price            string
		status           string
		checkFlag        sql.NullInt64
	)

	dest := []any{
		&o.ID, &o.OrderCode, &productID, &customerName, &contactInfo, &slot, &note,
		&registrationDate, &durationDays, &expiryDate, &supplierName, &cost, &price, &status, &checkFlag,
	}
	dest = append(dest, extra...)

	if err := r.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.ProductID = productID.String
	o.CustomerName = customerName.String
	o.ContactInfo = contactInfo.String
	o.Slot = slot.String
	o.Note = note.String
	o.RegistrationDate = parseNullDate(registrationDate)
	if durationDays.Valid {
		d := int(durationDays.Int64)
		o.DurationDays = &d
	}
	o.ExpiryDate = parseNullDate(expiryDate)
	o.SupplierName = supplierName.String
	o.Cost = parseDecimal(cost)
	o.Price = parseDecimal(price)
	o.Status = ledger.OrderStatus(status)
	o.Check = checkFromDB(checkFlag)

	return &o, nil
}

// =============================================================================
// SUPPLIER LEDGER QUERIES
// =============================================================================

func (s *Store) GetSupplier(ctx context.Context, id string) (*ledger.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSupplier(ctx, s.db, id)
}

func getSupplier(ctx context.Context, q queryer, id string) (*ledger.Supplier, error) {
	var sup ledger.Supplier
	var bankAccount, bankBin sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, name, bank_account, bank_bin, active FROM suppliers WHERE id = ?`, id,
	).Scan(&sup.ID, &sup.Name, &bankAccount, &bankBin, &sup.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	sup.BankAccount = bankAccount.String
	sup.BankBin = bankBin.String
	return &sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]ledger.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, bank_account, bank_bin, active FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Supplier
	for rows.Next() {
		var sup ledger.Supplier
		var bankAccount, bankBin sql.NullString
		if err := rows.Scan(&sup.ID, &sup.Name, &bankAccount, &bankBin, &sup.Active); err != nil {
			return nil, err
		}
		sup.BankAccount = bankAccount.String
		sup.BankBin = bankBin.String
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (s *Store) SaveSupplier(ctx context.Context, sup *ledger.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveSupplier(ctx, s.db, sup)
}

func saveSupplier(ctx context.Context, q queryer, sup *ledger.Supplier) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, name_key, bank_account, bank_bin, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name_key = excluded.name_key,
			bank_account = excluded.bank_account,
			bank_bin = excluded.bank_bin,
			active = excluded.active`,
		sup.ID, sup.Name, ledger.NameKey(sup.Name), sup.BankAccount, sup.BankBin, sup.Active,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateSupplier
		}
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrSupplierNotFound
	}
	return nil
}

func (s *Store) GetCycle(ctx context.Context, id string) (*ledger.PaymentCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCycle(ctx, s.db, id)
}

func getCycle(ctx context.Context, q queryer, id string) (*ledger.PaymentCycle, error) {
	var c ledger.PaymentCycle
	var importAmount, paidAmount string
	var label sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, supplier_id, import_amount, paid_amount, round_label, status
		 FROM payment_cycles WHERE id = ?`, id,
	).Scan(&c.ID, &c.SupplierID, &importAmount, &paidAmount, &label, &c.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment cycle: %w", err)
	}
	c.ImportAmount = parseDecimal(importAmount)
	c.PaidAmount = parseDecimal(paidAmount)
	c.RoundLabel = label.String
	return &c, nil
}

func (s *Store) ListCycles(ctx context.Context, supplierID string) ([]ledger.PaymentCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, supplier_id, import_amount, paid_amount, round_label, status
		FROM payment_cycles`
	var args []any
	if supplierID != "" {
		query += ` WHERE supplier_id = ?`
		args = append(args, supplierID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment cycles: %w", err)
	}
	defer rows.Close()

	var out []ledger.PaymentCycle
	for rows.Next() {
		var c ledger.PaymentCycle
		var importAmount, paidAmount string
		var label sql.NullString
		if err := rows.Scan(&c.ID, &c.SupplierID, &importAmount, &paidAmount, &label, &c.Status); err != nil {
			return nil, err
		}
		c.ImportAmount = parseDecimal(importAmount)
		c.PaidAmount = parseDecimal(paidAmount)
		c.RoundLabel = label.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) HasUnpaidCycle(ctx context.Context, supplierID, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasUnpaidCycle(ctx, s.db, supplierID, excludeID)
}

func hasUnpaidCycle(ctx context.Context, q queryer, supplierID, excludeID string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_cycles
		 WHERE supplier_id = ? AND status = ? AND id != ?`,
		supplierID, string(ledger.CycleUnpaid), excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check open cycles: %w", err)
	}
	return count > 0, nil
}

func (s *Store) InsertCycle(ctx context.Context, c *ledger.PaymentCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertCycle(ctx, s.db, c)
}

func insertCycle(ctx context.Context, q queryer, c *ledger.PaymentCycle) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO payment_cycles (id, supplier_id, import_amount, paid_amount, round_label, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SupplierID, c.ImportAmount.String(), c.PaidAmount.String(),
		c.RoundLabel, string(c.Status), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment cycle: %w", err)
	}
	return nil
}

func (s *Store) UpdateCycle(ctx context.Context, c *ledger.PaymentCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateCycle(ctx, s.db, c)
}

func updateCycle(ctx context.Context, q queryer, c *ledger.PaymentCycle) error {
	res, err := q.ExecContext(ctx, `
		UPDATE payment_cycles SET import_amount = ?, paid_amount = ?, round_label = ?, status = ?
		WHERE id = ?`,
		c.ImportAmount.String(), c.PaidAmount.String(), c.RoundLabel, string(c.Status), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment cycle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrCycleNotFound
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn inside one database transaction, holding the write
// lock so the read-then-write sequences in archival and reconciliation
// observe a single consistent snapshot.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.TransactionError{Op: "begin", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &ledger.TransactionError{Op: "commit", Err: err}
	}
	return nil
}

// txStore runs every store method against the open *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) GetActiveByCode(ctx context.Context, code string) (*ledger.Order, error) {
	return getActiveByCode(ctx, t.tx, code)
}

func (t *txStore) ListActive(ctx context.Context) ([]ledger.Order, error) {
	return queryOrders(ctx, t.tx, `SELECT `+orderColumns+` FROM orders ORDER BY id DESC`)
}

func (t *txStore) InsertActive(ctx context.Context, o *ledger.Order) error {
	return insertActive(ctx, t.tx, o)
}

func (t *txStore) UpdateActive(ctx context.Context, o *ledger.Order) error {
	return updateActive(ctx, t.tx, o)
}

func (t *txStore) DeleteActive(ctx context.Context, code string) error {
	return deleteActive(ctx, t.tx, code)
}

func (t *txStore) FindOutstanding(ctx context.Context, supplierName string) ([]ledger.Order, error) {
	return findOutstanding(ctx, t.tx, supplierName)
}

func (t *txStore) MarkPaid(ctx context.Context, ids []int64) error {
	return markPaid(ctx, t.tx, ids)
}

func (t *txStore) InsertExpired(ctx context.Context, rec *ledger.ExpiredOrder) error {
	return insertExpired(ctx, t.tx, rec)
}

func (t *txStore) InsertCanceled(ctx context.Context, rec *ledger.CanceledOrder) error {
	return insertCanceled(ctx, t.tx, rec)
}

func (t *txStore) ListExpired(ctx context.Context) ([]ledger.ExpiredOrder, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+orderColumns+`, archived_at FROM expired_orders ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired archive: %w", err)
	}
	defer rows.Close()

	var out []ledger.ExpiredOrder
	for rows.Next() {
		var rec ledger.ExpiredOrder
		var archivedAt string
		o, err := scanOrderInto(rows, &archivedAt)
		if err != nil {
			return nil, err
		}
		rec.Order = *o
		rec.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *txStore) ListCanceled(ctx context.Context) ([]ledger.CanceledOrder, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+orderColumns+`, refund_amount, created_at FROM canceled_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query canceled archive: %w", err)
	}
	defer rows.Close()

	var out []ledger.CanceledOrder
	for rows.Next() {
		var rec ledger.CanceledOrder
		var refund, createdAt string
		o, err := scanOrderInto(rows, &refund, &createdAt)
		if err != nil {
			return nil, err
		}
		rec.Order = *o
		rec.RefundAmount = parseDecimal(refund)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *txStore) GetSupplier(ctx context.Context, id string) (*ledger.Supplier, error) {
	return getSupplier(ctx, t.tx, id)
}

func (t *txStore) ListSuppliers(ctx context.Context) ([]ledger.Supplier, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, bank_account, bank_bin, active FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Supplier
	for rows.Next() {
		var sup ledger.Supplier
		var bankAccount, bankBin sql.NullString
		if err := rows.Scan(&sup.ID, &sup.Name, &bankAccount, &bankBin, &sup.Active); err != nil {
			return nil, err
		}
		sup.BankAccount = bankAccount.String
		sup.BankBin = bankBin.String
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (t *txStore) SaveSupplier(ctx context.Context, sup *ledger.Supplier) error {
	return saveSupplier(ctx, t.tx, sup)
}

func (t *txStore) DeleteSupplier(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrSupplierNotFound
	}
	return nil
}

func (t *txStore) GetCycle(ctx context.Context, id string) (*ledger.PaymentCycle, error) {
	return getCycle(ctx, t.tx, id)
}

func (t *txStore) ListCycles(ctx context.Context, supplierID string) ([]ledger.PaymentCycle, error) {
	query := `SELECT id, supplier_id, import_amount, paid_amount, round_label, status
		FROM payment_cycles`
	var args []any
	if supplierID != "" {
		query += ` WHERE supplier_id = ?`
		args = append(args, supplierID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment cycles: %w", err)
	}
	defer rows.Close()

	var out []ledger.PaymentCycle
	for rows.Next() {
		var c ledger.PaymentCycle
		var importAmount, paidAmount string
		var label sql.NullString
		if err := rows.Scan(&c.ID, &c.SupplierID, &importAmount, &paidAmount, &label, &c.Status); err != nil {
			return nil, err
		}
		c.ImportAmount = parseDecimal(importAmount)
		c.PaidAmount = parseDecimal(paidAmount)
		c.RoundLabel = label.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *txStore) HasUnpaidCycle(ctx context.Context, supplierID, excludeID string) (bool, error) {
	return hasUnpaidCycle(ctx, t.tx, supplierID, excludeID)
}

func (t *txStore) InsertCycle(ctx context.Context, c *ledger.PaymentCycle) error {
	return insertCycle(ctx, t.tx, c)
}

func (t *txStore) UpdateCycle(ctx context.Context, c *ledger.PaymentCycle) error {
	return updateCycle(ctx, t.tx, c)
}

// =============================================================================
// CATALOGS (products, banks)
// =============================================================================

// Product is a catalog row consumed by the UI. No business rules.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Note  string
}

func (s *Store) SaveProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, note)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			note = excluded.note`,
		p.ID, p.Name, p.Price.String(), p.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price, note FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var price string
		var note sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &price, &note); err != nil {
			return nil, err
		}
		p.Price = parseDecimal(price)
		p.Note = note.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

// Bank is a catalog row for refund/payment bank pickers.
type Bank struct {
	ID   string
	Name string
	Bin  string
}

func (s *Store) SaveBank(ctx context.Context, b Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO banks (id, name, bin)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			bin = excluded.bin`,
		b.ID, b.Name, b.Bin,
	)
	if err != nil {
		return fmt.Errorf("failed to save bank: %w", err)
	}
	return nil
}

func (s *Store) ListBanks(ctx context.Context) ([]Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, bin FROM banks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	var out []Bank
	for rows.Next() {
		var b Bank
		var bin sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &bin); err != nil {
			return nil, err
		}
		b.Bin = bin.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBank(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id)
	return err
}

// =============================================================================
// DASHBOARD AGGREGATES
// =============================================================================

// DashboardSummary is the one-shot aggregate the dashboard page renders.
type DashboardSummary struct {
	ActiveOrders   int
	ExpiredOrders  int
	CanceledOrders int

	TotalCost       decimal.Decimal // sum of cost over active orders
	TotalPrice      decimal.Decimal // sum of price over active orders
	OutstandingDebt decimal.Decimal // open cycles: import - paid
	PendingRefunds  decimal.Decimal // canceled archive refunds

	MonthlyRegistrations []MonthCount
}

type MonthCount struct {
	Month string // YYYY-MM
	Count int
}

func (s *Store) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum DashboardSummary

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&sum.ActiveOrders); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expired_orders`).Scan(&sum.ExpiredOrders); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM canceled_orders`).Scan(&sum.CanceledOrders); err != nil {
		return nil, err
	}

	// Money columns are decimal TEXT; aggregate in Go rather than with
	// SUM() over casts.
	rows, err := s.db.QueryContext(ctx, `SELECT cost, price FROM orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sum.TotalCost, sum.TotalPrice = decimal.Zero, decimal.Zero
	for rows.Next() {
		var cost, price string
		if err := rows.Scan(&cost, &price); err != nil {
			return nil, err
		}
		sum.TotalCost = sum.TotalCost.Add(parseDecimal(cost))
		sum.TotalPrice = sum.TotalPrice.Add(parseDecimal(price))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cycleRows, err := s.db.QueryContext(ctx,
		`SELECT import_amount, paid_amount FROM payment_cycles WHERE status = ?`,
		string(ledger.CycleUnpaid))
	if err != nil {
		return nil, err
	}
	defer cycleRows.Close()
	sum.OutstandingDebt = decimal.Zero
	for cycleRows.Next() {
		var imp, paid string
		if err := cycleRows.Scan(&imp, &paid); err != nil {
			return nil, err
		}
		sum.OutstandingDebt = sum.OutstandingDebt.Add(parseDecimal(imp).Sub(parseDecimal(paid)))
	}
	if err := cycleRows.Err(); err != nil {
		return nil, err
	}

	refundRows, err := s.db.QueryContext(ctx, `SELECT refund_amount FROM canceled_orders`)
	if err != nil {
		return nil, err
	}
	defer refundRows.Close()
	sum.PendingRefunds = decimal.Zero
	for refundRows.Next() {
		var refund string
		if err := refundRows.Scan(&refund); err != nil {
			return nil, err
		}
		sum.PendingRefunds = sum.PendingRefunds.Add(parseDecimal(refund))
	}
	if err := refundRows.Err(); err != nil {
		return nil, err
	}

	monthRows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', registration_date) AS month, COUNT(*)
		FROM orders
		WHERE registration_date IS NOT NULL
		GROUP BY month
		ORDER BY month ASC`)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var mc MonthCount
		if err := monthRows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		sum.MonthlyRegistrations = append(sum.MonthlyRegistrations, mc)
	}
	return &sum, monthRows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"orders", "expired_orders", "canceled_orders", "suppliers", "payment_cycles", "products", "banks"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullDate(d *ledger.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func parseNullDate(s sql.NullString) *ledger.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := ledger.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func checkToDB(c ledger.CheckFlag) any {
	switch c {
	case ledger.CheckConfirmed:
		return 1
	case ledger.CheckPendingRefund:
		return 0
	default:
		return nil
	}
}

func checkFromDB(v sql.NullInt64) ledger.CheckFlag {
	if !v.Valid {
		return ledger.CheckUnset
	}
	if v.Int64 != 0 {
		return ledger.CheckConfirmed
	}
	return ledger.CheckPendingRefund
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
