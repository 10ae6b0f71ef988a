// Package postgres stores the directories, catalog and submitted purchase
// orders in PostgreSQL through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/provider"
)

type Provider struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Provider, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Provider{db: db}, nil
}

func (p *Provider) Close() error {
	return p.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
		name TEXT PRIMARY KEY CHECK (char_length(trim(name)) > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS outlets (
		name    TEXT PRIMARY KEY CHECK (char_length(trim(name)) > 0),
		address TEXT NOT NULL DEFAULT '',
		phone   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id               BIGSERIAL PRIMARY KEY,
		name             TEXT NOT NULL CHECK (char_length(trim(name)) > 0),
		price            NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
		discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0 CHECK (discount_percent BETWEEN 0 AND 100),
		stock            INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		po_number    TEXT PRIMARY KEY,
		salesperson  TEXT NOT NULL,
		outlet       TEXT NOT NULL,
		address      TEXT NOT NULL,
		phone        TEXT NOT NULL,
		payment_note TEXT NOT NULL,
		note         TEXT NOT NULL DEFAULT '',
		subtotal     NUMERIC(16,4) NOT NULL,
		discount     NUMERIC(16,4) NOT NULL,
		total        NUMERIC(16,4) NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_items (
		po_number        TEXT NOT NULL REFERENCES purchase_orders(po_number) ON DELETE CASCADE,
		line_no          INTEGER NOT NULL,
		product          TEXT NOT NULL,
		qty              INTEGER NOT NULL CHECK (qty > 0),
		unit_price       NUMERIC(14,2) NOT NULL,
		discount_percent NUMERIC(5,2) NOT NULL,
		total            NUMERIC(16,4) NOT NULL,
		PRIMARY KEY (po_number, line_no)
	)`,
	`CREATE INDEX IF NOT EXISTS products_name_idx ON products (lower(name))`,
}

// EnsureSchema creates the tables and indexes when missing.
func (p *Provider) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Println("[postgres] schema ready")
	return nil
}

func (p *Provider) GetSales(ctx context.Context) ([]domain.Salesperson, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM sales ORDER BY name`)
	if err != nil {
		return nil, unavailable("getSales", err)
	}
	defer rows.Close()

	sales := make([]domain.Salesperson, 0, 16)
	for rows.Next() {
		var s domain.Salesperson
		if err := rows.Scan(&s.Name); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("getSales", err)
	}
	return sales, nil
}

func (p *Provider) GetOutlets(ctx context.Context) ([]domain.Outlet, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, address, phone FROM outlets ORDER BY name`)
	if err != nil {
		return nil, unavailable("getOutlet", err)
	}
	defer rows.Close()

	outlets := make([]domain.Outlet, 0, 32)
	for rows.Next() {
		var o domain.Outlet
		if err := rows.Scan(&o.Name, &o.Address, &o.Phone); err != nil {
			return nil, err
		}
		outlets = append(outlets, o)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("getOutlet", err)
	}
	return outlets, nil
}

// GetProducts returns the catalog in sheet form so it goes through the same
// column resolution as the spreadsheet source.
func (p *Provider) GetProducts(ctx context.Context) (domain.CatalogTable, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, price, discount_percent, stock
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return domain.CatalogTable{}, unavailable("getProduk", err)
	}
	defer rows.Close()

	table := domain.CatalogTable{
		Headers: []string{"NAMA PRODUK", "HARGA", "DISKON", "STOK"},
		Rows:    make([][]any, 0, 128),
	}
	for rows.Next() {
		var (
			name            string
			price, discount decimal.Decimal
			stock           int64
		)
		if err := rows.Scan(&name, &price, &discount, &stock); err != nil {
			return domain.CatalogTable{}, err
		}
		table.Rows = append(table.Rows, []any{name, price, discount, stock})
	}
	if err := rows.Err(); err != nil {
		return domain.CatalogTable{}, unavailable("getProduk", err)
	}
	return table, nil
}

// SavePO writes the order and its items and takes the quantities out of
// stock in one transaction.
func (p *Provider) SavePO(ctx context.Context, po domain.PurchaseOrder) (domain.SaveResult, error) {
	if po.Header.PONumber == "" || len(po.Lines) == 0 {
		return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: "Gagal menyimpan PO"}
	}
	if po.SubmittedAt.IsZero() {
		po.SubmittedAt = time.Now().UTC()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.SaveResult{}, unavailable("savePO", err)
	}
	defer func() { _ = tx.Rollback() }()

	h := po.Header
	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (
			po_number, salesperson, outlet, address, phone, payment_note, note,
			subtotal, discount, total, submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, h.PONumber, h.Salesperson, h.Outlet, h.Address, h.Phone, h.PaymentNote, h.Note,
		po.Subtotal, po.DiscountTotal, po.Total, po.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: fmt.Sprintf("No. PO %s sudah dipakai", h.PONumber)}
		}
		return domain.SaveResult{}, err
	}

	for i, line := range po.Lines {
		if line.Qty < 1 {
			return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: "Gagal menyimpan PO"}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2
			WHERE id = (
				SELECT id FROM products
				WHERE name = $1 AND stock >= $2
				ORDER BY id
				LIMIT 1
				FOR UPDATE
			)
		`, line.Product, line.Qty)
		if err != nil {
			return domain.SaveResult{}, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return domain.SaveResult{}, err
		}
		if affected == 0 {
			return domain.SaveResult{}, fmt.Errorf("savePO %s: %w", line.Product, provider.ErrInsufficientStock)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (po_number, line_no, product, qty, unit_price, discount_percent, total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, h.PONumber, i+1, line.Product, line.Qty, line.UnitPrice, line.DiscountPercent, line.Total)
		if err != nil {
			return domain.SaveResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.SaveResult{}, err
	}
	return domain.SaveResult{PONumber: h.PONumber, Message: "PO tersimpan"}, nil
}

// NextPOSequence reads the highest sequence already stored for the day.
func (p *Provider) NextPOSequence(ctx context.Context, prefix string, day time.Time) (int, error) {
	stem := provider.PONumberStem(prefix, day)
	var highest sql.NullInt64
	err := p.db.QueryRowContext(ctx, `
		SELECT MAX(CASE
			WHEN substr(po_number, $2) ~ '^[0-9]{1,9}$' THEN substr(po_number, $2)::BIGINT
		END)
		FROM purchase_orders
		WHERE starts_with(po_number, $1)
	`, stem, utf8.RuneCountInString(stem)+1).Scan(&highest)
	if err != nil {
		return 0, unavailable("nextPOSequence", err)
	}
	if !highest.Valid {
		return 1, nil
	}
	return int(highest.Int64) + 1, nil
}

func unavailable(action string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", action, err, provider.ErrUnavailable)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
