package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one catalog row after column resolution. It is read-only to the
// order engine.
type Product struct {
	Name                   string          `json:"name"`
	Price                  decimal.Decimal `json:"price"`
	DefaultDiscountPercent decimal.Decimal `json:"default_discount_percent"`
	Stock                  int             `json:"stock"`
}

// CatalogTable is the raw product sheet: a header row plus data rows of
// loosely typed cells, exactly as the provider returned them.
type CatalogTable struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

type Salesperson struct {
	Name string `json:"name"`
}

type Outlet struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type POHeader struct {
	Salesperson string `json:"salesperson"`
	Outlet      string `json:"outlet"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	PONumber    string `json:"po_number"`
	PaymentNote string `json:"payment_note"`
	Note        string `json:"note"`
}

type HeaderUpdateRequest struct {
	Salesperson *string `json:"salesperson,omitempty"`
	Outlet      *string `json:"outlet,omitempty"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	PaymentNote *string `json:"payment_note,omitempty"`
	Note        *string `json:"note,omitempty"`
}

// PurchaseOrderLine is one serialized line of a submission. Total is the
// computed line total, never re-derived by the backend.
type PurchaseOrderLine struct {
	Product         string          `json:"product"`
	Qty             int             `json:"qty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
}

type PurchaseOrder struct {
	Header        POHeader            `json:"header"`
	Lines         []PurchaseOrderLine `json:"lines"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DiscountTotal decimal.Decimal     `json:"discount_total"`
	Total         decimal.Decimal     `json:"total"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}

type SaveResult struct {
	PONumber string `json:"po_number"`
	Message  string `json:"message,omitempty"`
}

type POSubmittedEvent struct {
	PONumber    string          `json:"po_number"`
	Salesperson string          `json:"salesperson"`
	Outlet      string          `json:"outlet"`
	LineCount   int             `json:"line_count"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

type CatalogMatch struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	PriceText     string          `json:"price_text"`
	DiscountPct   decimal.Decimal `json:"default_discount_percent"`
	Stock         int             `json:"stock"`
	StockLevel    string          `json:"stock_level"`
	QuantityInput bool            `json:"quantity_input_enabled"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Matches []CatalogMatch `json:"matches"`
	Found   bool           `json:"found"`
}

type LineView struct {
	ID                 string          `json:"id"`
	State              string          `json:"state"`
	Product            string          `json:"product,omitempty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	UnitPriceText      string          `json:"unit_price_text"`
	Stock              int             `json:"stock"`
	StockLevel         string          `json:"stock_level,omitempty"`
	StockMessage       string          `json:"stock_message,omitempty"`
	QuantityInput      bool            `json:"quantity_input_enabled"`
	Quantity           int             `json:"quantity"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	LineTotal          decimal.Decimal `json:"line_total"`
	LineTotalText      string          `json:"line_total_text"`
	RemoveButtonHidden bool            `json:"remove_button_hidden"`
}

type BreakdownItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type AggregateView struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	SubtotalText string          `json:"subtotal_text"`
	DiscountText string          `json:"discount_text"`
	TotalText    string          `json:"total_text"`
	Breakdown    []BreakdownItem `json:"breakdown"`
}

type SessionView struct {
	SessionID    string        `json:"session_id"`
	Header       POHeader      `json:"header"`
	Lines        []LineView    `json:"lines"`
	Aggregate    AggregateView `json:"aggregate"`
	CatalogSize  int           `json:"catalog_size"`
	LoadError    string        `json:"load_error,omitempty"`
	ColumnNotice string        `json:"column_notice,omitempty"`
	ExpiresAt    string        `json:"expires_at"`
}

type DirectoryResponse struct {
	Sales          []Salesperson `json:"sales"`
	Outlets        []Outlet      `json:"outlets"`
	PaymentMethods []string      `json:"payment_methods"`
}

// LineUpdateRequest applies product, then quantity, then discount.
type LineUpdateRequest struct {
	Product         *string          `json:"product,omitempty"`
	Quantity        *int             `json:"quantity,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

type LineUpdateResponse struct {
	Line           LineView      `json:"line"`
	Aggregate      AggregateView `json:"aggregate"`
	StockViolation bool          `json:"stock_violation"`
	Message        string        `json:"message,omitempty"`
}

type SessionOpenResponse struct {
	Token   string      `json:"token"`
	Session SessionView `json:"session"`
}

type SubmitResponse struct {
	PONumber    string      `json:"po_number"`
	LineCount   int         `json:"line_count"`
	Total       string      `json:"total_text"`
	Message     string      `json:"message"`
	NextSession SessionView `json:"session"`
}

const (
	LineStateEmpty      = "empty"
	LineStateBound      = "bound"
	LineStateQuantified = "quantified"
)

const (
	StockLevelOut    = "out_of_stock"
	StockLevelLow    = "low_stock"
	StockLevelNormal = "in_stock"
)
