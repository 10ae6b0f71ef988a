// Package appscript talks to the spreadsheet web app that backs the order
// form. Every call is a form-encoded POST carrying an action name.
package appscript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/provider"
)

const (
	actionGetSales  = "getSales"
	actionGetOutlet = "getOutlet"
	actionGetProduk = "getProduk"
	actionSavePO    = "savePO"

	defaultSaveError = "Gagal menyimpan PO"
	maxResponseBytes = 8 << 20
)

type Client struct {
	scriptURL  string
	httpClient *http.Client
}

func New(scriptURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		scriptURL:  scriptURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *Client) GetSales(ctx context.Context) ([]domain.Salesperson, error) {
	rows, err := c.fetchRows(ctx, actionGetSales)
	if err != nil {
		return nil, err
	}
	return provider.SalesFromRows(rows), nil
}

func (c *Client) GetOutlets(ctx context.Context) ([]domain.Outlet, error) {
	rows, err := c.fetchRows(ctx, actionGetOutlet)
	if err != nil {
		return nil, err
	}
	return provider.OutletsFromRows(rows), nil
}

func (c *Client) GetProducts(ctx context.Context) (domain.CatalogTable, error) {
	rows, err := c.fetchRows(ctx, actionGetProduk)
	if err != nil {
		return domain.CatalogTable{}, err
	}
	if len(rows) == 0 {
		return domain.CatalogTable{}, fmt.Errorf("%s: empty product sheet: %w", actionGetProduk, provider.ErrUnavailable)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if h != nil {
			headers[i] = fmt.Sprint(h)
		}
	}
	return domain.CatalogTable{Headers: headers, Rows: rows[1:]}, nil
}

type productPayload struct {
	Produk string      `json:"produk"`
	Qty    int         `json:"qty"`
	Harga  json.Number `json:"harga"`
	Diskon json.Number `json:"diskon"`
	Total  json.Number `json:"total"`

	// The sheet script reads either casing.
	ProdukTitle string      `json:"Produk"`
	QtyTitle    int         `json:"Qty"`
	HargaTitle  json.Number `json:"Harga"`
	DiskonTitle json.Number `json:"Diskon"`
	TotalTitle  json.Number `json:"Total"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func (c *Client) SavePO(ctx context.Context, po domain.PurchaseOrder) (domain.SaveResult, error) {
	products := make([]productPayload, 0, len(po.Lines))
	for _, line := range po.Lines {
		harga, diskon, total := number(line.UnitPrice), number(line.DiscountPercent), number(line.Total)
		products = append(products, productPayload{
			Produk: line.Product, Qty: line.Qty, Harga: harga, Diskon: diskon, Total: total,
			ProdukTitle: line.Product, QtyTitle: line.Qty, HargaTitle: harga, DiskonTitle: diskon, TotalTitle: total,
		})
	}
	encoded, err := json.Marshal(products)
	if err != nil {
		return domain.SaveResult{}, err
	}

	form := url.Values{}
	form.Set("namaSales", po.Header.Salesperson)
	form.Set("namaOutlet", po.Header.Outlet)
	form.Set("alamat", po.Header.Address)
	form.Set("noTelepon", po.Header.Phone)
	form.Set("noPO", po.Header.PONumber)
	form.Set("keteranganBayar", po.Header.PaymentNote)
	form.Set("catatan", po.Header.Note)
	form.Set("products", string(encoded))

	env, err := c.call(ctx, actionSavePO, form)
	if err != nil {
		return domain.SaveResult{}, err
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = defaultSaveError
		}
		return domain.SaveResult{}, &provider.RejectedError{Action: actionSavePO, Message: msg}
	}
	return domain.SaveResult{PONumber: po.Header.PONumber, Message: env.Message}, nil
}

func (c *Client) fetchRows(ctx context.Context, action string) ([][]any, error) {
	env, err := c.call(ctx, action, url.Values{})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return nil, &provider.RejectedError{Action: action, Message: msg}
	}

	var rows [][]any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return nil, fmt.Errorf("%s: malformed data: %v: %w", action, err, provider.ErrUnavailable)
		}
	}
	if rows == nil {
		return nil, fmt.Errorf("%s: response has no data: %w", action, provider.ErrUnavailable)
	}
	return rows, nil
}

func (c *Client) call(ctx context.Context, action string, form url.Values) (envelope, error) {
	form.Set("action", action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, strings.NewReader(form.Encode()))
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return envelope{}, err
		}
		return envelope{}, fmt.Errorf("%s: %v: %w", action, err, provider.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope{}, fmt.Errorf("%s: read response: %v: %w", action, err, provider.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return envelope{}, fmt.Errorf("%s: status %d: %w", action, resp.StatusCode, provider.ErrUnavailable)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%s: malformed response: %v: %w", action, err, provider.ErrUnavailable)
	}
	return env, nil
}
