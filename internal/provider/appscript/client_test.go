package appscript

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/provider"
)

func newScriptServer(t *testing.T, handle func(action string, r *http.Request) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handle(r.PostForm.Get("action"), r))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProductsSplitsHeader(t *testing.T) {
	srv := newScriptServer(t, func(action string, _ *http.Request) any {
		if action != "getProduk" {
			t.Errorf("unexpected action %q", action)
		}
		return map[string]any{
			"success": true,
			"data": [][]any{
				{"Nama Produk", "Harga", "Diskon", "Stok"},
				{"Kopi A", 10000, 5, 8},
			},
		}
	})

	table, err := New(srv.URL, time.Second).GetProducts(context.Background())
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	if len(table.Headers) != 4 || table.Headers[0] != "Nama Produk" {
		t.Fatalf("unexpected headers: %v", table.Headers)
	}
	if len(table.Rows) != 1 || table.Rows[0][0] != "Kopi A" {
		t.Fatalf("unexpected rows: %v", table.Rows)
	}
	if table.Rows[0][1] != float64(10000) {
		t.Fatalf("expected numeric price cell, got %#v", table.Rows[0][1])
	}
}

func TestGetSalesAndOutlets(t *testing.T) {
	srv := newScriptServer(t, func(action string, _ *http.Request) any {
		switch action {
		case "getSales":
			return map[string]any{"success": true, "data": [][]any{{"Nama"}, {"Budi"}, {""}, {"Sari"}}}
		case "getOutlet":
			return map[string]any{"success": true, "data": [][]any{{"Nama", "Alamat", "Telp"}, {"Toko Maju", "Jl. Merdeka 1", "0812"}}}
		}
		return map[string]any{"success": false}
	})
	c := New(srv.URL, time.Second)

	sales, err := c.GetSales(context.Background())
	if err != nil {
		t.Fatalf("get sales: %v", err)
	}
	if len(sales) != 2 || sales[1].Name != "Sari" {
		t.Fatalf("unexpected sales: %+v", sales)
	}

	outlets, err := c.GetOutlets(context.Background())
	if err != nil {
		t.Fatalf("get outlets: %v", err)
	}
	if len(outlets) != 1 || outlets[0].Phone != "0812" {
		t.Fatalf("unexpected outlets: %+v", outlets)
	}
}

func TestSavePOSendsFormFields(t *testing.T) {
	var got map[string]string
	var products []map[string]any
	srv := newScriptServer(t, func(action string, r *http.Request) any {
		got = map[string]string{}
		for k := range r.PostForm {
			got[k] = r.PostForm.Get(k)
		}
		if err := json.Unmarshal([]byte(r.PostForm.Get("products")), &products); err != nil {
			t.Errorf("decode products: %v", err)
		}
		return map[string]any{"success": true, "message": "ok"}
	})

	po := domain.PurchaseOrder{
		Header: domain.POHeader{
			Salesperson: "Budi", Outlet: "Toko Maju", Address: "Jl. Merdeka 1", Phone: "0812",
			PONumber: "PO-20261019-0001", PaymentNote: "CASH", Note: "antar pagi",
		},
		Lines: []domain.PurchaseOrderLine{{
			Product: "Kopi A", Qty: 8, UnitPrice: decimal.NewFromInt(10000),
			DiscountPercent: decimal.NewFromInt(5), Total: decimal.NewFromInt(76000),
		}},
	}
	res, err := New(srv.URL, time.Second).SavePO(context.Background(), po)
	if err != nil {
		t.Fatalf("save po: %v", err)
	}
	if res.PONumber != "PO-20261019-0001" {
		t.Fatalf("unexpected result: %+v", res)
	}

	want := map[string]string{
		"action": "savePO", "namaSales": "Budi", "namaOutlet": "Toko Maju", "alamat": "Jl. Merdeka 1",
		"noTelepon": "0812", "noPO": "PO-20261019-0001", "keteranganBayar": "CASH", "catatan": "antar pagi",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %s: expected %q, got %q", k, v, got[k])
		}
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if p["produk"] != "Kopi A" || p["Produk"] != "Kopi A" {
		t.Fatalf("unexpected product names: %v", p)
	}
	if p["total"] != float64(76000) || p["Total"] != float64(76000) || p["qty"] != float64(8) {
		t.Fatalf("unexpected product numbers: %v", p)
	}
}

func TestSavePORejected(t *testing.T) {
	srv := newScriptServer(t, func(string, *http.Request) any {
		return map[string]any{"success": false}
	})
	_, err := New(srv.URL, time.Second).SavePO(context.Background(), domain.PurchaseOrder{})
	if !errors.Is(err, provider.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	var rejected *provider.RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "Gagal menyimpan PO" {
		t.Fatalf("expected default rejection message, got %v", err)
	}
}

func TestUnavailableOnServerErrorAndGarbage(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer failing.Close()
	if _, err := New(failing.URL, time.Second).GetSales(context.Background()); !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for 502, got %v", err)
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer garbage.Close()
	if _, err := New(garbage.URL, time.Second).GetProducts(context.Background()); !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for html body, got %v", err)
	}
}
