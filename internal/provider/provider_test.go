package provider

import (
	"errors"
	"testing"
	"time"
)

func TestOutletsFromRowsSkipsHeaderAndBlankNames(t *testing.T) {
	outlets := OutletsFromRows([][]any{
		{"Nama Outlet", "Alamat", "Telepon"},
		{"Toko Maju", "Jl. Merdeka 1", float64(81234567)},
		{"", "Jl. Kosong", ""},
		{"Warung Sari"},
	})
	if len(outlets) != 2 {
		t.Fatalf("expected 2 outlets, got %d", len(outlets))
	}
	if outlets[0].Phone != "81234567" {
		t.Fatalf("expected numeric phone rendered without exponent, got %q", outlets[0].Phone)
	}
	if outlets[1].Name != "Warung Sari" || outlets[1].Address != "" {
		t.Fatalf("unexpected short row outlet: %+v", outlets[1])
	}
}

func TestSalesFromRowsHeaderOnly(t *testing.T) {
	if got := SalesFromRows([][]any{{"Nama Sales"}}); len(got) != 0 {
		t.Fatalf("expected no sales, got %+v", got)
	}
	got := SalesFromRows([][]any{{"Nama Sales"}, {" Budi "}, {nil}})
	if len(got) != 1 || got[0].Name != "Budi" {
		t.Fatalf("unexpected sales: %+v", got)
	}
}

func TestRejectedErrorUnwraps(t *testing.T) {
	err := error(&RejectedError{Action: "savePO", Message: "Sheet penuh"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if err.Error() != "savePO: Sheet penuh" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestPONumberRoundTrip(t *testing.T) {
	day := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)

	number := PONumber("PO", day, 7)
	if number != "PO-20261019-0007" {
		t.Fatalf("unexpected number %q", number)
	}
	seq, ok := POSequence(number, "PO", day)
	if !ok || seq != 7 {
		t.Fatalf("expected sequence 7, got %d (%v)", seq, ok)
	}
	if seq, ok := POSequence("PO-20261019-12345", "PO", day); !ok || seq != 12345 {
		t.Fatalf("expected wide sequence to parse, got %d (%v)", seq, ok)
	}

	for _, other := range []string{
		"PO-20261018-0001",
		"SO-20261019-0001",
		"PO-20261019-",
		"PO-20261019-00x1",
		"PO-20261019-+001",
		"PO-20261019-0000",
	} {
		if _, ok := POSequence(other, "PO", day); ok {
			t.Fatalf("expected %q not to match", other)
		}
	}
}
