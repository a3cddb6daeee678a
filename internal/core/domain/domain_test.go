package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPage_TotalPages(t *testing.T) {
	cases := []struct {
		name    string
		perPage int
		total   int64
		want    int
	}{
		{"seven records three per page", 3, 7, 3},
		{"exact multiple", 5, 10, 2},
		{"no records floors at one", 10, 0, 1},
		{"fewer than a page", 10, 4, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Page{Page: 1, PerPage: tc.perPage}.TotalPages(tc.total)
			if got != tc.want {
				t.Fatalf("expected %d pages, got %d", tc.want, got)
			}
		})
	}
}

func TestPage_Skip(t *testing.T) {
	if got := (Page{Page: 1, PerPage: 3}).Skip(); got != 0 {
		t.Fatalf("page 1 should skip 0, got %d", got)
	}
	if got := (Page{Page: 3, PerPage: 3}).Skip(); got != 6 {
		t.Fatalf("page 3 should skip 6, got %d", got)
	}
}

func TestPage_Validate(t *testing.T) {
	if err := (Page{Page: 1, PerPage: 10}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Page{Page: 0, PerPage: 0}.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["page"]; !ok {
		t.Error("expected page field error")
	}
	if _, ok := ve.Fields["perPage"]; !ok {
		t.Error("expected perPage field error")
	}

	if err := (Page{Page: 1, PerPage: MaxPerPage + 1}).Validate(); err == nil {
		t.Fatal("expected error for perPage above max")
	}
}

func TestRoleAndCategory_Valid(t *testing.T) {
	if !RoleManager.Valid() || !RoleEmployee.Valid() {
		t.Fatal("known roles must be valid")
	}
	if Role("admin").Valid() {
		t.Fatal("unknown role must be invalid")
	}
	if !CategoryTransport.Valid() {
		t.Fatal("transport must be valid")
	}
	if Category("gadgets").Valid() {
		t.Fatal("unknown category must be invalid")
	}
}

func TestConflictErrors_WrapParent(t *testing.T) {
	if !errors.Is(ErrEmailTaken, ErrConflict) {
		t.Error("ErrEmailTaken should wrap ErrConflict")
	}
	if !errors.Is(ErrUserHasRefunds, ErrConflict) {
		t.Error("ErrUserHasRefunds should wrap ErrConflict")
	}
	if !errors.Is(ErrIdempotencyInFlight, ErrConflict) {
		t.Error("ErrIdempotencyInFlight should wrap ErrConflict")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.com "); got != "a@x.com" {
		t.Fatalf("got %q", got)
	}
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0.01", true},
		{"50", true},
		{"50.100", true},
		{"9999999999.99", true},
		{"0", false},
		{"-5", false},
		{"50.005", false},
		{"0.001", false},
		{"1e-200000000", false},
		{"10000000000", false},
		{"1e12", false},
		{"1e200000000", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			msg, ok := ValidateAmount(decimal.RequireFromString(tc.in))
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%q)", tc.ok, ok, msg)
			}
			if !ok && msg == "" {
				t.Fatal("rejection must carry a message")
			}
		})
	}
}
