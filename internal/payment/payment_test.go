package payment

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMethod(t *testing.T) {
	cases := []struct {
		raw     string
		want    Method
		wantErr bool
	}{
		{"cash", MethodCash, false},
		{"qrcode", MethodQR, false},
		{"card", "", true},
		{"", "", true},
		{"CASH", "", true},
	}

	for _, tc := range cases {
		got, err := ParseMethod(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMethod(%q) should fail", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseMethod(%q) = %v, %v; expected %v", tc.raw, got, err, tc.want)
		}
	}
}

func TestValidateCashTender(t *testing.T) {
	total := decimal.NewFromFloat(450)

	t.Run("ExactTender", func(t *testing.T) {
		change, err := ValidateCashTender(decimal.NewFromFloat(450), total)
		if err != nil {
			t.Fatalf("Exact tender should pass: %v", err)
		}
		if got := change.StringFixed(2); got != "0.00" {
			t.Errorf("Change mismatch: expected 0.00, got %s", got)
		}
	})

	t.Run("Overpayment", func(t *testing.T) {
		change, err := ValidateCashTender(decimal.NewFromFloat(500), total)
		if err != nil {
			t.Fatalf("Overpayment should pass: %v", err)
		}
		if got := change.StringFixed(2); got != "50.00" {
			t.Errorf("Change mismatch: expected 50.00, got %s", got)
		}
	})

	t.Run("ShortTender", func(t *testing.T) {
		_, err := ValidateCashTender(decimal.NewFromFloat(449.99), total)
		var short *InsufficientTenderError
		if !errors.As(err, &short) {
			t.Fatalf("Expected InsufficientTenderError, got %v", err)
		}
		if got := short.Required.StringFixed(2); got != "450.00" {
			t.Errorf("Required mismatch: expected 450.00, got %s", got)
		}
		if got := short.Received.StringFixed(2); got != "449.99" {
			t.Errorf("Received mismatch: expected 449.99, got %s", got)
		}
	})

	t.Run("CentPrecision", func(t *testing.T) {
		change, err := ValidateCashTender(decimal.NewFromFloat(100), decimal.NewFromFloat(99.97))
		if err != nil {
			t.Fatalf("Tender should pass: %v", err)
		}
		if got := change.StringFixed(2); got != "0.03" {
			t.Errorf("Change mismatch: expected 0.03, got %s", got)
		}
	})
}

func TestReceiptMessage(t *testing.T) {
	msg := ReceiptMessage(MethodCash, decimal.NewFromFloat(1450))
	if !strings.Contains(msg, "Cash payment received") {
		t.Errorf("Message should name the method label, got %q", msg)
	}
	if !strings.Contains(msg, "฿1,450") {
		t.Errorf("Message should carry the grouped baht amount, got %q", msg)
	}

	qr := ReceiptMessage(MethodQR, decimal.NewFromFloat(90))
	if !strings.Contains(qr, "QR Code payment received") {
		t.Errorf("Message should use the QR label, got %q", qr)
	}
}
