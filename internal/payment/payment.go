// internal/payment/payment.go
package payment

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Method is how a sale gets settled. The checkout core only branches on
// the method for the receipt message; cash additionally gates settlement
// on the tendered amount.
type Method string

const (
	MethodCash Method = "cash"
	MethodQR   Method = "qrcode"
)

// ParseMethod validates a client-supplied payment method.
func ParseMethod(raw string) (Method, error) {
	switch Method(raw) {
	case MethodCash:
		return MethodCash, nil
	case MethodQR:
		return MethodQR, nil
	default:
		return "", fmt.Errorf("unsupported payment method: %q", raw)
	}
}

// Label returns the receipt label for the method.
func (m Method) Label() string {
	switch m {
	case MethodCash:
		return "Cash"
	case MethodQR:
		return "QR Code"
	default:
		return string(m)
	}
}

// InsufficientTenderError reports cash received below the sale total.
type InsufficientTenderError struct {
	Required decimal.Decimal
	Received decimal.Decimal
}

func (e *InsufficientTenderError) Error() string {
	return fmt.Sprintf("insufficient cash: need %s, received %s",
		e.Required.StringFixed(2), e.Received.StringFixed(2))
}

// ValidateCashTender checks tendered >= total and returns the change due.
// Runs before checkout is invoked, so a short tender never touches stock
// or the cart.
func ValidateCashTender(tendered, total decimal.Decimal) (decimal.Decimal, error) {
	if tendered.LessThan(total) {
		return decimal.Zero, &InsufficientTenderError{Required: total, Received: tendered}
	}
	return tendered.Sub(total), nil
}

// ReceiptMessage renders the settlement confirmation line.
func ReceiptMessage(method Method, total decimal.Decimal) string {
	amount := humanize.CommafWithDigits(total.InexactFloat64(), 2)
	return fmt.Sprintf("%s payment received, total ฿%s. Stock has been updated locally.",
		method.Label(), amount)
}
