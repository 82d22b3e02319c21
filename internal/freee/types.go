package freee

import (
	"time"
)

// Quotation is a freee invoicing API quotation, reduced to the fields the
// conversion flow reads.
type Quotation struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PartnerID   int64  `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	IssueDate   string `json:"issue_date"`
	TotalAmount int64  `json:"total_amount"`
	Lines       []Line `json:"lines,omitempty"`
}

// Line is one billing line shared by quotations and invoices.
type Line struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   int64   `json:"unit_price"`
	Amount      int64   `json:"amount"`
}

// Invoice is the created invoice as returned by freee.
type Invoice struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PartnerID   int64  `json:"partner_id"`
	InvoiceDate string `json:"invoice_date"`
	TotalAmount int64  `json:"total_amount"`
}

// ConversionResult reports the outcome for one quotation. A failed item
// carries Err and leaves later items unaffected.
type ConversionResult struct {
	QuotationID int64  `json:"quotationId"`
	InvoiceID   int64  `json:"invoiceId,omitempty"`
	PDFPath     string `json:"pdfPath,omitempty"`
	Err         string `json:"error,omitempty"`
}

// InvoiceDateMode selects the issue date written on created invoices.
type InvoiceDateMode string

const (
	// DateToday stamps invoices with the current date.
	DateToday InvoiceDateMode = "today"
	// DateLastMonthEnd stamps invoices with the last day of the previous
	// month, the usual choice when billing right after month close.
	DateLastMonthEnd InvoiceDateMode = "last_month_end"
)

// InvoiceDateFor resolves a date mode against now. Unknown modes fall back
// to today.
func InvoiceDateFor(mode InvoiceDateMode, now time.Time) string {
	if mode == DateLastMonthEnd {
		// Day zero of the current month is the previous month's last day.
		d := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location())
		return d.Format("2006-01-02")
	}
	return now.Format("2006-01-02")
}
