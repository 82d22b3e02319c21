package freee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the freee invoicing API host.
const DefaultBaseURL = "https://api.freee.co.jp"

const pageLimit = 100

// Client calls the freee invoicing API on behalf of one company. Every
// request retries exactly once after a token refresh when freee answers 401.
type Client struct {
	baseURL    string
	companyID  int64
	oauth      *oauth2.Config
	tokens     TokenStore
	httpClient *http.Client

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewClient creates a client. baseURL is DefaultBaseURL in production and a
// test server URL in tests.
func NewClient(baseURL string, oauthCfg *oauth2.Config, tokens TokenStore, companyID int64) *Client {
	return &Client{
		baseURL:    baseURL,
		companyID:  companyID,
		oauth:      oauthCfg,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok != nil {
		return c.tok, nil
	}
	tok, err := c.tokens.Load()
	if err != nil {
		return nil, err
	}
	c.tok = tok
	return tok, nil
}

// refreshToken forces a refresh grant regardless of the cached expiry, and
// persists the rotated token pair. freee rotates the refresh token on every
// grant, so losing the save loses the session.
func (c *Client) refreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok == nil || c.tok.RefreshToken == "" {
		return ErrNoToken
	}

	stale := *c.tok
	stale.AccessToken = ""
	stale.Expiry = time.Unix(1, 0)
	fresh, err := c.oauth.TokenSource(ctx, &stale).Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if err := c.tokens.Save(fresh); err != nil {
		return fmt.Errorf("save refreshed token: %w", err)
	}
	c.tok = fresh
	return nil
}

// do performs an authenticated request and returns the response on 2xx. On
// a 401 it refreshes once and retries; any other failure status becomes an
// error carrying the response body head.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	send := func() (*http.Response, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		var r io.Reader
		if payload != nil {
			r = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, r)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		tok, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(req)
	}

	resp, err := send()
	if err != nil {
		return nil, fmt.Errorf("call freee api: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		slog.InfoContext(ctx, "Access token rejected, refreshing", "path", path)
		if err := c.refreshToken(ctx); err != nil {
			return nil, err
		}
		resp, err = send()
		if err != nil {
			return nil, fmt.Errorf("call freee api after refresh: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		head, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("freee api %s %s: status %d: %s", method, path, resp.StatusCode, head)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type quotationsResponse struct {
	Quotations []Quotation `json:"quotations"`
}

type quotationResponse struct {
	Quotation Quotation `json:"quotation"`
}

type invoiceRequest struct {
	CompanyID   int64  `json:"company_id"`
	PartnerID   int64  `json:"partner_id"`
	Title       string `json:"title"`
	InvoiceDate string `json:"invoice_date"`
	Lines       []Line `json:"lines,omitempty"`
}

type invoiceResponse struct {
	Invoice Invoice `json:"invoice"`
}

// ListQuotations fetches every quotation for the company, paging
// sequentially until a short page.
func (c *Client) ListQuotations(ctx context.Context) ([]Quotation, error) {
	var all []Quotation
	for offset := 0; ; offset += pageLimit {
		q := url.Values{}
		q.Set("company_id", strconv.FormatInt(c.companyID, 10))
		q.Set("limit", strconv.Itoa(pageLimit))
		q.Set("offset", strconv.Itoa(offset))

		var page quotationsResponse
		if err := c.getJSON(ctx, "/iv/quotations", q, &page); err != nil {
			return nil, fmt.Errorf("list quotations: %w", err)
		}
		all = append(all, page.Quotations...)
		if len(page.Quotations) < pageLimit {
			return all, nil
		}
	}
}

// GetQuotation fetches one quotation with its billing lines.
func (c *Client) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	q := url.Values{}
	q.Set("company_id", strconv.FormatInt(c.companyID, 10))

	var resp quotationResponse
	if err := c.getJSON(ctx, "/iv/quotations/"+strconv.FormatInt(id, 10), q, &resp); err != nil {
		return Quotation{}, fmt.Errorf("get quotation %d: %w", id, err)
	}
	return resp.Quotation, nil
}

// CreateInvoice creates an invoice from a quotation's partner, title and
// lines, dated invoiceDate.
func (c *Client) CreateInvoice(ctx context.Context, src Quotation, invoiceDate string) (Invoice, error) {
	body := invoiceRequest{
		CompanyID:   c.companyID,
		PartnerID:   src.PartnerID,
		Title:       src.Title,
		InvoiceDate: invoiceDate,
		Lines:       src.Lines,
	}
	resp, err := c.do(ctx, http.MethodPost, "/iv/invoices", nil, body)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice from quotation %d: %w", src.ID, err)
	}
	defer resp.Body.Close()

	var out invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Invoice{}, fmt.Errorf("decode invoice response: %w", err)
	}
	return out.Invoice, nil
}

// DownloadInvoicePDF saves the invoice PDF under dir/<year>/<month>/ derived
// from invoiceDate, and returns the written path.
func (c *Client) DownloadInvoicePDF(ctx context.Context, invoiceID int64, invoiceDate, dir string) (string, error) {
	q := url.Values{}
	q.Set("company_id", strconv.FormatInt(c.companyID, 10))

	resp, err := c.do(ctx, http.MethodGet, "/iv/invoices/"+strconv.FormatInt(invoiceID, 10)+"/pdf", q, nil)
	if err != nil {
		return "", fmt.Errorf("download invoice %d pdf: %w", invoiceID, err)
	}
	defer resp.Body.Close()

	year, month := "0000", "00"
	if len(invoiceDate) >= 7 {
		year, month = invoiceDate[:4], invoiceDate[5:7]
	}
	outDir := filepath.Join(dir, year, month)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf dir: %w", err)
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("invoice_%d.pdf", invoiceID))

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write pdf file: %w", err)
	}
	return outPath, nil
}

// ConvertQuotations turns each selected quotation into an invoice, one item
// at a time. A failed item is recorded in its result and the remaining items
// are still processed. pdfDir empty skips the download step.
func (c *Client) ConvertQuotations(ctx context.Context, ids []int64, mode InvoiceDateMode, pdfDir string) []ConversionResult {
	invoiceDate := InvoiceDateFor(mode, time.Now())
	results := make([]ConversionResult, 0, len(ids))

	for _, id := range ids {
		res := ConversionResult{QuotationID: id}

		src, err := c.GetQuotation(ctx, id)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			continue
		}

		inv, err := c.CreateInvoice(ctx, src, invoiceDate)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			continue
		}
		res.InvoiceID = inv.ID

		if pdfDir != "" {
			path, err := c.DownloadInvoicePDF(ctx, inv.ID, invoiceDate, pdfDir)
			if err != nil {
				// The invoice exists; only the local copy failed.
				res.Err = err.Error()
			} else {
				res.PDFPath = path
			}
		}

		slog.InfoContext(ctx, "Converted quotation",
			"quotation_id", id,
			"invoice_id", inv.ID,
			"invoice_date", invoiceDate)
		results = append(results, res)
	}
	return results
}
