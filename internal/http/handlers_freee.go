package http

import (
	"log/slog"
	"net/http"

	"uriage/internal/freee"
)

// handleFreeeQuotations lists quotations from the connected freee company.
func (s *Server) handleFreeeQuotations(w http.ResponseWriter, r *http.Request) {
	if s.freee == nil {
		writeError(w, http.StatusServiceUnavailable, "freee is not configured")
		return
	}

	quotations, err := s.freee.ListQuotations(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List quotations failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quotations)
}

type convertRequest struct {
	QuotationIDs []int64               `json:"quotationIds"`
	DateMode     freee.InvoiceDateMode `json:"dateMode"`
}

type convertResponse struct {
	Converted int                      `json:"converted"`
	Results   []freee.ConversionResult `json:"results"`
}

// handleFreeeConvert turns the selected quotations into invoices, one at a
// time, and reports per-item outcomes.
func (s *Server) handleFreeeConvert(w http.ResponseWriter, r *http.Request) {
	if s.freee == nil {
		writeError(w, http.StatusServiceUnavailable, "freee is not configured")
		return
	}

	var req convertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.QuotationIDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no quotations selected")
		return
	}
	if req.DateMode == "" {
		req.DateMode = freee.DateToday
	}

	results := s.freee.ConvertQuotations(r.Context(), req.QuotationIDs, req.DateMode, s.pdfDir)

	converted := 0
	for _, res := range results {
		if res.Err == "" {
			converted++
		}
	}

	slog.InfoContext(r.Context(), "Quotation conversion finished",
		"selected", len(req.QuotationIDs), "converted", converted)
	writeJSON(w, http.StatusOK, convertResponse{Converted: converted, Results: results})
}
