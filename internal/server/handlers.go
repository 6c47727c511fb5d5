package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/scan"
	"github.com/snapsplit/snapsplit/internal/split"
	"github.com/snapsplit/snapsplit/internal/store"
	"github.com/snapsplit/snapsplit/internal/vision"
)

type scanRequest struct {
	ImageBase64 string `json:"imageBase64"`
	ImageURL    string `json:"imageUrl"`
	MIMEType    string `json:"mimeType"`
	RawText     string `json:"rawText"`
	Hint        string `json:"hint"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.InvalidInputError("invalid JSON body"))
		return
	}

	hasImage := req.ImageBase64 != "" || req.ImageURL != ""
	if !hasImage && req.RawText == "" {
		writeError(w, common.InvalidInputError("provide imageBase64, imageUrl, or rawText"))
		return
	}
	if hasImage {
		mt := constants.NormalizeMIME(req.MIMEType)
		if _, ok := constants.AllowedImageMIMETypes[mt]; !ok {
			writeError(w, common.InvalidInputErrorf("unsupported mime type %q", req.MIMEType))
			return
		}
		req.MIMEType = mt
	}

	// Thread the server-assigned request id so scan and vision log the same
	// one instead of minting their own.
	ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	rec, err := s.scanner.Scan(ctx, scan.Request{
		ExtractRequest: vision.ExtractRequest{
			ImageBase64: req.ImageBase64,
			ImageURL:    req.ImageURL,
			MIMEType:    req.MIMEType,
			Hint:        req.Hint,
		},
		RawText: req.RawText,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	scansTotal.WithLabelValues(string(rec.Method)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"receipt": rec})
}

type settleRequest struct {
	Receipt  receipt.Receipt `json:"receipt"`
	People   []split.Person  `json:"people"`
	PayerID  string          `json:"payerId"`
	Group    string          `json:"group"`
	Currency string          `json:"currency"`
}

func (req *settleRequest) validate() (split.Person, error) {
	v := common.NewValidator().Field("payerId", req.PayerID, common.Required)
	if req.Currency != "" {
		v.Field("currency", req.Currency, common.CurrencyCode)
	}
	if err := v.Err(); err != nil {
		return split.Person{}, err
	}
	if len(req.People) == 0 {
		return split.Person{}, common.InvalidInputError("people must not be empty")
	}
	for _, p := range req.People {
		if p.ID == req.PayerID {
			return p, nil
		}
	}
	return split.Person{}, common.InvalidInputError("payerId must match one of people")
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.InvalidInputError("invalid JSON body"))
		return
	}
	payer, err := req.validate()
	if err != nil {
		writeError(w, err)
		return
	}

	summary := split.Summarize(req.Receipt.LineItems, req.People)
	entries := split.Settle(req.Receipt.LineItems, req.People, req.Receipt.Surcharge, req.PayerID)
	shareText := split.FormatShareText(payer, entries, split.ShareOptions{
		Group:    req.Group,
		Merchant: req.Receipt.Merchant,
		Date:     req.Receipt.Date,
		Time:     req.Receipt.Time,
		Total:    req.Receipt.Total,
		Currency: req.Currency,
	})

	settlesTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":   summary,
		"entries":   entries,
		"shareText": shareText,
	})
}

type shareRequest struct {
	Receipt receipt.Receipt `json:"receipt"`
	People  []split.Person  `json:"people"`
	PayerID string          `json:"payerId"`
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	if s.shares == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "share store not configured"})
		return
	}
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.InvalidInputError("invalid JSON body"))
		return
	}
	if len(req.People) == 0 {
		writeError(w, common.InvalidInputError("people must not be empty"))
		return
	}
	v := common.NewValidator()
	for i, p := range req.People {
		v.Field(fmt.Sprintf("people[%d].id", i), p.ID, common.Required)
		v.Field(fmt.Sprintf("people[%d].name", i), p.Name, common.Required, common.MaxLength(100))
	}
	if err := v.Err(); err != nil {
		writeError(w, err)
		return
	}

	sh := &store.Share{Receipt: req.Receipt, People: req.People, PayerID: req.PayerID}
	if err := s.shares.SaveShare(r.Context(), sh); err != nil {
		s.log.Error("share.save_failed", "error", err)
		writeError(w, err)
		return
	}

	sharesTotal.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":      sh.Code,
		"createdAt": sh.CreatedAt,
	})
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	if s.shares == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "share store not configured"})
		return
	}
	code := chi.URLParam(r, "code")
	if err := common.NewValidator().
		Field("code", code, common.Required, common.MinLength(8), common.MaxLength(8)).
		Err(); err != nil {
		writeError(w, err)
		return
	}

	sh, err := s.shares.GetShare(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	sharesTotal.WithLabelValues("get").Inc()
	writeJSON(w, http.StatusOK, sh)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.InvalidInputError("invalid JSON body"))
		return
	}
	if _, err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	entries := split.Settle(req.Receipt.LineItems, req.People, req.Receipt.Surcharge, req.PayerID)
	data, err := s.exporter.SettlementXLSX(&req.Receipt, entries)
	if err != nil {
		s.log.Error("export.failed", "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
