package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapsplit/snapsplit/internal/export"
	"github.com/snapsplit/snapsplit/internal/scan"
	"github.com/snapsplit/snapsplit/internal/store/sqlite"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shares, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { shares.Close() })

	scanner := scan.New(nil, scan.DefaultOptions(), logger)
	srv := New(scanner, shares, export.NewService(logger), logger)
	return srv.Handler()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestScanRawText(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, "/v1/scan", map[string]string{
		"rawText": "CORNER CAFE\nLatte 4.50\nTotal 4.50\n",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Receipt struct {
			Merchant  string `json:"merchant"`
			Method    string `json:"method"`
			Total     float64
			LineItems []struct {
				Name string `json:"name"`
			} `json:"lineItems"`
		} `json:"receipt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Receipt.Method != "regex-fallback" {
		t.Errorf("method = %q, want regex-fallback", resp.Receipt.Method)
	}
	if resp.Receipt.Merchant != "CORNER CAFE" {
		t.Errorf("merchant = %q, want CORNER CAFE", resp.Receipt.Merchant)
	}
	if len(resp.Receipt.LineItems) != 1 || resp.Receipt.LineItems[0].Name != "Latte" {
		t.Errorf("lineItems = %+v, want one Latte", resp.Receipt.LineItems)
	}
}

func TestScanRejectsEmptyRequest(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, "/v1/scan", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestScanRejectsBadMIME(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, "/v1/scan", map[string]string{
		"imageBase64": "aGk=",
		"mimeType":    "application/pdf",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func settleBody() map[string]any {
	return map[string]any{
		"receipt": map[string]any{
			"merchant": "The Burger Joint",
			"date":     "2026-08-22",
			"total":    39.50,
			"lineItems": []map[string]any{
				{"id": "1", "name": "Burger", "price": 18.50, "allocatedTo": []string{"a", "b"}},
				{"id": "2", "name": "Fries", "price": 7.00, "allocatedTo": []string{"a", "b"}},
				{"id": "3", "name": "Salad", "price": 14.00, "allocatedTo": []string{"a", "b"}},
			},
		},
		"people": []map[string]any{
			{"id": "a", "name": "Alice"},
			{"id": "b", "name": "Bob"},
		},
		"payerId": "a",
		"group":   "Dinner Crew",
	}
}

func TestSettle(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, "/v1/settle", settleBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Summary struct {
			OwedByPerson map[string]float64 `json:"owedByPerson"`
		} `json:"summary"`
		Entries []struct {
			TotalOwed float64 `json:"totalOwed"`
		} `json:"entries"`
		ShareText string `json:"shareText"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Summary.OwedByPerson["a"] != 19.75 {
		t.Errorf("owed[a] = %v, want 19.75", resp.Summary.OwedByPerson["a"])
	}
	if len(resp.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(resp.Entries))
	}
	if !strings.Contains(resp.ShareText, "Pay to: Alice") {
		t.Errorf("share text missing payer line:\n%s", resp.ShareText)
	}
}

func TestSettleRejectsUnknownPayer(t *testing.T) {
	h := newTestHandler(t)
	body := settleBody()
	body["payerId"] = "nobody"
	rec := postJSON(t, h, "/v1/settle", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSettleRejectsBadCurrency(t *testing.T) {
	h := newTestHandler(t)
	body := settleBody()
	body["currency"] = "dollars"
	rec := postJSON(t, h, "/v1/settle", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "currency") {
		t.Errorf("error should name the currency field, got %s", rec.Body.String())
	}
}

func TestCreateShareRejectsUnnamedPerson(t *testing.T) {
	h := newTestHandler(t)
	body := settleBody()
	body["people"] = []map[string]any{
		{"id": "a", "name": "Alice"},
		{"id": "b", "name": ""},
	}
	rec := postJSON(t, h, "/v1/shares", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestShareRoundTrip(t *testing.T) {
	h := newTestHandler(t)

	body := settleBody()
	delete(body, "group")
	rec := postJSON(t, h, "/v1/shares", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(created.Code) != 8 {
		t.Fatalf("code = %q, want 8 characters", created.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/shares/"+created.Code, nil)
	get := httptest.NewRecorder()
	h.ServeHTTP(get, req)
	if get.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", get.Code, get.Body.String())
	}
	var share struct {
		Receipt struct {
			Merchant string `json:"merchant"`
		} `json:"receipt"`
		PayerID string `json:"payerId"`
	}
	if err := json.Unmarshal(get.Body.Bytes(), &share); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if share.Receipt.Merchant != "The Burger Joint" {
		t.Errorf("merchant = %q, want The Burger Joint", share.Receipt.Merchant)
	}
	if share.PayerID != "a" {
		t.Errorf("payerId = %q, want a", share.PayerID)
	}
}

func TestGetShareNotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/shares/deadbeef", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetShareRejectsShortCode(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/shares/abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, "/v1/export/xlsx", settleBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want xlsx", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}
