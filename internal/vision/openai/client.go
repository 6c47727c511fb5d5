package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/vision"
)

// Extract implements vision.Extractor using a vision-capable chat/completions
// call: the receipt image goes up as a data URL (or plain URL) content part
// and the model is constrained to the payload JSON schema.
func (c *Client) Extract(ctx context.Context, req vision.ExtractRequest) (*vision.Payload, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	c.log.Info("vision.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"mime", req.MIMEType,
		"image_b64_len", len(req.ImageBase64),
		"has_url", req.ImageURL != "",
	)

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = "data:" + req.MIMEType + ";base64," + req.ImageBase64
	}

	schema := vision.BuildPayloadSchema()
	userParts := []map[string]any{
		{"type": "text", "text": buildUserPrompt(req.Hint)},
		{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userParts},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("vision.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("vision.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("vision.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	cleaned, dropped, err := vision.NormalizeAndSanitizeJSON(content, c.log)
	if err != nil {
		c.log.Error("vision.extract.sanitize_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, fmt.Errorf("sanitize model output: %w", err)
	}
	if err := vision.ValidateAgainstSchema(schema, cleaned); err != nil {
		c.log.Error("vision.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var out vision.Payload
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.log.Error("vision.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, cleaned, fmt.Errorf("unmarshal payload: %w", err)
	}

	c.log.Info("vision.extract.ok",
		"req_id", rid,
		"merchant", out.Merchant,
		"date", out.Date,
		"line_items", len(out.LineItems),
		"sanitize_dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, cleaned, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &vision.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

const systemPrompt = "You are a receipt parser. Return ONLY JSON that matches the JSON Schema provided. " +
	"Use ISO-8601 dates (YYYY-MM-DD) and 24-hour HH:MM times. " +
	"Every purchasable row on the receipt becomes one lineItems entry with its printed price; " +
	"if a row shows an explicit multiplier (e.g. '2x'), set quantity and keep price as the row total. " +
	"Put weekend/holiday/service surcharges in 'surcharge', never as a line item. " +
	"Copy the legible raw text into 'rawOcrText'. " +
	"Never output null. If a field is not present, omit it. Never invent items or amounts."

func buildUserPrompt(hint string) string {
	var b strings.Builder
	b.WriteString("Extract this receipt.")
	if strings.TrimSpace(hint) != "" {
		b.WriteString("\nContext: ")
		b.WriteString(hint)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
