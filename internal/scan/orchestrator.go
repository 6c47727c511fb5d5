// Package scan orchestrates one receipt scan end to end: vision extraction
// with bounded retries, heuristic text fallback, and a sentinel result when
// nothing usable comes back. Once an attempt has started the caller always
// gets a receipt, never an error, unless the context is cancelled.
package scan

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/fallback"
	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/vision"
)

// Request is one scan. An image goes through the vision service; RawText is
// device-side OCR text used when vision is unavailable or rejects the image.
type Request struct {
	vision.ExtractRequest
	RawText string
}

type Options struct {
	// MaxAttempts bounds vision calls per scan, including the first.
	MaxAttempts int
	// BaseDelay is the first backoff; it doubles per attempt.
	BaseDelay time.Duration
}

func DefaultOptions() Options {
	return Options{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond}
}

type Scanner struct {
	extractor vision.Extractor
	opts      Options
	log       *slog.Logger
}

// New builds a Scanner. extractor may be nil, in which case every scan takes
// the text fallback path.
func New(extractor vision.Extractor, opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Scanner{extractor: extractor, opts: opts, log: logger}
}

// Scan runs the full pipeline and always returns a receipt: vision when it
// produces a valid one, the regex fallback over whatever raw text exists
// otherwise, and the sentinel when both come up empty.
func (s *Scanner) Scan(ctx context.Context, req Request) (*receipt.Receipt, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	s.log.Info("scan.start",
		"req_id", rid,
		"has_image", req.ImageBase64 != "" || req.ImageURL != "",
		"has_text", req.RawText != "",
	)

	rawText := req.RawText

	if s.extractor != nil && (req.ImageBase64 != "" || req.ImageURL != "") {
		payload, err := s.extractWithRetry(ctx, rid, req.ExtractRequest)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if payload != nil {
			if r := receipt.Build(payload); r != nil {
				r.Method = constants.MethodVision
				r.Confidence = constants.VisionConfidence
				s.log.Info("scan.vision_ok",
					"req_id", rid,
					"line_items", len(r.LineItems),
					"warnings", len(r.Warnings),
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return r, nil
			}
			// The payload had nothing the builder would accept, but its raw
			// text may still parse heuristically.
			if payload.RawText != "" {
				rawText = payload.RawText
			}
			s.log.Warn("scan.vision_rejected", "req_id", rid)
		}
	}

	if strings.TrimSpace(rawText) != "" {
		if r := receipt.Build(fallback.Parse(rawText)); r != nil {
			r.Method = constants.MethodFallback
			r.Confidence = constants.FallbackConfidence
			s.log.Info("scan.fallback_ok",
				"req_id", rid,
				"line_items", len(r.LineItems),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return r, nil
		}
	}

	s.log.Warn("scan.sentinel", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return receipt.Sentinel(), nil
}

func (s *Scanner) extractWithRetry(ctx context.Context, rid string, req vision.ExtractRequest) (*vision.Payload, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		payload, _, err := s.extractor.Extract(ctx, req)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		s.log.Warn("scan.attempt_failed",
			"req_id", rid,
			"attempt", attempt,
			"transient", Transient(err),
			"error", err,
		)
		if !Transient(err) || attempt == s.opts.MaxAttempts {
			break
		}
		delay := s.opts.BaseDelay << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// transientSubstrings mark provider errors worth one more attempt even
// without a usable status code.
var transientSubstrings = []string{"rate limit", "quota", "unavailable", "timeout", "network"}

// Transient reports whether a vision error is worth retrying.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	switch vision.StatusCodeOf(err) {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sub := range transientSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// UserMessage maps a scan-path error to a sentence fit for an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	code := vision.StatusCodeOf(err)
	msg := strings.ToLower(err.Error())
	switch {
	case code == http.StatusTooManyRequests ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota"):
		return "The scanner is busy right now. Try again in a moment."
	case code == http.StatusRequestEntityTooLarge ||
		strings.Contains(msg, "too large"):
		return "That image is too large. Crop it closer to the receipt and retry."
	case code >= http.StatusInternalServerError ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "timeout"):
		return "The scanner is temporarily unavailable. Try again shortly."
	case code == http.StatusBadRequest ||
		strings.Contains(msg, "invalid image") ||
		strings.Contains(msg, "unsupported image") ||
		strings.Contains(msg, "decode image"):
		return "Could not read that image. Make sure the receipt is well-lit and in focus."
	default:
		// Anything unclassified surfaces its own message.
		return err.Error()
	}
}
