package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperai-backend/internal/logger"
	"paperai-backend/internal/telemetry"
	"paperai-backend/utils"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls plain text out of paper PDFs and caches the
// result on disk next to the PDF, gzip-compressed, so re-ingestion
// never re-parses the file.
type PDFExtractor struct {
	cacheDir string
	metrics  *telemetry.Metrics
}

func NewPDFExtractor(cacheDir string, metrics *telemetry.Metrics) *PDFExtractor {
	return &PDFExtractor{cacheDir: cacheDir, metrics: metrics}
}

// ExtractionResult describes one extraction run.
type ExtractionResult struct {
	Text           string
	Pages          int
	QualityScore   float64
	WordCount      int
	ProcessingTime time.Duration
	FromCache      bool
}

// ExtractText returns the text of the PDF at filePath. A cached
// extraction is used when present; otherwise the PDF is parsed page by
// page and the result cached. Low-quality extractions are returned with
// their score so the caller can decide whether to ingest anyway.
func (e *PDFExtractor) ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error) {
	start := time.Now()

	if cached, ok := e.readCache(filePath); ok {
		result := &ExtractionResult{
			Text:           cached,
			QualityScore:   evaluateTextQuality(cached),
			WordCount:      len(strings.Fields(cached)),
			ProcessingTime: time.Since(start),
			FromCache:      true,
		}
		logger.Debug("PDF extraction cache hit", "path", filePath)
		return result, nil
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	// 200MB cap: the parser loads the whole file.
	if stat.Size() > 200<<20 {
		return nil, fmt.Errorf("pdf too large for in-memory extraction: %d bytes", stat.Size())
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		e.recordExtraction(start, "parse_error")
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract page text", "path", filePath, "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	extracted := strings.TrimSpace(sb.String())
	if extracted == "" {
		e.recordExtraction(start, "empty")
		return nil, fmt.Errorf("pdf %s: %w", filePath, ErrExtractionFailed)
	}

	result := &ExtractionResult{
		Text:           extracted,
		Pages:          pages,
		QualityScore:   evaluateTextQuality(extracted),
		WordCount:      len(strings.Fields(extracted)),
		ProcessingTime: time.Since(start),
	}

	e.writeCache(filePath, extracted)
	e.recordExtraction(start, "ok")
	logger.Info("Extracted PDF text", "path", filePath, "pages", pages, "chars", len(extracted), "quality", result.QualityScore)
	return result, nil
}

func (e *PDFExtractor) recordExtraction(start time.Time, status string) {
	if e.metrics != nil {
		e.metrics.RecordExtraction(time.Since(start).Seconds(), status)
	}
}

func (e *PDFExtractor) cachePath(filePath string) string {
	if e.cacheDir == "" {
		return ""
	}
	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return filepath.Join(e.cacheDir, name+".txt.gz")
}

func (e *PDFExtractor) readCache(filePath string) (string, bool) {
	path := e.cachePath(filePath)
	if path == "" {
		return "", false
	}
	compressed, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	text, err := utils.DecompressText(compressed, utils.CompressionGzip)
	if err != nil {
		logger.Warn("Corrupt extraction cache entry, re-extracting", "path", path, "error", err)
		return "", false
	}
	return text, true
}

func (e *PDFExtractor) writeCache(filePath, text string) {
	path := e.cachePath(filePath)
	if path == "" {
		return
	}
	compressed, err := utils.CompressData([]byte(text), utils.CompressionGzip)
	if err != nil {
		logger.Warn("Failed to compress extraction cache entry", "path", path, "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		logger.Warn("Failed to write extraction cache entry", "path", path, "error", err)
	}
}

// evaluateTextQuality scores extracted text between 0 and 1. Scanned or
// corrupt PDFs yield mostly replacement runes and symbol soup; real
// prose is dominated by alphanumerics and regular punctuation.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	total := 0
	for _, r := range text {
		total++
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		case r > 127:
			printable++
		}
	}

	score := float64(printable) / float64(total) * 0.4
	if ratio := float64(alphanumeric) / float64(total); ratio >= 0.3 {
		score += 0.3
	} else {
		score += ratio
	}
	score -= float64(corrupted) / float64(total) * 2.0
	if len(text) > 100 {
		score += 0.1
	}
	if strings.ContainsAny(text, ".!?") {
		score += 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
