package extract

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kdduha/proposal-relay/internal/metrics"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FailureMarker replaces the content of a file that could not be read.
const FailureMarker = "(extraction failed)"

type Mode int

const (
	ModeText Mode = iota
	ModeEncode
)

func (m Mode) String() string {
	if m == ModeEncode {
		return "encode"
	}
	return "text"
}

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Job asks for one file in one mode. Limit applies to ModeText only; zero
// means no limit.
type Job struct {
	File  models.UploadedFile
	Mode  Mode
	Limit int
}

type textFunc func(data []byte) (string, error)

type Extractor struct {
	logger  logrus.FieldLogger
	workers int
	cache   Cache
	text    map[string]textFunc
}

func NewExtractor(logger logrus.FieldLogger, workers int) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{
		logger:  logger,
		workers: workers,
		text: map[string]textFunc{
			PDF:  pdfText,
			XLSX: xlsxText,
		},
	}
}

func (e *Extractor) SetCacheClient(cache Cache) {
	e.cache = cache
}

// Placeholder is the text a failed file contributes to the prompt.
func Placeholder(name string) string {
	return fmt.Sprintf("[%s] %s", name, FailureMarker)
}

// ExtractAll runs every job and returns one result per job in job order.
// A failing job never affects the others.
func (e *Extractor) ExtractAll(ctx context.Context, jobs []Job) []models.ExtractionResult {
	results := make([]models.ExtractionResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = e.extractOne(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Extractor) extractOne(ctx context.Context, job Job) (res models.ExtractionResult) {
	start := time.Now()
	format := job.File.Ext()
	status := "ok"

	defer func() {
		if r := recover(); r != nil {
			res = models.ExtractionResult{
				Content: models.ExtractedContent{Kind: models.ContentText, Filename: job.File.Name},
				Err:     fmt.Errorf("extract %s: panic: %v", job.File.Name, r),
			}
		}
		if res.Failed() {
			status = "failed"
			e.logger.WithFields(logrus.Fields{
				"file": job.File.Name,
				"mode": job.Mode.String(),
			}).WithError(res.Err).Warn("file extraction failed, using placeholder")
		}
		metrics.FilePreprocessTotal(status, format)
		metrics.FilePreprocessDuration(status, format, time.Since(start))
	}()

	content, cached, err := e.extract(ctx, job)
	if cached {
		status = "cached"
	}
	return models.ExtractionResult{Content: content, Err: err}
}

// Extract converts a single file. On error the returned content still names
// the file.
func (e *Extractor) Extract(ctx context.Context, job Job) (models.ExtractedContent, error) {
	content, _, err := e.extract(ctx, job)
	return content, err
}

func (e *Extractor) extract(ctx context.Context, job Job) (models.ExtractedContent, bool, error) {
	f := job.File
	if job.Mode == ModeEncode {
		return models.ExtractedContent{
			Kind:       models.ContentEncodedFile,
			Filename:   f.Name,
			MIMEType:   ResolveMIME(f),
			Base64Data: base64.StdEncoding.EncodeToString(f.Content),
		}, false, nil
	}

	text, cached, err := e.plainText(ctx, f)
	if err != nil {
		return models.ExtractedContent{Kind: models.ContentText, Filename: f.Name},
			false, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return models.ExtractedContent{
		Kind:     models.ContentText,
		Filename: f.Name,
		Text:     Truncate(text, job.Limit),
	}, cached, nil
}

func (e *Extractor) plainText(ctx context.Context, f models.UploadedFile) (string, bool, error) {
	fn, structured := e.text[f.Ext()]
	if !structured {
		return decodeUTF8(f.Content), false, nil
	}

	key := cacheKey(f)
	if e.cache != nil {
		cached, found, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.WithError(err).Warn("cache get error")
		}
		if found {
			return cached, true, nil
		}
	}

	text, err := fn(f.Content)
	if err != nil {
		return "", false, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, text); err != nil {
			e.logger.WithError(err).Warn("failed to set cache")
		}
	}
	return text, false, nil
}

func cacheKey(f models.UploadedFile) string {
	hash := sha256.Sum256(f.Content)
	return "extract:" + f.Ext() + ":" + hex.EncodeToString(hash[:])
}

func decodeUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
