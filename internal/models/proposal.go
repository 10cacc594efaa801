package models

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Category is one of the four document groupings of the generate form.
type Category string

const (
	CategoryRFP      Category = "rfp"
	CategorySample   Category = "sample"
	CategoryTaskList Category = "task_list"
	CategoryHistory  Category = "history"
)

// Categories lists every category in prompt order.
var Categories = []Category{CategoryRFP, CategorySample, CategoryTaskList, CategoryHistory}

// FormField returns the multipart field that carries files of the category.
func (c Category) FormField() string {
	switch c {
	case CategoryRFP:
		return "rfpFiles"
	case CategorySample:
		return "sampleFiles"
	case CategoryTaskList:
		return "taskListFiles"
	case CategoryHistory:
		return "historyFiles"
	}
	return ""
}

// UploadedFile lives for one request only.
type UploadedFile struct {
	Name         string
	Content      []byte
	DeclaredMIME string
}

// Ext returns the lower-cased extension without the leading dot.
func (f UploadedFile) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// GenerateRequest is the decoded multipart form of the generate endpoint.
type GenerateRequest struct {
	TechnologyDomain string
	HistoryText      string
	Files            map[Category][]UploadedFile
}

// ReviseRequest represents request for revise endpoint
type ReviseRequest struct {
	Draft        string       `json:"draft" example:"S1. Background ..."`
	RevisionType RevisionType `json:"revisionType" swaggertype:"integer" enums:"1,2" example:"1"`
}

func (r ReviseRequest) Validate() error {
	if strings.TrimSpace(r.Draft) == "" {
		return fmt.Errorf("draft is empty")
	}
	if r.RevisionType == 0 {
		return fmt.Errorf("revisionType is empty")
	}
	if !r.RevisionType.Valid() {
		return fmt.Errorf("invalid revisionType %d", r.RevisionType)
	}
	return nil
}

// ImagePromptsRequest represents request for image-prompts endpoint
type ImagePromptsRequest struct {
	Draft string `json:"draft" example:"S1. Background ..."`
}

func (r ImagePromptsRequest) Validate() error {
	if strings.TrimSpace(r.Draft) == "" {
		return fmt.Errorf("draft is empty")
	}
	return nil
}

// RevisionType selects one of the fixed revision guidelines.
type RevisionType int

const (
	RevisionImpact     RevisionType = 1
	RevisionAssertive  RevisionType = 2
	revisionTypeAbsent RevisionType = 0
)

func (t RevisionType) Valid() bool {
	return t == RevisionImpact || t == RevisionAssertive
}

// UnmarshalJSON accepts a JSON number or a numeric string ("2", "1.0").
// Anything else becomes -1 so Validate reports it instead of the decoder.
func (t *RevisionType) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*t = revisionTypeAbsent
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := sonic.UnmarshalString(raw, &s); err != nil {
			*t = -1
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*t = revisionTypeAbsent
			return nil
		}
	}

	*t = parseRevisionType(raw)
	return nil
}

func parseRevisionType(s string) RevisionType {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return -1
	}
	return RevisionType(f)
}

type ErrorResponse struct {
	Error string `json:"error" example:"draft is empty"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// StreamChunk is one relayed increment. Exactly one chunk of a stream carries
// Err or Done, and it is the last one.
type StreamChunk struct {
	Delta string `json:"delta,omitempty"`
	Err   error  `json:"-"`
	Done  bool   `json:"done,omitempty"`
}
