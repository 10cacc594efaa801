package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiUpstream struct {
	client *genai.Client
}

func NewGeminiUpstream(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiUpstream, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiUpstream{client: client}, nil
}

func (u *GeminiUpstream) Close() error {
	return u.client.Close()
}

func (u *GeminiUpstream) Open(ctx context.Context, req Request) (Iterator, error) {
	parts, err := geminiParts(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	model := u.client.GenerativeModel(req.Model)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(maxOutputTokens(req.MaxTokens))
	}
	if req.Payload.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.Payload.System))
	}

	return &geminiIterator{
		iter: model.GenerateContentStream(ctx, parts...),
	}, nil
}

func maxOutputTokens(n int64) int32 {
	return int32(min(n, math.MaxInt32))
}

func geminiParts(req Request) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(req.Payload.Parts))
	for _, p := range req.Payload.Parts {
		if !p.IsFile() {
			parts = append(parts, genai.Text(p.Text))
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.File.Base64Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.File.Filename, err)
		}
		parts = append(parts, genai.Blob{MIMEType: p.File.MIMEType, Data: data})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty prompt")
	}
	return parts, nil
}

type geminiIterator struct {
	iter  *genai.GenerateContentResponseIterator
	delta string
	err   error
}

func (it *geminiIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		resp, err := it.iter.Next()
		if errors.Is(err, iterator.Done) {
			return false
		}
		if err != nil {
			it.err = err
			return false
		}
		if text := responseText(resp); text != "" {
			it.delta = text
			return true
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func (it *geminiIterator) Delta() string {
	return it.delta
}

func (it *geminiIterator) Err() error {
	return it.err
}

func (it *geminiIterator) Close() error {
	return nil
}
