package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/shared"
)

type OpenAIUpstream struct {
	client openai.Client
}

// NewOpenAIUpstream builds a client with SDK retries disabled: a failed call
// is reported to the caller, never repeated.
func NewOpenAIUpstream(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIUpstream {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	return &OpenAIUpstream{
		client: openai.NewClient(append(base, opts...)...),
	}
}

func (u *OpenAIUpstream) Open(ctx context.Context, req Request) (Iterator, error) {
	params, err := buildOpenAIParams(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return &openaiIterator{
		stream: u.client.Chat.Completions.NewStreaming(ctx, params),
	}, nil
}

func buildOpenAIParams(req Request) (openai.ChatCompletionNewParams, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Payload.System != "" {
		messages = append(messages, openai.SystemMessage(req.Payload.System))
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Payload.Parts))
	for _, p := range req.Payload.Parts {
		if !p.IsFile() {
			parts = append(parts, openai.TextContentPart(p.Text))
			continue
		}
		if p.File.Base64Data == "" {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("file %s has no data", p.File.Filename)
		}
		if strings.HasPrefix(p.File.MIMEType, "image/") {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL(p.File),
			}))
			continue
		}
		parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileData: openai.String(dataURL(p.File)),
			Filename: openai.String(p.File.Filename),
		}))
	}
	if len(parts) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("empty prompt")
	}
	messages = append(messages, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}
	return params, nil
}

func dataURL(f *models.ExtractedContent) string {
	return fmt.Sprintf("data:%s;base64,%s", f.MIMEType, f.Base64Data)
}

type openaiIterator struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	delta  string
}

func (it *openaiIterator) Next() bool {
	for it.stream.Next() {
		chunk := it.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			it.delta = delta
			return true
		}
	}
	return false
}

func (it *openaiIterator) Delta() string {
	return it.delta
}

func (it *openaiIterator) Err() error {
	return it.stream.Err()
}

func (it *openaiIterator) Close() error {
	return it.stream.Close()
}
