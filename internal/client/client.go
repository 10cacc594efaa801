// Package client consumes the streamed endpoints of the relay.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kdduha/proposal-relay/internal/models"
)

// ErrIncompleteStream means the server aborted the response before the
// model finished.
var ErrIncompleteStream = errors.New("stream ended before completion")

// StatusError is a non-200 answer. Message is taken from the JSON error body
// when there is one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Code, e.Message)
}

// ChunkFunc receives each body read in arrival order. Returning an error
// stops reading.
type ChunkFunc func(chunk string) error

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Generate uploads the form and returns the full streamed text. On a broken
// stream the partial text is returned with ErrIncompleteStream.
func (c *Client) Generate(ctx context.Context, req *models.GenerateRequest, onChunk ChunkFunc) (string, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return "", fmt.Errorf("encode form: %w", err)
	}
	return c.stream(ctx, "/api/generate", contentType, body, onChunk)
}

func (c *Client) Revise(ctx context.Context, req *models.ReviseRequest, onChunk ChunkFunc) (string, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal req: %w", err)
	}
	return c.stream(ctx, "/api/revise", "application/json", bytes.NewReader(body), onChunk)
}

func (c *Client) ImagePrompts(ctx context.Context, req *models.ImagePromptsRequest, onChunk ChunkFunc) (string, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal req: %w", err)
	}
	return c.stream(ctx, "/api/image-prompts", "application/json", bytes.NewReader(body), onChunk)
}

func (c *Client) stream(ctx context.Context, path, contentType string, body io.Reader, onChunk ChunkFunc) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var (
		full strings.Builder
		buf  = make([]byte, 4096)
	)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if onChunk != nil {
				if cbErr := onChunk(chunk); cbErr != nil {
					return full.String(), cbErr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return full.String(), nil
			}
			return full.String(), fmt.Errorf("%w: %w", ErrIncompleteStream, err)
		}
	}
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	var payload models.ErrorResponse
	if err := sonic.Unmarshal(b, &payload); err == nil && payload.Error != "" {
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

func encodeForm(req *models.GenerateRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("technologyDomain", req.TechnologyDomain); err != nil {
		return nil, "", err
	}
	if req.HistoryText != "" {
		if err := mw.WriteField("historyText", req.HistoryText); err != nil {
			return nil, "", err
		}
	}
	for _, c := range models.Categories {
		for _, f := range req.Files[c] {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, c.FormField(), f.Name))
			ct := f.DeclaredMIME
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)

			part, err := mw.CreatePart(h)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
