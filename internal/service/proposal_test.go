package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/kdduha/proposal-relay/internal/config"
	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/extract"
	"github.com/kdduha/proposal-relay/internal/llm"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/kdduha/proposal-relay/internal/prompt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	requests []llm.Request
	err      error
}

func (r *recordingRelay) Stream(_ context.Context, req llm.Request) (<-chan models.StreamChunk, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	ch := make(chan models.StreamChunk, 2)
	ch <- models.StreamChunk{Delta: "ok"}
	ch <- models.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		Model:                   "gpt-4o",
		GenerateMaxTokens:       8192,
		ReviseMaxTokens:         4096,
		ImagePromptsMaxTokens:   2048,
		GenerateMaxDuration:     300 * time.Second,
		ReviseMaxDuration:       200 * time.Second,
		ImagePromptsMaxDuration: 120 * time.Second,
	}
}

func newTestService(t *testing.T, r relay) *ProposalService {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	tpl, err := prompt.LoadTemplates("")
	require.NoError(t, err)
	a := prompt.NewAssembler(tpl, extract.NewExtractor(l, 2))
	return NewProposalService(l, a, r, testConfig())
}

func TestReviseRejectsInvalidTypeWithoutUpstreamCall(t *testing.T) {
	r := &recordingRelay{}
	s := newTestService(t, r)

	for _, typ := range []models.RevisionType{0, -1, 3, 42} {
		ch, err := s.Revise(context.Background(), &models.ReviseRequest{Draft: "draft", RevisionType: typ})
		assert.Nil(t, ch)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	}
	assert.Empty(t, r.requests)
}

func TestReviseUsesRevisionBudget(t *testing.T) {
	r := &recordingRelay{}
	s := newTestService(t, r)

	ch, err := s.Revise(context.Background(), &models.ReviseRequest{Draft: "draft", RevisionType: models.RevisionAssertive})
	require.NoError(t, err)
	for range ch {
	}

	require.Len(t, r.requests, 1)
	req := r.requests[0]
	assert.Equal(t, EndpointRevise, req.Endpoint)
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, int64(4096), req.MaxTokens)
	assert.Equal(t, 200*time.Second, req.MaxDuration)
	assert.Contains(t, req.Payload.Text(), "draft")
}

func TestImagePromptsRequiresDraft(t *testing.T) {
	r := &recordingRelay{}
	s := newTestService(t, r)

	_, err := s.ImagePrompts(context.Background(), &models.ImagePromptsRequest{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, r.requests)

	_, err = s.ImagePrompts(context.Background(), &models.ImagePromptsRequest{Draft: "S1"})
	require.NoError(t, err)
	require.Len(t, r.requests, 1)
	assert.Equal(t, int64(2048), r.requests[0].MaxTokens)
	assert.Equal(t, 120*time.Second, r.requests[0].MaxDuration)
	assert.NotEmpty(t, r.requests[0].Payload.System)
}

func TestGenerateSendsAssembledPayload(t *testing.T) {
	r := &recordingRelay{}
	s := newTestService(t, r)

	_, err := s.Generate(context.Background(), &models.GenerateRequest{
		TechnologyDomain: "Robotics",
		Files: map[models.Category][]models.UploadedFile{
			models.CategoryRFP: {{Name: "rfp.pdf", Content: []byte("%PDF-1.4")}},
		},
	})
	require.NoError(t, err)

	require.Len(t, r.requests, 1)
	req := r.requests[0]
	assert.Equal(t, EndpointGenerate, req.Endpoint)
	assert.Equal(t, int64(8192), req.MaxTokens)
	require.Len(t, req.Payload.Files(), 1)
	assert.Equal(t, "rfp.pdf", req.Payload.Files()[0].Filename)
	assert.Contains(t, req.Payload.Text(), "Technology domain: Robotics")
}

func TestGenerateAssemblyFailureSkipsUpstream(t *testing.T) {
	r := &recordingRelay{}
	s := newTestService(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Generate(ctx, &models.GenerateRequest{})
	assert.ErrorIs(t, err, errs.ErrAssembly)
	assert.Empty(t, r.requests)
}

func TestUpstreamErrorIsWrapped(t *testing.T) {
	r := &recordingRelay{err: errors.Join(errs.ErrUpstream, errors.New("401"))}
	s := newTestService(t, r)

	_, err := s.ImagePrompts(context.Background(), &models.ImagePromptsRequest{Draft: "S1"})
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Contains(t, err.Error(), EndpointImagePrompts)
}
