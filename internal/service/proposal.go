package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdduha/proposal-relay/internal/config"
	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/llm"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	EndpointGenerate     = "generate"
	EndpointRevise       = "revise"
	EndpointImagePrompts = "image-prompts"
)

type assembler interface {
	BuildProposal(ctx context.Context, req *models.GenerateRequest) (models.PromptPayload, error)
	BuildRevision(draft string, typ models.RevisionType) (models.PromptPayload, error)
	BuildImagePrompts(draft string) models.PromptPayload
}

type relay interface {
	Stream(ctx context.Context, req llm.Request) (<-chan models.StreamChunk, error)
}

type ProposalService struct {
	logger    logrus.FieldLogger
	assembler assembler
	relay     relay
	cfg       config.LLMConfig
}

func NewProposalService(logger logrus.FieldLogger, assembler assembler, relay relay, cfg config.LLMConfig) *ProposalService {
	return &ProposalService{
		logger:    logger,
		assembler: assembler,
		relay:     relay,
		cfg:       cfg,
	}
}

func (s *ProposalService) Generate(ctx context.Context, req *models.GenerateRequest) (<-chan models.StreamChunk, error) {
	logger := s.requestLogger(ctx, EndpointGenerate)

	var files int
	for _, fs := range req.Files {
		files += len(fs)
	}
	logger.WithFields(logrus.Fields{
		"domain": req.TechnologyDomain,
		"files":  files,
	}).Info("assembling")

	start := time.Now()
	payload, err := s.assembler.BuildProposal(ctx, req)
	if err != nil {
		logger.WithError(err).Error("assembly failed")
		return nil, fmt.Errorf("build proposal prompt: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"parts":    len(payload.Parts),
		"duration": time.Since(start).String(),
	}).Debug("assembled")

	return s.stream(ctx, EndpointGenerate, payload, s.cfg.GenerateMaxTokens, s.cfg.GenerateMaxDuration)
}

func (s *ProposalService) Revise(ctx context.Context, req *models.ReviseRequest) (<-chan models.StreamChunk, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Invalid("%s", err)
	}
	s.requestLogger(ctx, EndpointRevise).WithField("revision_type", int(req.RevisionType)).Info("assembling")

	payload, err := s.assembler.BuildRevision(req.Draft, req.RevisionType)
	if err != nil {
		return nil, fmt.Errorf("build revision prompt: %w", err)
	}
	return s.stream(ctx, EndpointRevise, payload, s.cfg.ReviseMaxTokens, s.cfg.ReviseMaxDuration)
}

func (s *ProposalService) ImagePrompts(ctx context.Context, req *models.ImagePromptsRequest) (<-chan models.StreamChunk, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Invalid("%s", err)
	}
	s.requestLogger(ctx, EndpointImagePrompts).Info("assembling")

	payload := s.assembler.BuildImagePrompts(req.Draft)
	return s.stream(ctx, EndpointImagePrompts, payload, s.cfg.ImagePromptsMaxTokens, s.cfg.ImagePromptsMaxDuration)
}

func (s *ProposalService) stream(
	ctx context.Context,
	endpoint string,
	payload models.PromptPayload,
	maxTokens int64,
	maxDuration time.Duration,
) (<-chan models.StreamChunk, error) {
	ch, err := s.relay.Stream(ctx, llm.Request{
		Endpoint:    endpoint,
		RequestID:   middleware.GetReqID(ctx),
		Payload:     payload,
		Model:       s.cfg.Model,
		MaxTokens:   maxTokens,
		MaxDuration: maxDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	return ch, nil
}

func (s *ProposalService) requestLogger(ctx context.Context, endpoint string) logrus.FieldLogger {
	return s.logger.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"request_id": middleware.GetReqID(ctx),
	})
}
