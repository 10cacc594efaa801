package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/extract"
	"github.com/kdduha/proposal-relay/internal/models"
)

const (
	NoRFPMarker      = "(no RFP provided)"
	attachedMarker   = "(attached)"
	domainLineFormat = "Technology domain: %s"

	reviseUserFormat = "Revise the proposal draft below according to the guidelines.\n\n" +
		"[Proposal draft]\n%s\n\n---\n\n[Revision guidelines]\n%s"
	imagePromptsUserFormat = "%s\n\n[Proposal]\n%s"

	// ImagePromptsDraftLimit bounds the draft sent for image suggestions.
	ImagePromptsDraftLimit = 6000
)

type fileExtractor interface {
	ExtractAll(ctx context.Context, jobs []extract.Job) []models.ExtractionResult
}

type Assembler struct {
	templates *Templates
	extractor fileExtractor
}

func NewAssembler(templates *Templates, extractor fileExtractor) *Assembler {
	return &Assembler{
		templates: templates,
		extractor: extractor,
	}
}

// BuildProposal turns the generate form into a payload: inline files first,
// in encounter order, then a single text part with every section.
func (a *Assembler) BuildProposal(ctx context.Context, req *models.GenerateRequest) (models.PromptPayload, error) {
	var (
		jobs   []extract.Job
		owners []CategoryPolicy
	)
	for _, p := range policies {
		for _, f := range req.Files[p.Category] {
			jobs = append(jobs, p.job(f))
			owners = append(owners, p)
		}
	}

	results := a.extractor.ExtractAll(ctx, jobs)
	if len(results) != len(jobs) {
		return models.PromptPayload{}, fmt.Errorf("%w: got %d extraction results for %d files",
			errs.ErrAssembly, len(results), len(jobs))
	}
	if err := ctx.Err(); err != nil {
		return models.PromptPayload{}, fmt.Errorf("%w: %w", errs.ErrAssembly, err)
	}

	var (
		parts    []models.Part
		sections = map[models.Category][]string{}
	)
	for i, res := range results {
		p := owners[i]
		name := p.ItemPrefix + jobs[i].File.Name
		switch {
		case res.Failed():
			sections[p.Category] = append(sections[p.Category], extract.Placeholder(name))
		case res.Content.Kind == models.ContentEncodedFile:
			parts = append(parts, models.FilePart(res.Content))
			sections[p.Category] = append(sections[p.Category], fmt.Sprintf("[%s] %s", name, attachedMarker))
		default:
			sections[p.Category] = append(sections[p.Category], fmt.Sprintf("[%s]\n%s", name, res.Content.Text))
		}
	}

	if note := strings.TrimSpace(req.HistoryText); note != "" {
		sections[models.CategoryHistory] = append(sections[models.CategoryHistory], note)
	}

	blocks := []string{fmt.Sprintf(domainLineFormat, strings.TrimSpace(req.TechnologyDomain))}
	for _, p := range policies {
		items := sections[p.Category]
		switch {
		case len(items) > 0:
			blocks = append(blocks, p.Header+"\n"+strings.Join(items, "\n\n"))
		case p.Category == models.CategoryRFP:
			blocks = append(blocks, p.Header+"\n"+NoRFPMarker)
		}
	}
	blocks = append(blocks, a.templates.Closing)

	parts = append(parts, models.TextPart(strings.Join(blocks, "\n\n")))
	return models.PromptPayload{
		System: a.templates.System,
		Parts:  parts,
	}, nil
}

func (a *Assembler) BuildRevision(draft string, typ models.RevisionType) (models.PromptPayload, error) {
	guideline, ok := a.templates.Revision[typ]
	if !ok {
		return models.PromptPayload{}, errs.Invalid("unknown revision type %d", typ)
	}
	return models.PromptPayload{
		Parts: []models.Part{models.TextPart(fmt.Sprintf(reviseUserFormat, draft, guideline))},
	}, nil
}

func (a *Assembler) BuildImagePrompts(draft string) models.PromptPayload {
	return models.PromptPayload{
		System: a.templates.ImageSystem,
		Parts: []models.Part{models.TextPart(fmt.Sprintf(imagePromptsUserFormat,
			a.templates.ImageUser, extract.Truncate(draft, ImagePromptsDraftLimit)))},
	}
}
