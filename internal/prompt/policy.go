package prompt

import (
	"github.com/kdduha/proposal-relay/internal/extract"
	"github.com/kdduha/proposal-relay/internal/models"
)

// CategoryPolicy decides how files of one category enter the prompt.
type CategoryPolicy struct {
	Category   models.Category
	Header     string
	ItemPrefix string
	// Encode sends ingestible formats as inline files; everything else is
	// flattened to text.
	Encode bool
	Limit  int
}

var ingestible = map[string]bool{
	extract.PDF:  true,
	extract.PNG:  true,
	extract.JPG:  true,
	extract.JPEG: true,
	extract.GIF:  true,
	extract.WEBP: true,
}

var policies = [...]CategoryPolicy{
	{Category: models.CategoryRFP, Header: "[Client technical documents (RFP)]", Encode: true, Limit: 40000},
	{Category: models.CategorySample, Header: "[Proposal examples]", ItemPrefix: "Example: ", Limit: 15000},
	{Category: models.CategoryTaskList, Header: "[Completed project list]", Limit: 20000},
	{Category: models.CategoryHistory, Header: "[Most relevant track record]", Limit: 10000},
}

// Policies returns a copy of the policy table in prompt order.
func Policies() []CategoryPolicy {
	out := make([]CategoryPolicy, len(policies))
	copy(out, policies[:])
	return out
}

func PolicyFor(c models.Category) (CategoryPolicy, bool) {
	for _, p := range policies {
		if p.Category == c {
			return p, true
		}
	}
	return CategoryPolicy{}, false
}

func (p CategoryPolicy) ModeFor(f models.UploadedFile) extract.Mode {
	if p.Encode && ingestible[f.Ext()] {
		return extract.ModeEncode
	}
	return extract.ModeText
}

func (p CategoryPolicy) job(f models.UploadedFile) extract.Job {
	return extract.Job{File: f, Mode: p.ModeFor(f), Limit: p.Limit}
}
