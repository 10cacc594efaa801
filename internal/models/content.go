package models

// ContentKind tells how an uploaded file enters the prompt.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentEncodedFile
)

// ExtractedContent is the prompt-ready form of one UploadedFile.
type ExtractedContent struct {
	Kind       ContentKind
	Filename   string
	Text       string
	MIMEType   string
	Base64Data string
}

// ExtractionResult pairs the content with the failure, if any. A failed
// result still carries the filename so a placeholder can name it.
type ExtractionResult struct {
	Content ExtractedContent
	Err     error
}

func (r ExtractionResult) Failed() bool {
	return r.Err != nil
}

// Part is a single segment of a prompt: text, or an inline file.
type Part struct {
	Text string
	File *ExtractedContent
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func FilePart(c ExtractedContent) Part {
	return Part{File: &c}
}

func (p Part) IsFile() bool {
	return p.File != nil
}

// PromptPayload is built once per request and not modified after it is sent.
type PromptPayload struct {
	System string
	Parts  []Part
}

// Text concatenates every text part, ignoring files.
func (p PromptPayload) Text() string {
	var n int
	for _, part := range p.Parts {
		n += len(part.Text)
	}
	buf := make([]byte, 0, n)
	for _, part := range p.Parts {
		if !part.IsFile() {
			buf = append(buf, part.Text...)
		}
	}
	return string(buf)
}

// Files returns the inline file parts in order.
func (p PromptPayload) Files() []ExtractedContent {
	var files []ExtractedContent
	for _, part := range p.Parts {
		if part.IsFile() {
			files = append(files, *part.File)
		}
	}
	return files
}
