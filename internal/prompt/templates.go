package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kdduha/proposal-relay/internal/models"
)

//go:embed templates/*.md
var defaultTemplates embed.FS

const (
	fileSystem      = "system.md"
	fileClosing     = "closing.md"
	fileRevision1   = "revision_1.md"
	fileRevision2   = "revision_2.md"
	fileImageSystem = "image_system.md"
	fileImageUser   = "image_user.md"
)

// Templates holds the fixed instruction texts. Loaded once at start and
// read-only afterwards.
type Templates struct {
	System      string
	Closing     string
	Revision    map[models.RevisionType]string
	ImageSystem string
	ImageUser   string
}

// LoadTemplates reads the embedded defaults and replaces each one that exists
// in dir. An empty dir means defaults only.
func LoadTemplates(dir string) (*Templates, error) {
	embedded, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		return nil, err
	}

	var override fs.FS
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("prompts dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("prompts dir %s is not a directory", dir)
		}
		override = os.DirFS(dir)
	}

	read := func(name string) (string, error) {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return strings.TrimSpace(string(data)), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read %s: %w", name, err)
			}
		}
		data, err := fs.ReadFile(embedded, name)
		if err != nil {
			return "", fmt.Errorf("read embedded %s: %w", name, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	t := &Templates{Revision: map[models.RevisionType]string{}}
	for name, dst := range map[string]*string{
		fileSystem:      &t.System,
		fileClosing:     &t.Closing,
		fileImageSystem: &t.ImageSystem,
		fileImageUser:   &t.ImageUser,
	} {
		if *dst, err = read(name); err != nil {
			return nil, err
		}
	}
	for typ, name := range map[models.RevisionType]string{
		models.RevisionImpact:    fileRevision1,
		models.RevisionAssertive: fileRevision2,
	} {
		text, err := read(name)
		if err != nil {
			return nil, err
		}
		t.Revision[typ] = text
	}
	return t, nil
}
