package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Catalog holds the prompt templates used to wrap a cue before it is sent
// to the translation vendor.
type Catalog struct {
	templates map[string]string
}

// NewCatalog loads locales/<name>.yaml from fsys.
func NewCatalog(fsys fs.FS, name string) (*Catalog, error) {
	filePath := path.Join("locales", name+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filePath, err)
	}
	return newCatalogFromBytes(data)
}

// MustDefault returns the embedded prompt catalog.
func MustDefault() *Catalog {
	c, err := NewCatalog(LocalesFS, "prompts")
	if err != nil {
		panic(err)
	}
	return c
}

func newCatalogFromBytes(data []byte) (*Catalog, error) {
	var templates map[string]string
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	return &Catalog{templates: templates}, nil
}

// T renders the template under key. Unknown keys render as the key itself.
func (c *Catalog) T(key string, args ...interface{}) string {
	format, ok := c.templates[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// TranslationPrompt wraps text in the fixed instruction. The cue text is
// always the last paragraph.
func (c *Catalog) TranslationPrompt(text, targetLanguage, note string) string {
	var sb strings.Builder
	sb.WriteString(c.T("instruction", LanguageName(targetLanguage)))
	if strings.TrimSpace(note) != "" {
		sb.WriteString("\n")
		sb.WriteString(c.T("note", note))
	}
	sb.WriteString("\n\n")
	sb.WriteString(text)
	return sb.String()
}

// NormalizeLanguage canonicalizes a BCP 47 tag ("zh-cn" -> "zh-CN"). Input
// that does not parse is returned trimmed but otherwise unchanged.
func NormalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	return tag.String()
}

// LanguageName renders a tag for a prompt, e.g. "Japanese (ja)". Free-form
// names such as "Simplified Chinese" pass through verbatim.
func LanguageName(s string) string {
	s = strings.TrimSpace(s)
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return s
	}
	return fmt.Sprintf("%s (%s)", name, tag.String())
}
