package collection

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	TemplateDoc    = "doc"
	TemplateSplash = "splash"
)

// FrontMatter is the docs schema every page must satisfy.
type FrontMatter struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Draft       bool           `yaml:"draft"`
	Template    string         `yaml:"template"`
	EditURL     string         `yaml:"editUrl"`
	Tags        []string       `yaml:"tags"`
	Sidebar     SidebarMeta    `yaml:"sidebar"`
	Extra       map[string]any `yaml:",inline"`
}

// SidebarMeta holds per-page navigation overrides.
type SidebarMeta struct {
	Label  string `yaml:"label"`
	Order  *int   `yaml:"order"`
	Hidden bool   `yaml:"hidden"`
}

// Validate implements validation.Validatable.
func (m SidebarMeta) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Label, validation.Length(0, 100)),
		validation.Field(&m.Order, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (fm FrontMatter) Validate() error {
	return validation.ValidateStruct(&fm,
		validation.Field(&fm.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&fm.Description, validation.Length(0, 500)),
		validation.Field(&fm.Template, validation.In(TemplateDoc, TemplateSplash)),
		validation.Field(&fm.EditURL, is.URL),
		validation.Field(&fm.Sidebar),
	)
}

// ParseFrontMatter splits source into its YAML frontmatter and markdown body
// and checks the frontmatter against the docs schema.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &fm)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if err := fm.Validate(); err != nil {
		return FrontMatter{}, nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if fm.Template == "" {
		fm.Template = TemplateDoc
	}
	if fm.Extra == nil {
		fm.Extra = map[string]any{}
	}
	return fm, body, nil
}
