package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/mkbrechtel/patterns/internal/collection"
	"github.com/mkbrechtel/patterns/internal/sidebar"
)

const (
	DefaultTitle = "Cute Patterns! 💠"
	DefaultURL   = "https://patterns.mkbrechtel.dev"
	DefaultRepo  = "https://github.com/mkbrechtel/patterns"
)

// Config is the site description read from site.yaml.
type Config struct {
	Title       string            `yaml:"title"`
	Site        string            `yaml:"site"`
	Description string            `yaml:"description"`
	Social      map[string]string `yaml:"social"`
	EditLink    EditLink          `yaml:"editLink"`
	Sidebar     []sidebar.Item    `yaml:"sidebar"`
	Content     Content           `yaml:"content"`
}

// EditLink points every page at its source file.
type EditLink struct {
	BaseURL string `yaml:"baseUrl"`
}

// Content locates the docs collection inside the content root.
type Content struct {
	Base    string `yaml:"base"`
	Pattern string `yaml:"pattern"`
}

// Default returns the configuration used when no site.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Site == "" {
		c.Site = DefaultURL
	}
	if c.Social == nil {
		c.Social = map[string]string{"github": DefaultRepo}
	}
	if len(c.Sidebar) == 0 {
		c.Sidebar = []sidebar.Item{{Label: c.Title, Link: "/"}}
	}
	if c.Content.Base == "" {
		c.Content.Base = collection.DefaultBase
	}
	if c.Content.Pattern == "" {
		c.Content.Pattern = collection.DefaultPattern
	}
}

// Validate implements validation.Validatable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Site, validation.Required, is.URL),
		validation.Field(&c.Social, validation.Each(is.URL)),
		validation.Field(&c.EditLink),
		validation.Field(&c.Sidebar, validation.Each(validation.By(checkItem))),
	)
}

// Validate implements validation.Validatable.
func (e EditLink) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.BaseURL, is.URL),
	)
}

func checkItem(value interface{}) error {
	it, ok := value.(sidebar.Item)
	if !ok {
		return errors.New("must be a sidebar item")
	}
	if strings.TrimSpace(it.Label) == "" {
		return errors.New("label is required")
	}
	hasLink := it.Link != ""
	hasAuto := it.Autogenerate != nil
	if hasLink == hasAuto {
		return fmt.Errorf("%q must set exactly one of link or autogenerate", it.Label)
	}
	if hasAuto {
		dir := strings.TrimSpace(it.Autogenerate.Directory)
		if dir == "" {
			return fmt.Errorf("%q autogenerate needs a directory", it.Label)
		}
		if strings.HasPrefix(dir, "/") {
			return fmt.Errorf("%q autogenerate directory must be relative to the content base", it.Label)
		}
		if c := sidebar.CleanDir(dir); c == ".." || strings.HasPrefix(c, "../") {
			return fmt.Errorf("%q autogenerate directory leaves the content base", it.Label)
		}
	}
	return nil
}

// Loader handles loading and parsing of site.yaml
type Loader struct {
	filePath string
	optional bool
}

// NewLoader creates a loader for filePath. When optional is true a missing
// file yields the defaults instead of an error.
func NewLoader(filePath string, optional bool) *Loader {
	return &Loader{
		filePath: filePath,
		optional: optional,
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads, defaults and validates the site file.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if l.optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse site yaml: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site file %s: %w", l.filePath, err)
	}
	return &cfg, nil
}
