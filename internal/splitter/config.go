package splitter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PathMode controls how a chunk's header path and title surface in output.
type PathMode string

const (
	PathModeNone       PathMode = "none"
	PathModeNatural    PathMode = "natural"
	PathModeStructured PathMode = "structured"
	PathModeMarkdown   PathMode = "markdown"
	PathModeMetadata   PathMode = "metadata"
)

// ParsePathMode accepts a mode name in any case.
func ParsePathMode(s string) (PathMode, error) {
	m := PathMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PathModeNone, PathModeNatural, PathModeStructured, PathModeMarkdown, PathModeMetadata:
		return m, nil
	}
	return "", fmt.Errorf("unknown path mode %q", s)
}

// Config controls splitting behavior. It is passed by value; recursive
// subdivision derives new copies and never mutates the caller's.
type Config struct {
	HeaderLevel  int `toml:"header_level" json:"header_level" validate:"min=1,max=6"`
	MaxChunkSize int `toml:"max_chunk_size" json:"max_chunk_size" validate:"gt=0"`
	MinChunkSize int `toml:"min_chunk_size" json:"min_chunk_size" validate:"gte=0,ltefield=MaxChunkSize"`

	IncludeHeaderPath       bool     `toml:"include_header_path" json:"include_header_path"`
	PathMode                PathMode `toml:"path_mode" json:"path_mode" validate:"oneof=none natural structured markdown metadata"`
	IncludeContextualTitle  bool     `toml:"include_contextual_title" json:"include_contextual_title"`
	InheritOriginalMetadata bool     `toml:"inherit_original_metadata" json:"inherit_original_metadata"`
	AutoSubdivide           bool     `toml:"auto_subdivide" json:"auto_subdivide"`
	ParagraphSeparator      string   `toml:"paragraph_separator" json:"paragraph_separator" validate:"required"`

	// Metadata keys written in PathModeMetadata.
	TitleKey string `toml:"title_key" json:"title_key" validate:"required_if=PathMode metadata"`
	PathKey  string `toml:"path_key" json:"path_key" validate:"required_if=PathMode metadata"`
	LevelKey string `toml:"level_key" json:"level_key" validate:"required_if=PathMode metadata"`
}

// DefaultConfig splits on H2, keeps chunks between 100 and 2000 characters
// and prefixes content with a natural-language header path.
func DefaultConfig() Config {
	return Config{
		HeaderLevel:             2,
		MaxChunkSize:            2000,
		MinChunkSize:            100,
		IncludeHeaderPath:       true,
		PathMode:                PathModeNatural,
		IncludeContextualTitle:  true,
		InheritOriginalMetadata: true,
		AutoSubdivide:           true,
		ParagraphSeparator:      "\n\n",
		TitleKey:                "section_title",
		PathKey:                 "section_path",
		LevelKey:                "section_level",
	}
}

// VectorizationConfig prefixes every chunk with its natural-language path.
func VectorizationConfig() Config {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeNatural
	cfg.IncludeHeaderPath = true
	return cfg
}

// PureContentConfig emits chunk content with no path or title.
func PureContentConfig() Config {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeNone
	cfg.IncludeHeaderPath = false
	cfg.IncludeContextualTitle = false
	return cfg
}

// SimpleTitleConfig prefixes content with the chunk's own title only.
func SimpleTitleConfig() Config {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeNatural
	cfg.IncludeHeaderPath = false
	cfg.IncludeContextualTitle = true
	return cfg
}

// MarkdownConfig re-emits the header path as nested heading lines.
func MarkdownConfig() Config {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeMarkdown
	cfg.IncludeHeaderPath = true
	return cfg
}

// MetadataConfig leaves content pristine and records title, path and level
// in chunk metadata.
func MetadataConfig() Config {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeMetadata
	cfg.IncludeHeaderPath = true
	return cfg
}

// WithHeaderLevel returns a copy of c splitting at level.
func (c Config) WithHeaderLevel(level int) Config {
	c.HeaderLevel = level
	return c
}

// WithMaxChunkSize returns a copy of c with the given size bound.
func (c Config) WithMaxChunkSize(n int) Config {
	c.MaxChunkSize = n
	return c
}

// derive builds the configuration used to re-split an over-size chunk one
// heading level deeper. Recursion is disabled on the result.
func (c Config) derive(level int) Config {
	c.HeaderLevel = level + 1
	c.AutoSubdivide = false
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every misconfigured field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate split config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("invalid split config: %s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must not be negative (got %v)", fe.Field(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", fe.Field(), fe.Param(), fe.Value())
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
