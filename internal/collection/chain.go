package collection

import (
	"time"

	"github.com/restpilot/restpilot/internal/template"
)

// TrimPolicy controls whitespace trimming of a resolved chain value
// (spec.md §3, §4.3 step 5).
type TrimPolicy int

const (
	TrimNone TrimPolicy = iota
	TrimStart
	TrimEnd
	TrimBoth
)

// Chain is a named indirection through a non-template data source
// (spec.md §3).
type Chain struct {
	ID          string
	Source      ChainSource
	Selector    string // JSONPath selector; empty if unset
	ContentType ContentType
	Sensitive   bool
	Trim        TrimPolicy
}

// ChainSourceKind discriminates the ChainSource variants from spec.md §3.
type ChainSourceKind int

const (
	SourceRequest ChainSourceKind = iota
	SourceCommand
	SourceFile
	SourceEnvironment
	SourcePrompt
	SourceSelect
)

// Trigger controls when a Request chain source sends a fresh request vs.
// reusing history (spec.md §3).
type Trigger int

const (
	TriggerNever Trigger = iota
	TriggerNoHistory
	TriggerExpire
	TriggerAlways
)

// RequestSection selects which part of a triggered/historical response a
// Request chain source extracts (spec.md §3).
type RequestSection int

const (
	SectionBody RequestSection = iota
	SectionHeader
)

// ChainSource is the tagged union of chain data sources from spec.md §3.
type ChainSource struct {
	Kind ChainSourceKind

	// SourceRequest
	RecipeID      string
	Trigger       Trigger
	TriggerExpire time.Duration
	Section       RequestSection
	HeaderName    *template.Template // only when Section == SectionHeader

	// SourceCommand
	Argv  []*template.Template
	Stdin *template.Template // nil if no stdin

	// SourceFile
	Path *template.Template

	// SourceEnvironment
	Variable *template.Template

	// SourcePrompt
	Message *template.Template // nil => default is the chain id
	Default *template.Template // nil if no default

	// SourceSelect
	SelectMessage *template.Template
	SelectOptions SelectOptions
}

// SelectOptions is the Fixed|Dynamic union for a Select chain source.
type SelectOptions struct {
	Dynamic         bool
	Fixed           []*template.Template
	DynamicSource   *template.Template
	DynamicSelector string // JSONPath; empty if unset
}
