package domain

// Source describes who issued a search call.
type Source string

// Scope sources.
const (
	SourceAPI    Source = "api"
	SourceCLI    Source = "cli"
	SourceSystem Source = "system"
)

// DefaultLanguageID is used when a caller does not pick a language.
const DefaultLanguageID = "default"

// Scope is the execution context of a single search call.
// It is a value: the service never mutates it.
type Scope struct {
	LanguageID string
	Source     Source
	// BypassIndex forces the authoritative fallback searcher.
	BypassIndex bool
}

// NewScope returns a scope for the given language, defaulting empty values.
func NewScope(languageID string) Scope {
	if languageID == "" {
		languageID = DefaultLanguageID
	}
	return Scope{LanguageID: languageID, Source: SourceAPI}
}

// WithBypass returns a copy of the scope that skips the search index.
func (s Scope) WithBypass() Scope {
	s.BypassIndex = true
	return s
}
