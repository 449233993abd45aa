package refinery

// Refinery cleans one kind of user-typed text
type Refinery interface {
	Process(text string) string
	Version() string // e.g. "v1-line"
	Name() string
	Summary() string
	Steps() []string
}

// ProcessingStep is one text transformation
type ProcessingStep func(string) string

// RefineryConfig selects which nodes a refinery runs
type RefineryConfig struct {
	// MaxBlankLines caps consecutive empty lines in multi-line text
	MaxBlankLines int `json:"max_blank_lines"`

	NormalizeUnicode     bool `json:"normalize_unicode"`
	NormalizeLineEndings bool `json:"normalize_line_endings"`
	StripControlChars    bool `json:"strip_control_chars"`
	KeepNewlines         bool `json:"keep_newlines"`
	CollapseSpaces       bool `json:"collapse_spaces"`
	TrimLines            bool `json:"trim_lines"`
	CollapseBlankLines   bool `json:"collapse_blank_lines"`
	RemoveAllWhitespace  bool `json:"remove_all_whitespace"`
	MakeLowercase        bool `json:"make_lowercase"`
	TrimSpace            bool `json:"trim_space"`
}
