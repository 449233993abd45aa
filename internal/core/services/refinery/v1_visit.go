package refinery

// Versions of the visit refineries
const (
	VersionLine      = "v1-line"
	VersionMultiline = "v1-multiline"
	VersionEmail     = "v1-email"
)

// RefineryV1Visit cleans user-typed visit fields. One type serves the three
// field shapes; the config decides which nodes run.
type RefineryV1Visit struct {
	version     string
	name        string
	description string
	steps       []string
	config      *RefineryConfig
	nodes       *ProcessingNodes
	pipeline    []ProcessingStep
}

// NewLineRefinery cleans single-line fields such as names and phone numbers
func NewLineRefinery(customConfig map[string]interface{}) *RefineryV1Visit {
	config := &RefineryConfig{
		NormalizeUnicode:  true,
		StripControlChars: true,
		CollapseSpaces:    true,
		TrimSpace:         true,
	}
	return newVisitRefinery(VersionLine, "Single-line Field Cleaning",
		"NFC normalisation, control character removal and whitespace collapsing for one-line inputs",
		config, customConfig)
}

// NewMultilineRefinery cleans notes, addresses and other free text while
// keeping the author's line breaks
func NewMultilineRefinery(customConfig map[string]interface{}) *RefineryV1Visit {
	config := &RefineryConfig{
		MaxBlankLines:        1,
		NormalizeUnicode:     true,
		NormalizeLineEndings: true,
		StripControlChars:    true,
		KeepNewlines:         true,
		CollapseSpaces:       true,
		TrimLines:            true,
		CollapseBlankLines:   true,
		TrimSpace:            true,
	}
	return newVisitRefinery(VersionMultiline, "Multi-line Notes Cleaning",
		"NFC normalisation, line ending normalisation and blank line collapsing for free text",
		config, customConfig)
}

// NewEmailRefinery normalises email addresses
func NewEmailRefinery(customConfig map[string]interface{}) *RefineryV1Visit {
	config := &RefineryConfig{
		NormalizeUnicode:    true,
		StripControlChars:   true,
		RemoveAllWhitespace: true,
		MakeLowercase:       true,
	}
	return newVisitRefinery(VersionEmail, "Email Address Cleaning",
		"NFC normalisation, whitespace removal and lowercasing for email addresses",
		config, customConfig)
}

func newVisitRefinery(version, name, description string, config *RefineryConfig, custom map[string]interface{}) *RefineryV1Visit {
	if custom != nil {
		applyCustomConfig(config, custom)
	}

	nodes := NewProcessingNodes(config)

	return &RefineryV1Visit{
		version:     version,
		name:        name,
		description: description,
		config:      config,
		nodes:       nodes,
		steps: []string{
			"normalize_unicode",
			"normalize_line_endings",
			"strip_control_chars",
			"collapse_spaces",
			"trim_lines",
			"collapse_blank_lines",
			"remove_all_whitespace",
			"make_lowercase",
			"trim_space",
		},
		pipeline: []ProcessingStep{
			nodes.NormalizeUnicode,
			nodes.NormalizeLineEndings,
			nodes.StripControlChars,
			nodes.CollapseSpaces,
			nodes.TrimLines,
			nodes.CollapseBlankLines,
			nodes.RemoveAllWhitespace,
			nodes.MakeLowercase,
			nodes.TrimSpace,
		},
	}
}

// Process runs text through every node
func (r *RefineryV1Visit) Process(text string) string {
	for _, step := range r.pipeline {
		text = step(text)
	}
	return text
}

func (r *RefineryV1Visit) Version() string {
	return r.version
}

func (r *RefineryV1Visit) Name() string {
	return r.name
}

func (r *RefineryV1Visit) Summary() string {
	return r.description
}

// Steps names the nodes in the order they run
func (r *RefineryV1Visit) Steps() []string {
	return r.steps
}

// applyCustomConfig overlays caller overrides on a preset
func applyCustomConfig(config *RefineryConfig, custom map[string]interface{}) {
	if v, ok := custom["max_blank_lines"].(int); ok {
		config.MaxBlankLines = v
	}

	flags := map[string]*bool{
		"normalize_unicode":      &config.NormalizeUnicode,
		"normalize_line_endings": &config.NormalizeLineEndings,
		"strip_control_chars":    &config.StripControlChars,
		"keep_newlines":          &config.KeepNewlines,
		"collapse_spaces":        &config.CollapseSpaces,
		"trim_lines":             &config.TrimLines,
		"collapse_blank_lines":   &config.CollapseBlankLines,
		"remove_all_whitespace":  &config.RemoveAllWhitespace,
		"make_lowercase":         &config.MakeLowercase,
		"trim_space":             &config.TrimSpace,
	}
	for key, target := range flags {
		if v, ok := custom[key].(bool); ok {
			*target = v
		}
	}
}
