package refinery

import (
	"fmt"
)

// Pipeline runs one refinery over visit text
type Pipeline struct {
	refinery Refinery
}

// Description summarises a pipeline for diagnostics
type Description struct {
	Version string   `json:"version"`
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// NewPipeline builds a pipeline from a version ("v1-line") or alias ("notes")
func NewPipeline(refineryType string, customConfig map[string]interface{}) (*Pipeline, error) {
	r, err := Create(refineryType, customConfig)
	if err != nil {
		return nil, fmt.Errorf("refinery %q: %w", refineryType, err)
	}
	return &Pipeline{refinery: r}, nil
}

// CleanText cleans one value
func (p *Pipeline) CleanText(text string) string {
	if text == "" {
		return ""
	}
	return p.refinery.Process(text)
}

// CleanBatch cleans every value in order
func (p *Pipeline) CleanBatch(texts []string) []string {
	results := make([]string, len(texts))
	for i, text := range texts {
		results[i] = p.CleanText(text)
	}
	return results
}

// Describe reports which refinery the pipeline runs
func (p *Pipeline) Describe() Description {
	return Description{
		Version: p.refinery.Version(),
		Name:    p.refinery.Name(),
		Summary: p.refinery.Summary(),
		Steps:   p.refinery.Steps(),
	}
}
