package refinery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// TestLineRefinery tests single-line cleaning
func TestLineRefinery(t *testing.T) {
	refinery := NewLineRefinery(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Surrounding whitespace",
			input:    "  Acme Dental  ",
			expected: "Acme Dental",
		},
		{
			name:     "Inner runs and newlines collapse",
			input:    "Acme \t Dental\nGroup",
			expected: "Acme Dental Group",
		},
		{
			name:     "Decomposed accents are composed",
			input:    "Clément Dental",
			expected: "Clément Dental",
		},
		{
			name:     "Zero width and control characters are dropped",
			input:    "Acme​ Dental\x07",
			expected: "Acme Dental",
		},
		{
			name:     "Non-breaking spaces collapse",
			input:    "Dr.  Rivera",
			expected: "Dr. Rivera",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, refinery.Process(tt.input))
		})
	}
}

// TestMultilineRefinery tests notes cleaning
func TestMultilineRefinery(t *testing.T) {
	refinery := NewMultilineRefinery(nil)

	input := "  Discussed pricing.  \r\n\r\n\r\n\r\nFollow up   next week\r\n  "
	assert.Equal(t, "Discussed pricing.\n\nFollow up next week", refinery.Process(input))

	assert.Equal(t, "1 Main St\nSuite 4", refinery.Process("1 Main St\rSuite 4"))
}

// TestEmailRefinery tests email normalisation
func TestEmailRefinery(t *testing.T) {
	refinery := NewEmailRefinery(nil)
	assert.Equal(t, "front.desk@acme.example", refinery.Process(" Front.Desk @Acme.Example\n"))
}

// TestCustomConfig tests config overrides
func TestCustomConfig(t *testing.T) {
	refinery := NewMultilineRefinery(map[string]interface{}{
		"max_blank_lines": 0,
		"make_lowercase":  true,
	})
	assert.Equal(t, "line one\nline two", refinery.Process("Line One\n\n\nLine Two"))
}

// TestRefineryRegistry tests the registry functionality
func TestRefineryRegistry(t *testing.T) {
	assert.Equal(t, []string{VersionEmail, VersionLine, VersionMultiline}, Versions())

	pipeline, err := NewPipeline("notes", nil)
	require.NoError(t, err)
	desc := pipeline.Describe()
	assert.Equal(t, VersionMultiline, desc.Version)
	assert.Equal(t, "Multi-line Notes Cleaning", desc.Name)
	assert.NotEmpty(t, desc.Summary)
	assert.Len(t, desc.Steps, 9)

	_, err = NewPipeline("v2-line", nil)
	assert.EqualError(t, err, `refinery "v2-line": unknown refinery "v2-line"`)

	assert.Panics(t, func() {
		Register("notes", func(map[string]interface{}) Refinery { return NewLineRefinery(nil) })
	})
}

// TestPipeline_CleanBatch tests batch processing
func TestPipeline_CleanBatch(t *testing.T) {
	pipeline, err := NewPipeline("standard", nil)
	require.NoError(t, err)

	got := pipeline.CleanBatch([]string{" a ", "b  c", ""})
	assert.Equal(t, []string{"a", "b c", ""}, got)
}

// TestVisitCleaner tests payload-wide cleaning
func TestVisitCleaner(t *testing.T) {
	cleaner, err := NewVisitCleaner()
	require.NoError(t, err)

	card := &domain.CreditCard{Number: "4242 4242 4242 4242", Name: "  Jordan   Doe "}
	in := domain.VisitPayload{
		ID:              "abc",
		VisitDate:       " 2026-03-10 ",
		PracticeName:    "  Acme   Dental ",
		Email:           "A@B.COM ",
		TopicsDiscussed: "Pricing\r\n\r\n\r\nAligners ",
		SamplesProvided: []domain.SampleEntry{{Name: " IPR Glide ", Quantity: 2}},
		Survey:          domain.Survey{OfficeDescription: " Busy  office "},
		CreditCard:      card,
		Status:          domain.VisitStatusDraft,
	}

	out := cleaner.Clean(in)
	assert.Equal(t, "abc", out.ID)
	assert.Equal(t, "2026-03-10", out.VisitDate)
	assert.Equal(t, "Acme Dental", out.PracticeName)
	assert.Equal(t, "a@b.com", out.Email)
	assert.Equal(t, "Pricing\n\nAligners", out.TopicsDiscussed)
	assert.Equal(t, "IPR Glide", out.SamplesProvided[0].Name)
	assert.Equal(t, "Busy office", out.Survey.OfficeDescription)
	assert.Equal(t, "Jordan Doe", out.CreditCard.Name)
	assert.Equal(t, "4242 4242 4242 4242", out.CreditCard.Number, "card numbers are not rewritten")

	assert.Equal(t, "  Jordan   Doe ", card.Name, "input is not mutated")
	assert.Equal(t, " IPR Glide ", in.SamplesProvided[0].Name)

	var versions []string
	for _, d := range cleaner.Pipelines() {
		versions = append(versions, d.Version)
	}
	assert.Equal(t, []string{VersionLine, VersionMultiline, VersionEmail}, versions)
}

// BenchmarkVisitCleaner benchmarks payload cleaning
func BenchmarkVisitCleaner(b *testing.B) {
	cleaner, _ := NewVisitCleaner()
	in := domain.VisitPayload{
		PracticeName:    "  Acme   Dental ",
		TopicsDiscussed: "Pricing\r\n\r\n\r\nAligners ",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cleaner.Clean(in)
	}
}
