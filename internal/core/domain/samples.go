package domain

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SampleOtherID is the catalog entry that carries a free-text companion field
const SampleOtherID = "other"

// SampleOption is one entry of the sample catalog
type SampleOption struct {
	ID   string
	Name string
}

var sampleCatalog = []SampleOption{
	{ID: "alignerfresh-mint", Name: "AlignerFresh Mint"},
	{ID: "alignerfresh-flavors", Name: "AlignerFresh Flavors"},
	{ID: "allclean-minerals", Name: "AllClean Minerals"},
	{ID: "ipr-glide", Name: "IPR Glide"},
	{ID: SampleOtherID, Name: "Other"},
}

// SampleCatalog returns the samples in display order
func SampleCatalog() []SampleOption {
	out := make([]SampleOption, len(sampleCatalog))
	copy(out, sampleCatalog)
	return out
}

// SampleName maps a sample id to its display name, falling back to the id
func SampleName(id string) string {
	for _, s := range sampleCatalog {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// SampleID maps a display name to its id; unknown names are slugged
func SampleID(name string) string {
	for _, s := range sampleCatalog {
		if s.Name == name {
			return s.ID
		}
	}
	return Slug(name)
}

// IsCatalogSample reports whether name is a known sample display name
func IsCatalogSample(name string) bool {
	for _, s := range sampleCatalog {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Slug lowercases, strips accents and joins words with hyphens
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), "-")
}

// FormatSamples renders samples as "Name: qty" pairs, or "None"
func FormatSamples(samples []SampleEntry) string {
	parts := make([]string, 0, len(samples))
	for _, s := range samples {
		if s.Quantity > 0 {
			parts = append(parts, s.Name+": "+strconv.Itoa(s.Quantity))
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}
