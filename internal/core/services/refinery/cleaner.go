package refinery

import (
	"fmt"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// VisitCleaner runs every user-typed field of a visit payload through the
// refinery that matches its shape
type VisitCleaner struct {
	line      *Pipeline
	multiline *Pipeline
	email     *Pipeline
}

// NewVisitCleaner builds the line, notes and email pipelines
func NewVisitCleaner() (*VisitCleaner, error) {
	line, err := NewPipeline(VersionLine, nil)
	if err != nil {
		return nil, fmt.Errorf("line pipeline: %w", err)
	}
	multiline, err := NewPipeline(VersionMultiline, nil)
	if err != nil {
		return nil, fmt.Errorf("multiline pipeline: %w", err)
	}
	email, err := NewPipeline(VersionEmail, nil)
	if err != nil {
		return nil, fmt.Errorf("email pipeline: %w", err)
	}

	return &VisitCleaner{line: line, multiline: multiline, email: email}, nil
}

// Clean returns a copy of p with its text fields normalised. Card data and
// the visit date are left untouched apart from trimming.
func (c *VisitCleaner) Clean(p domain.VisitPayload) domain.VisitPayload {
	p.PracticeName = c.line.CleanText(p.PracticeName)
	p.DrName = c.line.CleanText(p.DrName)
	p.Phone = c.line.CleanText(p.Phone)
	p.Email = c.email.CleanText(p.Email)
	p.Address = c.multiline.CleanText(p.Address)
	p.FrontDeskName = c.line.CleanText(p.FrontDeskName)
	p.BackOfficeAssistantName = c.line.CleanText(p.BackOfficeAssistantName)
	p.OfficeManagerName = c.line.CleanText(p.OfficeManagerName)
	p.OtherSample = c.line.CleanText(p.OtherSample)
	p.TopicsDiscussed = c.multiline.CleanText(p.TopicsDiscussed)
	p.VisitDate = c.line.CleanText(p.VisitDate)

	p.Survey.QuotedPricesDetails = c.multiline.CleanText(p.Survey.QuotedPricesDetails)
	p.Survey.ReadyToOrderDetails = c.multiline.CleanText(p.Survey.ReadyToOrderDetails)
	p.Survey.OfficeDescription = c.multiline.CleanText(p.Survey.OfficeDescription)

	if len(p.SamplesProvided) > 0 {
		names := make([]string, len(p.SamplesProvided))
		for i, s := range p.SamplesProvided {
			names[i] = s.Name
		}
		samples := make([]domain.SampleEntry, len(names))
		for i, name := range c.line.CleanBatch(names) {
			samples[i] = domain.SampleEntry{Name: name, Quantity: p.SamplesProvided[i].Quantity}
		}
		p.SamplesProvided = samples
	}

	if p.CreditCard != nil {
		card := *p.CreditCard
		card.Name = c.line.CleanText(card.Name)
		p.CreditCard = &card
	}

	return p
}

// Pipelines describes the refineries the cleaner runs
func (c *VisitCleaner) Pipelines() []Description {
	return []Description{c.line.Describe(), c.multiline.Describe(), c.email.Describe()}
}
