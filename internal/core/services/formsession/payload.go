package formsession

import (
	"sort"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// payloadLocked flattens the session into the persistence shape. The id is
// present whenever one is known, which selects update over create.
func (s *Session) payloadLocked(status string) domain.VisitPayload {
	f := s.fields
	p := domain.VisitPayload{
		ID:                      s.recordID,
		VisitDate:               formatDate(f.VisitDate),
		PracticeName:            f.PracticeName,
		DrName:                  f.DrName,
		Phone:                   f.Phone,
		Email:                   f.Email,
		Address:                 f.Address,
		FrontDeskName:           f.FrontDeskName,
		BackOfficeAssistantName: f.BackOfficeAssistantName,
		OfficeManagerName:       f.OfficeManagerName,
		SamplesProvided:         s.samplesLocked(),
		OtherSample:             f.OtherSample,
		TopicsDiscussed:         f.TopicsDiscussed,
		Survey:                  f.Survey,
		Status:                  status,
	}

	if s.toggles.CreditCard {
		p.CreditCard = &domain.CreditCard{
			Number:      f.CardNumber,
			ExpiryMonth: f.ExpiryMonth,
			ExpiryYear:  f.ExpiryYear,
			CVV:         f.CVV,
			Name:        f.CardName,
		}
	}

	return p
}

// samplesLocked lists positive quantities in catalog order, followed by
// samples loaded from a stored visit that are not in the catalog
func (s *Session) samplesLocked() []domain.SampleEntry {
	entries := []domain.SampleEntry{}
	if !s.toggles.Samples {
		return entries
	}

	for _, opt := range domain.SampleCatalog() {
		if q := s.quantities[opt.ID]; q > 0 {
			entries = append(entries, domain.SampleEntry{Name: opt.Name, Quantity: q})
		}
	}

	extras := make([]string, 0, len(s.extraSamples))
	for id := range s.extraSamples {
		extras = append(extras, id)
	}
	sort.Strings(extras)
	for _, id := range extras {
		if q := s.quantities[id]; q > 0 {
			entries = append(entries, domain.SampleEntry{Name: s.extraSamples[id], Quantity: q})
		}
	}

	return entries
}
