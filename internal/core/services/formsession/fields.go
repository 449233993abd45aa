package formsession

import (
	"fmt"
	"strings"
	"time"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

func (f *Fields) ref(name Field) *string {
	switch name {
	case FieldPracticeName:
		return &f.PracticeName
	case FieldDrName:
		return &f.DrName
	case FieldPhone:
		return &f.Phone
	case FieldEmail:
		return &f.Email
	case FieldAddress:
		return &f.Address
	case FieldFrontDeskName:
		return &f.FrontDeskName
	case FieldBackOfficeAssistantName:
		return &f.BackOfficeAssistantName
	case FieldOfficeManagerName:
		return &f.OfficeManagerName
	case FieldOtherSample:
		return &f.OtherSample
	case FieldTopicsDiscussed:
		return &f.TopicsDiscussed
	case FieldCardName:
		return &f.CardName
	case FieldCardNumber:
		return &f.CardNumber
	case FieldExpiryMonth:
		return &f.ExpiryMonth
	case FieldExpiryYear:
		return &f.ExpiryYear
	case FieldCVV:
		return &f.CVV
	}
	return nil
}

// Get returns a field value; the visit date is rendered as YYYY-MM-DD
func (f Fields) Get(name Field) string {
	if name == FieldVisitDate {
		return formatDate(f.VisitDate)
	}
	if p := f.ref(name); p != nil {
		return *p
	}
	return ""
}

// SetField updates a text input. The visit date is accepted as YYYY-MM-DD.
func (s *Session) SetField(name Field, value string) error {
	if name == FieldVisitDate {
		if strings.TrimSpace(value) == "" {
			return s.SetVisitDate(time.Time{})
		}
		date, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(value), time.Local)
		if err != nil {
			return fmt.Errorf("parse visit date: %w", err)
		}
		return s.SetVisitDate(date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	p := s.fields.ref(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if *p == value {
		return nil
	}
	*p = value
	s.touchLocked(string(name))
	return nil
}

// SetVisitDate changes the visit date. Date changes never count as unsaved
// business data.
func (s *Session) SetVisitDate(date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.fields.VisitDate = atNoon(date)
	delete(s.errors, string(FieldVisitDate))
	return nil
}

// SetSampleQuantity sets the count of a sample, flooring at zero. Dropping
// "other" to zero clears its companion text.
func (s *Session) SetSampleQuantity(sampleID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.setQuantityLocked(sampleID, quantity)
	return nil
}

// AdjustSample adds delta to a sample count and returns the new count
func (s *Session) AdjustSample(sampleID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.setQuantityLocked(sampleID, s.quantities[sampleID]+delta), nil
}

func (s *Session) setQuantityLocked(sampleID string, quantity int) int {
	if quantity < 0 {
		quantity = 0
	}
	if s.quantities[sampleID] == quantity {
		return quantity
	}
	if quantity == 0 {
		delete(s.quantities, sampleID)
		if sampleID == domain.SampleOtherID {
			s.fields.OtherSample = ""
		}
	} else {
		s.quantities[sampleID] = quantity
	}
	s.touchLocked(ErrorKeySamples)
	return quantity
}

// SetToggle switches an optional section on or off
func (s *Session) SetToggle(toggle Toggle, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	switch toggle {
	case ToggleSamples:
		if s.toggles.Samples == on {
			return nil
		}
		s.toggles.Samples = on
		s.touchLocked(ErrorKeySamples)
	case ToggleCreditCard:
		if s.toggles.CreditCard == on {
			return nil
		}
		s.toggles.CreditCard = on
		if !on {
			for _, key := range stepErrorKeys[StepCreditCard] {
				delete(s.errors, key)
			}
		}
		s.markDirtyLocked()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, toggle)
	}
	return nil
}

// SetSurveyAnswer records a yes/no answer. Answering no to quoted prices or
// ready to order clears the matching details.
func (s *Session) SetSurveyAnswer(question SurveyQuestion, answer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	sv := &s.fields.Survey
	ref := surveyAnswerRef(sv, question)
	if ref == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, question)
	}
	if *ref != nil && **ref == answer {
		return nil
	}
	v := answer
	*ref = &v

	if !answer {
		switch question {
		case QuestionQuotedPrices:
			sv.QuotedPricesDetails = ""
		case QuestionReadyToOrder:
			sv.ReadyToOrderDetails = ""
		}
	}
	s.touchLocked(string(question))
	return nil
}

func surveyAnswerRef(sv *domain.Survey, question SurveyQuestion) **bool {
	switch question {
	case QuestionKnewAboutProducts:
		return &sv.KnewAboutProducts
	case QuestionSoldProductsBefore:
		return &sv.SoldProductsBefore
	case QuestionInterestedInAlignerFresh:
		return &sv.InterestedInAlignerFresh
	case QuestionGaveIPRGlideSample:
		return &sv.GaveIPRGlideSample
	case QuestionSpokeToDoctor:
		return &sv.SpokeToDoctor
	case QuestionShowedSmartIPRVideo:
		return &sv.ShowedSmartIPRVideo
	case QuestionQuotedPrices:
		return &sv.QuotedPrices
	case QuestionReadyToOrder:
		return &sv.ReadyToOrder
	}
	return nil
}

// SetSurveyText records a free-text survey answer
func (s *Session) SetSurveyText(field SurveyText, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	sv := &s.fields.Survey
	var p *string
	switch field {
	case SurveyQuotedPricesDetails:
		p = &sv.QuotedPricesDetails
	case SurveyReadyToOrderDetails:
		p = &sv.ReadyToOrderDetails
	case SurveyOfficeDescription:
		p = &sv.OfficeDescription
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if *p == value {
		return nil
	}
	*p = value
	s.touchLocked(string(field))
	return nil
}

// touchLocked clears the error of the edited key and marks the session dirty
func (s *Session) touchLocked(errorKey string) {
	delete(s.errors, errorKey)
	s.markDirtyLocked()
}

// markDirtyLocked never fires on the visit date step
func (s *Session) markDirtyLocked() {
	if s.step == StepVisitDate {
		return
	}
	s.dirty = true
	s.revision++
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
