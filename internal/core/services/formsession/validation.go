package formsession

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cvvPattern   = regexp.MustCompile(`^\d{3,4}$`)
)

// Validation messages
const (
	MsgVisitDateRequired   = "Visit date is required"
	MsgPracticeNameMissing = "Practice name is required"
	MsgPhoneInvalid        = "Valid phone number is required"
	MsgEmailInvalid        = "Valid email address is required"
	MsgAddressRequired     = "Address is required"
	MsgSamplesRequired     = "Please select at least one sample or disable samples"
	MsgCardNameRequired    = "Cardholder name is required"
	MsgCardNumberInvalid   = "Valid credit card number is required"
	MsgExpiryMonthInvalid  = "Valid expiry month is required"
	MsgExpiryYearInvalid   = "Valid expiry year is required"
	MsgCVVInvalid          = "Valid CVV is required"
)

// maxExpiryYears bounds how far ahead a card expiry year may be
const maxExpiryYears = 20

// stepErrorKeys lists the error keys each step owns. Validating a step
// replaces exactly these keys in the session error map.
var stepErrorKeys = map[Step][]string{
	StepVisitDate: {string(FieldVisitDate)},
	StepPracticeInfo: {
		string(FieldPracticeName),
		string(FieldPhone),
		string(FieldEmail),
		string(FieldAddress),
	},
	StepSamples: {ErrorKeySamples},
	StepCreditCard: {
		string(FieldCardName),
		string(FieldCardNumber),
		string(FieldExpiryMonth),
		string(FieldExpiryYear),
		string(FieldCVV),
	},
}

// Validate checks the rules of one step and returns the failures keyed by
// field. It has no side effects; now anchors the expiry-year window.
func Validate(step Step, f Fields, quantities SampleQuantities, toggles Toggles, now time.Time) Errors {
	errs := Errors{}

	switch step {
	case StepVisitDate:
		if f.VisitDate.IsZero() {
			errs[string(FieldVisitDate)] = MsgVisitDateRequired
		}

	case StepPracticeInfo:
		if strings.TrimSpace(f.PracticeName) == "" {
			errs[string(FieldPracticeName)] = MsgPracticeNameMissing
		}
		if !ValidPhone(f.Phone) {
			errs[string(FieldPhone)] = MsgPhoneInvalid
		}
		if !ValidEmail(f.Email) {
			errs[string(FieldEmail)] = MsgEmailInvalid
		}
		if strings.TrimSpace(f.Address) == "" {
			errs[string(FieldAddress)] = MsgAddressRequired
		}

	case StepSamples:
		if toggles.Samples && !quantities.Any() {
			errs[ErrorKeySamples] = MsgSamplesRequired
		}

	case StepCreditCard:
		if !toggles.CreditCard {
			break
		}
		if strings.TrimSpace(f.CardName) == "" {
			errs[string(FieldCardName)] = MsgCardNameRequired
		}
		if !ValidCardNumber(f.CardNumber) {
			errs[string(FieldCardNumber)] = MsgCardNumberInvalid
		}
		if m, err := strconv.Atoi(strings.TrimSpace(f.ExpiryMonth)); err != nil || m < 1 || m > 12 {
			errs[string(FieldExpiryMonth)] = MsgExpiryMonthInvalid
		}
		y, err := strconv.Atoi(strings.TrimSpace(f.ExpiryYear))
		if err != nil || y < now.Year() || y > now.Year()+maxExpiryYears {
			errs[string(FieldExpiryYear)] = MsgExpiryYearInvalid
		}
		if !cvvPattern.MatchString(strings.TrimSpace(f.CVV)) {
			errs[string(FieldCVV)] = MsgCVVInvalid
		}
	}

	return errs
}

// ValidPhone accepts an optional leading + and up to 16 digits, ignoring
// spaces, hyphens and parentheses
func ValidPhone(phone string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
	return phonePattern.MatchString(cleaned)
}

// ValidEmail is a shape check, not deliverability
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidCardNumber requires 13 to 19 digits passing the Luhn checksum.
// Whitespace is ignored.
func ValidCardNumber(number string) bool {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, number)

	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Any reports whether at least one sample has a positive quantity
func (q SampleQuantities) Any() bool {
	for _, n := range q {
		if n > 0 {
			return true
		}
	}
	return false
}
