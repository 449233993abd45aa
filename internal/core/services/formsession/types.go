package formsession

import (
	"context"
	"errors"
	"time"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// Step is a 1-based position in the visit form
type Step int

const (
	StepVisitDate Step = iota + 1
	StepPracticeInfo
	StepSamples
	StepTopics
	StepSurvey
	StepCreditCard
	StepReview
)

const (
	FirstStep    = StepVisitDate
	TerminalStep = StepReview
	TotalSteps   = int(StepReview)
)

var stepTitles = map[Step]string{
	StepVisitDate:    "Visit Date",
	StepPracticeInfo: "Practice Information",
	StepSamples:      "Samples Provided",
	StepTopics:       "Topics & Notes",
	StepSurvey:       "Survey",
	StepCreditCard:   "Credit Card Information",
	StepReview:       "Review & Submit",
}

// String returns the step title
func (s Step) String() string {
	if title, ok := stepTitles[s]; ok {
		return title
	}
	return "Unknown"
}

// Valid reports whether s is inside 1..7
func (s Step) Valid() bool {
	return s >= FirstStep && s <= TerminalStep
}

// Field names a text input of the form. Names double as error-map keys.
type Field string

const (
	FieldVisitDate               Field = "visitDate"
	FieldPracticeName            Field = "practiceName"
	FieldDrName                  Field = "drName"
	FieldPhone                   Field = "phone"
	FieldEmail                   Field = "email"
	FieldAddress                 Field = "address"
	FieldFrontDeskName           Field = "frontDeskName"
	FieldBackOfficeAssistantName Field = "backOfficeAssistantName"
	FieldOfficeManagerName       Field = "officeManagerName"
	FieldOtherSample             Field = "otherSample"
	FieldTopicsDiscussed         Field = "topicsDiscussed"
	FieldCardName                Field = "cardName"
	FieldCardNumber              Field = "cardNumber"
	FieldExpiryMonth             Field = "expiryMonth"
	FieldExpiryYear              Field = "expiryYear"
	FieldCVV                     Field = "cvv"
)

// ErrorKeySamples is the error-map key of the samples step
const ErrorKeySamples = "samples"

// Toggle names a switch that enables an optional step section
type Toggle string

const (
	ToggleSamples    Toggle = "sampleToggle"
	ToggleCreditCard Toggle = "creditCardToggle"
)

// SurveyQuestion names a yes/no survey answer
type SurveyQuestion string

const (
	QuestionKnewAboutProducts        SurveyQuestion = "knewAboutProducts"
	QuestionSoldProductsBefore       SurveyQuestion = "soldProductsBefore"
	QuestionInterestedInAlignerFresh SurveyQuestion = "interestedInAlignerFresh"
	QuestionGaveIPRGlideSample       SurveyQuestion = "gaveIPRGlideSample"
	QuestionSpokeToDoctor            SurveyQuestion = "spokeToDoctor"
	QuestionShowedSmartIPRVideo      SurveyQuestion = "showedSmartIPRVideo"
	QuestionQuotedPrices             SurveyQuestion = "quotedPrices"
	QuestionReadyToOrder             SurveyQuestion = "readyToOrder"
)

// SurveyText names a free-text survey answer
type SurveyText string

const (
	SurveyQuotedPricesDetails SurveyText = "quotedPricesDetails"
	SurveyReadyToOrderDetails SurveyText = "readyToOrderDetails"
	SurveyOfficeDescription   SurveyText = "officeDescription"
)

// OriginalStatus is the status a record had when the session loaded it
type OriginalStatus string

const (
	OriginalAbsent OriginalStatus = ""
	OriginalDraft  OriginalStatus = domain.VisitStatusDraft
	OriginalSaved  OriginalStatus = domain.VisitStatusSaved
)

// Category tells the notifier what kind of save happened
type Category string

const (
	CategoryNew    Category = "new"
	CategoryUpdate Category = "update"
	CategorySubmit Category = "submit"
)

// Fields holds every text input of the form plus the survey block
type Fields struct {
	VisitDate               time.Time
	PracticeName            string
	DrName                  string
	Phone                   string
	Email                   string
	Address                 string
	FrontDeskName           string
	BackOfficeAssistantName string
	OfficeManagerName       string
	OtherSample             string
	TopicsDiscussed         string
	CardName                string
	CardNumber              string
	ExpiryMonth             string
	ExpiryYear              string
	CVV                     string
	Survey                  domain.Survey
}

// Toggles are the optional-section switches
type Toggles struct {
	Samples    bool
	CreditCard bool
}

// SampleQuantities maps a sample id to its count; absent means zero
type SampleQuantities map[string]int

// Errors maps a field name to a human-readable message
type Errors map[string]string

// Persister is the persistence service. A payload without an id creates a
// record; with an id it updates that record.
type Persister interface {
	Save(ctx context.Context, payload domain.VisitPayload) (domain.SaveResult, error)
}

// Host receives navigation signals from the session
type Host interface {
	// OnSubmitted fires once, a fixed delay after a successful submission
	OnSubmitted(recordID string)
	// OnCancel fires when the user abandons the form
	OnCancel()
}

// Timer is a pending callback
type Timer interface {
	Stop() bool
}

// Clock schedules the debounce and auto-dismiss callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock
func SystemClock() Clock { return systemClock{} }

// Config holds the timing contract of the session
type Config struct {
	DraftDebounce    time.Duration `json:"draft_debounce"`
	AutoSaveNotice   time.Duration `json:"auto_save_notice"`
	ManualSaveNotice time.Duration `json:"manual_save_notice"`
	SaveErrorNotice  time.Duration `json:"save_error_notice"`
	ReturnDelay      time.Duration `json:"return_delay"`
}

// DefaultConfig returns the timings the UI contract is written against
func DefaultConfig() Config {
	return Config{
		DraftDebounce:    300 * time.Millisecond,
		AutoSaveNotice:   2 * time.Second,
		ManualSaveNotice: 3 * time.Second,
		SaveErrorNotice:  5 * time.Second,
		ReturnDelay:      2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DraftDebounce <= 0 {
		c.DraftDebounce = d.DraftDebounce
	}
	if c.AutoSaveNotice <= 0 {
		c.AutoSaveNotice = d.AutoSaveNotice
	}
	if c.ManualSaveNotice <= 0 {
		c.ManualSaveNotice = d.ManualSaveNotice
	}
	if c.SaveErrorNotice <= 0 {
		c.SaveErrorNotice = d.SaveErrorNotice
	}
	if c.ReturnDelay <= 0 {
		c.ReturnDelay = d.ReturnDelay
	}
	return c
}

// Outcome describes what an Advance call did
type Outcome int

const (
	// OutcomeIgnored: the session is closed or a submission is in flight
	OutcomeIgnored Outcome = iota
	// OutcomeBlocked: the current step failed validation
	OutcomeBlocked
	// OutcomeAdvanced: moved one step forward
	OutcomeAdvanced
	// OutcomeSubmitted: the terminal step was submitted successfully
	OutcomeSubmitted
	// OutcomeFailed: submission reached the persistence service and failed
	OutcomeFailed
	// OutcomeBusy: a draft save was in flight so submission was not attempted
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	default:
		return "ignored"
	}
}

// SubmitResult reports an authoritative save
type SubmitResult struct {
	Success      bool
	RecordID     string
	Category     Category
	IsRealUpdate bool
}

var (
	ErrValidationFailed = errors.New("formsession: step validation failed")
	ErrSaveInProgress   = errors.New("formsession: save already in progress")
	ErrNotTerminalStep  = errors.New("formsession: submission is only possible from the review step")
	ErrSessionClosed    = errors.New("formsession: session is closed")
	ErrAlreadySubmitted = errors.New("formsession: visit already submitted")
	ErrUnknownField     = errors.New("formsession: unknown field")
	ErrMissingPersister = errors.New("formsession: persister is required")
)
