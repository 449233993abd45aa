package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/formsession"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// waitTimeout bounds the wait for the host signal after a submission
const waitTimeout = 10 * time.Second

const (
	actionBack   = "Back"
	actionDraft  = "Save draft"
	actionJump   = "Go to step..."
	actionCancel = "Cancel"
)

var surveyQuestions = []struct {
	question formsession.SurveyQuestion
	label    string
	answer   func(domain.Survey) *bool
}{
	{formsession.QuestionKnewAboutProducts, "Did they know about our products?", func(s domain.Survey) *bool { return s.KnewAboutProducts }},
	{formsession.QuestionSoldProductsBefore, "Have they sold our products before?", func(s domain.Survey) *bool { return s.SoldProductsBefore }},
	{formsession.QuestionInterestedInAlignerFresh, "Interested in AlignerFresh?", func(s domain.Survey) *bool { return s.InterestedInAlignerFresh }},
	{formsession.QuestionGaveIPRGlideSample, "Gave an IPR Glide sample?", func(s domain.Survey) *bool { return s.GaveIPRGlideSample }},
	{formsession.QuestionSpokeToDoctor, "Spoke to the doctor?", func(s domain.Survey) *bool { return s.SpokeToDoctor }},
	{formsession.QuestionShowedSmartIPRVideo, "Showed the Smart IPR video?", func(s domain.Survey) *bool { return s.ShowedSmartIPRVideo }},
	{formsession.QuestionQuotedPrices, "Quoted prices?", func(s domain.Survey) *bool { return s.QuotedPrices }},
	{formsession.QuestionReadyToOrder, "Ready to order?", func(s domain.Survey) *bool { return s.ReadyToOrder }},
}

type fieldPrompt struct {
	field formsession.Field
	label string
}

// formHost receives the session's navigation signals
type formHost struct {
	submitted chan string
	cancelled chan struct{}
}

func newFormHost() *formHost {
	return &formHost{
		submitted: make(chan string, 1),
		cancelled: make(chan struct{}, 1),
	}
}

func (h *formHost) OnSubmitted(recordID string) {
	select {
	case h.submitted <- recordID:
	default:
	}
}

func (h *formHost) OnCancel() {
	select {
	case h.cancelled <- struct{}{}:
	default:
	}
}

// formRunner walks one session through its steps
type formRunner struct {
	session *formsession.Session
	host    *formHost
	prompt  prompter
	logger  *slog.Logger
}

// run returns the submitted record id, or empty when the form was cancelled
func (f *formRunner) run(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		f.header()

		if err := f.fillStep(); err != nil {
			return "", err
		}

		done, recordID, err := f.act(ctx)
		if err != nil || done {
			return recordID, err
		}
	}
}

func (f *formRunner) printf(format string, args ...interface{}) {
	fmt.Fprintf(f.prompt.Out(), format, args...)
}

func (f *formRunner) header() {
	s := f.session
	step := s.Step()
	f.printf("\n── Step %d of %d: %s (%.0f%%)", int(step), formsession.TotalSteps, step, s.Progress())
	if indicator := s.SaveIndicator(); indicator != "" {
		f.printf("  %s", indicator)
	}
	f.printf("\n")
	f.printErrors()
}

func (f *formRunner) printErrors() {
	errs := f.session.Errors()
	if len(errs) == 0 {
		return
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.printf("  ! %s\n", errs[k])
	}
}

func (f *formRunner) fillStep() error {
	snap := f.session.Snapshot()

	switch snap.Step {
	case formsession.StepVisitDate:
		return f.askVisitDate(snap)
	case formsession.StepPracticeInfo:
		return f.askPracticeInfo(snap)
	case formsession.StepSamples:
		return f.askSamples(snap)
	case formsession.StepTopics:
		topics, err := f.prompt.Multiline("Topics discussed / notes", snap.Fields.TopicsDiscussed)
		if err != nil {
			return err
		}
		return f.session.SetField(formsession.FieldTopicsDiscussed, topics)
	case formsession.StepSurvey:
		return f.askSurvey(snap)
	case formsession.StepCreditCard:
		return f.askCreditCard(snap)
	case formsession.StepReview:
		f.printReview(snap)
	}
	return nil
}

func (f *formRunner) askVisitDate(snap formsession.Snapshot) error {
	def := ""
	if !snap.Fields.VisitDate.IsZero() {
		def = snap.Fields.VisitDate.Format(domain.DateLayout)
	}
	for {
		value, err := f.prompt.Input("Visit date (YYYY-MM-DD)", def)
		if err != nil {
			return err
		}
		if err := f.session.SetField(formsession.FieldVisitDate, value); err != nil {
			f.printf("  ! Enter the date as YYYY-MM-DD\n")
			continue
		}
		return nil
	}
}

func (f *formRunner) askPracticeInfo(snap formsession.Snapshot) error {
	fields := []fieldPrompt{
		{formsession.FieldPracticeName, "Practice name *"},
		{formsession.FieldDrName, "Doctor name"},
		{formsession.FieldPhone, "Phone *"},
		{formsession.FieldEmail, "Email *"},
		{formsession.FieldAddress, "Address *"},
		{formsession.FieldFrontDeskName, "Front desk name"},
		{formsession.FieldBackOfficeAssistantName, "Back office assistant name"},
		{formsession.FieldOfficeManagerName, "Office manager name"},
	}
	return f.askFields(snap, fields)
}

func (f *formRunner) askFields(snap formsession.Snapshot, fields []fieldPrompt) error {
	for _, fd := range fields {
		value, err := f.prompt.Input(fd.label, snap.Fields.Get(fd.field))
		if err != nil {
			return err
		}
		if err := f.session.SetField(fd.field, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *formRunner) askSamples(snap formsession.Snapshot) error {
	on, err := f.prompt.Confirm("Were samples provided?", snap.Toggles.Samples)
	if err != nil {
		return err
	}
	if err := f.session.SetToggle(formsession.ToggleSamples, on); err != nil {
		return err
	}
	if !on {
		return nil
	}

	for _, sample := range domain.SampleCatalog() {
		qty, err := f.askQuantity(sample.Name, snap.Quantities[sample.ID])
		if err != nil {
			return err
		}
		if err := f.session.SetSampleQuantity(sample.ID, qty); err != nil {
			return err
		}
		if sample.ID == domain.SampleOtherID && qty > 0 {
			other, err := f.prompt.Input("Other sample description", snap.Fields.OtherSample)
			if err != nil {
				return err
			}
			if err := f.session.SetField(formsession.FieldOtherSample, other); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *formRunner) askQuantity(name string, current int) (int, error) {
	for {
		value, err := f.prompt.Input(name+" quantity", strconv.Itoa(current))
		if err != nil {
			return 0, err
		}
		qty, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil {
			f.printf("  ! Enter a whole number\n")
			continue
		}
		return qty, nil
	}
}

func (f *formRunner) askSurvey(snap formsession.Snapshot) error {
	sv := snap.Fields.Survey
	for _, q := range surveyQuestions {
		def := false
		if answer := q.answer(sv); answer != nil {
			def = *answer
		}
		yes, err := f.prompt.Confirm(q.label, def)
		if err != nil {
			return err
		}
		if err := f.session.SetSurveyAnswer(q.question, yes); err != nil {
			return err
		}

		var details formsession.SurveyText
		var current string
		switch {
		case q.question == formsession.QuestionQuotedPrices && yes:
			details, current = formsession.SurveyQuotedPricesDetails, sv.QuotedPricesDetails
		case q.question == formsession.QuestionReadyToOrder && yes:
			details, current = formsession.SurveyReadyToOrderDetails, sv.ReadyToOrderDetails
		default:
			continue
		}
		text, err := f.prompt.Input("Details", current)
		if err != nil {
			return err
		}
		if err := f.session.SetSurveyText(details, text); err != nil {
			return err
		}
	}

	desc, err := f.prompt.Multiline("Describe the office", sv.OfficeDescription)
	if err != nil {
		return err
	}
	return f.session.SetSurveyText(formsession.SurveyOfficeDescription, desc)
}

func (f *formRunner) askCreditCard(snap formsession.Snapshot) error {
	on, err := f.prompt.Confirm("Was a credit card provided?", snap.Toggles.CreditCard)
	if err != nil {
		return err
	}
	if err := f.session.SetToggle(formsession.ToggleCreditCard, on); err != nil {
		return err
	}
	if !on {
		return nil
	}

	fields := []fieldPrompt{
		{formsession.FieldCardName, "Name on card"},
		{formsession.FieldCardNumber, "Card number"},
		{formsession.FieldExpiryMonth, "Expiry month (MM)"},
		{formsession.FieldExpiryYear, "Expiry year (YYYY)"},
	}
	if err := f.askFields(snap, fields); err != nil {
		return err
	}

	label := "CVV"
	if snap.Fields.CVV != "" {
		label = "CVV (Enter keeps the current one)"
	}
	cvv, err := f.prompt.Password(label, snap.Fields.CVV == "")
	if err != nil {
		return err
	}
	if cvv == "" && snap.Fields.CVV != "" {
		return nil
	}
	return f.session.SetField(formsession.FieldCVV, cvv)
}

func (f *formRunner) printReview(snap formsession.Snapshot) {
	fl := snap.Fields
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		f.printf("  %-18s %s\n", label+":", value)
	}

	row("Visit date", fl.VisitDate.Format("January 2, 2006"))
	row("Practice", fl.PracticeName)
	row("Doctor", fl.DrName)
	row("Phone", fl.Phone)
	row("Email", fl.Email)
	row("Address", fl.Address)

	var samples []domain.SampleEntry
	for _, sample := range domain.SampleCatalog() {
		if qty := snap.Quantities[sample.ID]; qty > 0 {
			samples = append(samples, domain.SampleEntry{Name: sample.Name, Quantity: qty})
		}
	}
	if snap.Toggles.Samples {
		row("Samples", domain.FormatSamples(samples))
		row("Other sample", fl.OtherSample)
	} else {
		row("Samples", "None")
	}
	row("Topics", fl.TopicsDiscussed)

	card := "Not provided"
	if snap.Toggles.CreditCard {
		card = "Provided"
	}
	row("Credit card", card)
}

// act asks what to do next and performs it. done is true once the form is
// finished either way.
func (f *formRunner) act(ctx context.Context) (done bool, recordID string, err error) {
	s := f.session
	forward := s.ActionLabel()
	options := []string{forward}
	if !s.IsFirstStep() {
		options = append(options, actionBack)
	}
	options = append(options, actionDraft, actionJump, actionCancel)

	choice, err := f.prompt.Select("Next action", options, forward)
	if err != nil {
		return false, "", err
	}

	switch choice {
	case forward:
		return f.advance(ctx)
	case actionBack:
		s.Retreat()
	case actionDraft:
		if err := s.SaveDraft(ctx); err != nil && !errors.Is(err, formsession.ErrSaveInProgress) {
			f.logger.Debug("Manual draft save failed", logger.Err(err))
		}
		if notice := s.Notice(); notice != "" {
			f.printf("%s\n", notice)
		}
	case actionJump:
		return false, "", f.jump()
	case actionCancel:
		if s.HasUnsavedChanges() {
			discard, err := f.prompt.Confirm("Discard unsaved changes?", false)
			if err != nil || !discard {
				return false, "", err
			}
		}
		s.Cancel(ctx)
		select {
		case <-f.host.cancelled:
		default:
		}
		return true, "", nil
	}
	return false, "", nil
}

func (f *formRunner) advance(ctx context.Context) (bool, string, error) {
	outcome, err := f.session.Advance(ctx)
	switch outcome {
	case formsession.OutcomeSubmitted:
		f.printf("%s\n", f.session.Notice())
		select {
		case id := <-f.host.submitted:
			return true, id, nil
		case <-time.After(waitTimeout):
			return true, f.session.RecordID(), nil
		case <-ctx.Done():
			return true, f.session.RecordID(), ctx.Err()
		}
	case formsession.OutcomeFailed:
		f.printf("%s\n", f.session.Notice())
		f.logger.Debug("Submission failed", logger.Err(err))
	case formsession.OutcomeBusy:
		f.printf("A save is still running, try again in a moment\n")
	case formsession.OutcomeBlocked:
		f.printf("Please fix the highlighted fields\n")
	}
	return false, "", nil
}

func (f *formRunner) jump() error {
	titles := make([]string, 0, formsession.TotalSteps)
	for step := formsession.FirstStep; step <= formsession.TerminalStep; step++ {
		titles = append(titles, step.String())
	}
	choice, err := f.prompt.Select("Go to step", titles, f.session.Step().String())
	if err != nil {
		return err
	}
	for i, title := range titles {
		if title == choice {
			f.session.JumpTo(formsession.FirstStep + formsession.Step(i))
			break
		}
	}
	return nil
}
