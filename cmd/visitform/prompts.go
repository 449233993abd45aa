package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// errAborted is returned when the user interrupts a prompt with Ctrl-C
var errAborted = errors.New("visitform: aborted")

// prompter abstracts the terminal so the form walk can be driven from tests
type prompter interface {
	Input(message, def string) (string, error)
	Password(message string, required bool) (string, error)
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string, def string) (string, error)
	Multiline(message, def string) (string, error)
	Out() io.Writer
}

type surveyPrompter struct {
	out io.Writer
}

func newSurveyPrompter() *surveyPrompter {
	return &surveyPrompter{out: os.Stdout}
}

func (p *surveyPrompter) Out() io.Writer { return p.out }

func (p *surveyPrompter) Input(message, def string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Password(message string, required bool) (string, error) {
	var out string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Password{Message: message}, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 12,
	}
	for _, option := range options {
		if option == def {
			prompt.Default = def
			break
		}
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Multiline(message, def string) (string, error) {
	var out string
	prompt := &survey.Multiline{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
