package pos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt
var ErrAborted = errors.New("aborted")

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func validEmail(ans interface{}) error {
	s, _ := ans.(string)
	if !strings.Contains(s, "@") {
		return errors.New("enter a valid email")
	}
	return nil
}

// PromptCredentials asks for whatever login fields are missing
func PromptCredentials(email, password string) (string, string, error) {
	if email == "" {
		prompt := &survey.Input{Message: "Email:"}
		if err := survey.AskOne(prompt, &email, survey.WithValidator(validEmail)); err != nil {
			return "", "", translateSurveyErr(err)
		}
	}
	if password == "" {
		prompt := &survey.Password{Message: "Password:"}
		if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
			return "", "", translateSurveyErr(err)
		}
	}
	return strings.TrimSpace(email), password, nil
}

// PromptRegistration asks for the sign-up fields
func PromptRegistration() (RegisterRequest, error) {
	var r RegisterRequest
	questions := []*survey.Question{
		{Name: "name", Prompt: &survey.Input{Message: "Name:"}, Validate: survey.Required},
		{Name: "email", Prompt: &survey.Input{Message: "Email:"}, Validate: validEmail},
		{Name: "password", Prompt: &survey.Password{Message: "Password:"}, Validate: survey.Required},
		{Name: "confirm", Prompt: &survey.Password{Message: "Confirm password:"}, Validate: survey.Required},
	}

	answers := struct {
		Name     string `survey:"name"`
		Email    string `survey:"email"`
		Password string `survey:"password"`
		Confirm  string `survey:"confirm"`
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return r, translateSurveyErr(err)
	}

	r = RegisterRequest{
		Name:                 strings.TrimSpace(answers.Name),
		Email:                strings.TrimSpace(answers.Email),
		Password:             answers.Password,
		PasswordConfirmation: answers.Confirm,
	}
	return r, r.Validate()
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(message string) (bool, error) {
	var ok bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		return false, translateSurveyErr(err)
	}
	return ok, nil
}

// ConfirmDelete asks before removing an entity unless force is set
func ConfirmDelete(label string, id int64, force bool) error {
	if force {
		return nil
	}
	ok, err := Confirm(fmt.Sprintf("Delete %s %d?", label, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
