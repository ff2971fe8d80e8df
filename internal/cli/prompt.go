package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " cannot be empty")
		}
		return nil
	}
}

// promptCredentials asks for whatever is still missing.
func promptCredentials(title, username, password string) (string, string, error) {
	var fields []huh.Field
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(notBlank("username")))
	}
	if password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password).
			Validate(notBlank("password")))
	}
	if len(fields) == 0 {
		return username, password, nil
	}
	form := huh.NewForm(huh.NewGroup(fields...).Title(title))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return username, password, nil
}

// promptResolver asks for replacement content, prefilled with the current one.
// Cancelling the prompt resolves to nothing.
type promptResolver struct{}

func (promptResolver) Resolve(current model.Todo) (string, bool) {
	content := current.Content
	err := huh.NewInput().
		Title("Edit todo").
		Value(&content).
		Run()
	if err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			logrus.WithError(err).Warnln("Edit prompt failed")
		}
		return "", false
	}
	return content, true
}
