package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// errNoTerminal is returned when input is needed but stdin is not a TTY.
var errNoTerminal = errors.New("standard input is not a terminal")

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptCommitMessage asks for a commit message in a multi-line editor.
func promptCommitMessage(paths []string) (string, error) {
	message := ""
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Commit message").
				Description(fmt.Sprintf("Committing %d path(s)", len(paths))).
				Value(&message).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("message cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(message), nil
}

// confirmRevert asks before local changes are discarded.
func confirmRevert(paths []string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title("Discard local changes?").
		Description(strings.Join(paths, "\n")).
		Affirmative("Yes, revert").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
