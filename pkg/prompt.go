package makerelease

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrPromptAborted is returned when the user cancels the selection prompt.
var ErrPromptAborted = errors.New("release type selection aborted")

// Chooser asks the user to pick one of several labeled options.
type Chooser interface {
	Choose(title string, options []string, defaultOption string) (string, error)
}

// FixedChooser answers every prompt with Answer, falling back to the default
// option when Answer is empty.
type FixedChooser struct {
	Answer string
}

// Choose implements Chooser.
func (c FixedChooser) Choose(_ string, options []string, defaultOption string) (string, error) {
	answer := c.Answer
	if answer == "" {
		answer = defaultOption
	}
	if !slices.Contains(options, answer) {
		return "", fmt.Errorf("%q is not one of %v", answer, options)
	}
	return answer, nil
}

// HuhChooser prompts on the terminal with a huh select field.
type HuhChooser struct {
	// Accessible renders a plain numbered prompt instead of the interactive list.
	Accessible bool
}

// NewHuhChooser returns a chooser that falls back to accessible mode when
// stdin is not a terminal or ACCESSIBLE is set.
func NewHuhChooser() HuhChooser {
	return HuhChooser{
		Accessible: !term.IsTerminal(int(os.Stdin.Fd())) || os.Getenv("ACCESSIBLE") != "",
	}
}

// Choose implements Chooser. The default option starts highlighted.
func (c HuhChooser) Choose(title string, options []string, defaultOption string) (string, error) {
	result := defaultOption
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&result)

	form := huh.NewForm(huh.NewGroup(sel)).
		WithTheme(huh.ThemeBase()).
		WithAccessible(c.Accessible)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrPromptAborted
		}
		return "", err
	}
	return result, nil
}
