package consent

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
)

const promptLabel = "This app needs access to your geolocation to find nearby users. Allow?"

// ConsolePrompter asks for consent on the terminal. It is wired in when
// the process runs interactively; servers use a static or func prompter
// instead.
type ConsolePrompter struct{}

// NewConsolePrompter constructs a terminal-backed prompter.
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{}
}

// Ask puts a yes/no selection to the terminal. Aborted or failed prompts
// return an error, which the registry records as a denial.
func (p *ConsolePrompter) Ask(_ context.Context, userID string) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("[%s] %s", userID, promptLabel),
		Items: []string{"Yes", "No"},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return false, fmt.Errorf("consent prompt: %w", err)
	}
	return answer == "Yes", nil
}
