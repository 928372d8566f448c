package scorer

import (
	"embed"
	"fmt"
)

// SchemaName is the structured-output name sent with every request
const SchemaName = "VAAIProjectAnalysis"

//go:embed prompts/*.txt
var promptFS embed.FS

var systemPrompt string
var systemPromptError error

func init() {
	// Load system prompt during package initialization
	promptBytes, err := promptFS.ReadFile("prompts/system_prompt.txt")
	if err != nil {
		systemPromptError = fmt.Errorf("failed to load system prompt: %w", err)
		return
	}
	systemPrompt = string(promptBytes)
}

// DefaultSystemPrompt returns the embedded rubric prompt
func DefaultSystemPrompt() (string, error) {
	return systemPrompt, systemPromptError
}
