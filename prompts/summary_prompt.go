package prompts

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const summaryInstruction = "Generate a project summary based on the following prompt, keeping it concise and engaging and under 3 short paragraphs:"

// ProjectSummary wraps the plain text of a project's prompt in the summary
// instruction sent to the model.
func ProjectSummary(prompt string) string {
	return fmt.Sprintf("%s\n\n%s", summaryInstruction, prompt)
}

// SystemInstruction builds the optional system instruction from the site's
// base prompt. It returns nil when there is nothing to send.
func SystemInstruction(basePrompt string) *genai.Content {
	basePrompt = strings.TrimSpace(basePrompt)
	if basePrompt == "" {
		return nil
	}
	return &genai.Content{Parts: []*genai.Part{{Text: basePrompt}}}
}
