package generation

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/format_narrative.txt
var formatNarrativePrompt string

//go:embed prompts/extract_rules.txt
var extractRulesPrompt string

var promptTemplates = map[TaskKind]*template.Template{
	TaskFormatNarrative: template.Must(template.New(string(TaskFormatNarrative)).Parse(formatNarrativePrompt)),
	TaskExtractRules:    template.Must(template.New(string(TaskExtractRules)).Parse(extractRulesPrompt)),
}

// BuildPrompt renders the prompt for a task over the given input text.
// Providers share this so every backend sends identical instructions.
func BuildPrompt(task TaskKind, input string) (string, error) {
	tmpl, ok := promptTemplates[task]
	if !ok {
		return "", fmt.Errorf("unknown generation task: %s", task)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Input string }{Input: input}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StripFence removes a markdown code fence the model may have wrapped
// around its output despite instructions.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
