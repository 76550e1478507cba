package enhance

import (
	"fmt"
	"strings"
)

// systemPromptTemplate is the contract with the language model: keep the
// meaning, stay concise, short titles and actions, proportionate
// descriptions, no emojis or symbols, reply with the rewrite only, and
// return the input unchanged when it is already fine.
const systemPromptTemplate = `You are a writing assistant. Rewrite the text the user gives you into more natural, readable %s.

Rules:
- Do not change the meaning.
- Keep it concise and easy to understand.
- Keep titles and actions short; give descriptions a proportionate length.
- Do not use emojis or symbols.
- Reply with the improved text only, without explanations or preambles.
- If the input is already good, return it unchanged.`

func systemPrompt(language string) string {
	if strings.TrimSpace(language) == "" {
		language = defaultLanguage
	}
	return fmt.Sprintf(systemPromptTemplate, language)
}

func kindLabel(k Kind) string {
	switch k {
	case KindTitle:
		return "title"
	case KindAction:
		return "action (verb)"
	case KindDescription:
		return "description"
	default:
		return "text"
	}
}

// userMessage lists the sibling title and action as reference, skipping the
// one being rewritten, then asks for the rewrite.
func userMessage(req Request) string {
	var b strings.Builder
	if c := req.Context; c != nil {
		var parts []string
		if c.Title != "" && req.Type != KindTitle {
			parts = append(parts, "Title: "+c.Title)
		}
		if c.Action != "" && req.Type != KindAction {
			parts = append(parts, "Action: "+c.Action)
		}
		if len(parts) > 0 {
			b.WriteString("Reference:\n")
			b.WriteString(strings.Join(parts, "\n"))
			b.WriteString("\n\n")
		}
	}
	fmt.Fprintf(&b, "Improve the following %s:\n\n%s", kindLabel(req.Type), req.Text)
	return b.String()
}
