package prompt

import (
	"fmt"
	"strings"

	"study-assistant-be/pkg/llm"
	"study-assistant-be/pkg/rag"
)

// ContextualBuilder builds the final user message of a retrieval turn: the retrieved
// fragments as reference material followed by the question.
type ContextualBuilder struct {
	fragments []rag.Fragment
	query     string
}

func NewContextualBuilder(fragments []rag.Fragment, query string) *ContextualBuilder {
	return &ContextualBuilder{
		fragments: fragments,
		query:     query,
	}
}

func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.fragments) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, f := range b.fragments {
		fmt.Fprintf(prompt, "[%d] source: %s", i+1, f.SourceFile())
		if f.Page != nil {
			fmt.Fprintf(prompt, ", page %d", *f.Page)
		}
		prompt.WriteString("\n")
		prompt.WriteString(f.Content)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a study assistant answering questions about the user's uploaded documents.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextualBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Mention the source file when you rely on a specific passage\n")
	prompt.WriteString("3. If the material doesn't contain what's being asked, say so honestly\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *ContextualBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete response based on the reference material:")
}

// HistoryMessages maps the raw conversation history onto chat messages.
func HistoryMessages(history []rag.HistoryEntry) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == rag.RoleAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Text})
	}
	return msgs
}
