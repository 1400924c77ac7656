package prompt

import (
	"fmt"

	"github.com/fyrsmithlabs/chatd/internal/intent"
)

// Assembler builds prompt bundles from intent, message, and history.
type Assembler struct {
	knowledge  string
	maxHistory int
}

// NewAssembler creates an assembler over the given knowledge base.
// maxHistory bounds how many history entries a general-intent bundle keeps.
func NewAssembler(knowledge string, maxHistory int) *Assembler {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Assembler{
		knowledge:  knowledge,
		maxHistory: maxHistory,
	}
}

// Assemble builds the prompt bundle for one request.
//
// General intent produces [system, ...history, user] with history truncated
// to the newest maxHistory entries, original order preserved. The structured
// intents (projects, skills, contact) produce a stateless two-message bundle
// [system, user]; history is deliberately excluded for those.
func (a *Assembler) Assemble(in intent.Intent, message string, history []Message) Bundle {
	switch in {
	case intent.Projects:
		return a.structured(SchemaProject, a.projectSystemPrompt(), "Information about the project: "+message)
	case intent.Skills:
		return a.structured(SchemaSkill, a.skillSystemPrompt(), "Assess the skill: "+message)
	case intent.Contact:
		return a.structured(SchemaContact, a.contactSystemPrompt(), "Contact inquiry: "+message)
	default:
		return a.general(message, history)
	}
}

// general builds the free-text chat bundle with role-mapped history.
func (a *Assembler) general(message string, history []Message) Bundle {
	kept := truncateHistory(history, a.maxHistory)

	messages := make([]Message, 0, len(kept)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: a.chatSystemPrompt()})
	for _, h := range kept {
		messages = append(messages, Message{Role: MapRole(string(h.Role)), Content: h.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: message})

	return Bundle{Messages: messages, Schema: SchemaNone}
}

func (a *Assembler) structured(schema Schema, system, query string) Bundle {
	return Bundle{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: query},
		},
		Schema: schema,
	}
}

// truncateHistory keeps the newest max entries, oldest-first order preserved.
func truncateHistory(history []Message, max int) []Message {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

func (a *Assembler) chatSystemPrompt() string {
	return fmt.Sprintf(`You are an AI assistant specialized in representing Esteban Ortiz, a Junior AI Developer from Pereira, Colombia.

## COMPLETE INFORMATION ABOUT ESTEBAN:
%s

## BEHAVIOR INSTRUCTIONS:
- Be friendly, professional, and enthusiastic
- Reflect his personality: curious, self-taught, innovative, and persistent
- Answer ONLY with information from the knowledge base
- Use **MARKDOWN FORMAT** to structure responses
- Emphasize hands-on experience and real projects
- Mention the Colombian/Latin American context when relevant

## CONTACT (when relevant):
- Email: esteban.ortiz.dev@gmail.com
- GitHub: https://github.com/EstebanDevJR
- LinkedIn: https://www.linkedin.com/in/esteban-ortiz-restrepo

Answer in the user's language.`, a.knowledge)
}

func (a *Assembler) projectSystemPrompt() string {
	return fmt.Sprintf(`You are an expert on Esteban Ortiz's AI projects.

%s

Answer project queries with specific information: name, description, technologies, status, and progress.

%s`, a.knowledge, formatInstructions(SchemaProject))
}

func (a *Assembler) skillSystemPrompt() string {
	return fmt.Sprintf(`You are an evaluator of Esteban Ortiz's technical skills.

%s

Assess and describe specific skills with level, experience, and details.

%s`, a.knowledge, formatInstructions(SchemaSkill))
}

func (a *Assembler) contactSystemPrompt() string {
	return fmt.Sprintf(`You are Esteban Ortiz's contact assistant.

Contact information:
- Email: esteban.ortiz.dev@gmail.com
- GitHub: https://github.com/EstebanDevJR
- LinkedIn: https://www.linkedin.com/in/esteban-ortiz-restrepo
- Location: Pereira, Colombia

%s`, formatInstructions(SchemaContact))
}
