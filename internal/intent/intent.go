// Package intent classifies user messages into a closed set of intents.
//
// Classification is an ordered list of (keywords, intent) rules evaluated
// first-match-wins. The rule order is a deliberate tie-break: a message
// matching both a projects keyword and a skills keyword classifies as
// projects. Classification is pure and never fails; messages matching no
// rule classify as General.
package intent

import "strings"

// Intent is the classified purpose of a user message. It selects which
// prompt template and output shape the assembler uses.
type Intent string

const (
	Projects Intent = "projects"
	Skills   Intent = "skills"
	Contact  Intent = "contact"
	General  Intent = "general"
)

// rule pairs a keyword set with the intent it selects.
type rule struct {
	keywords []string
	intent   Intent
}

// rules are evaluated in priority order: projects > skills > contact.
// Keywords are bilingual (Spanish/English) to match the portfolio audience.
var rules = []rule{
	{
		keywords: []string{"proyecto", "project", "desarrollado", "built", "creado", "aplicación"},
		intent:   Projects,
	},
	{
		keywords: []string{"habilidad", "skill", "experiencia", "experience", "tecnología", "technology", "saber"},
		intent:   Skills,
	},
	{
		keywords: []string{"contacto", "contact", "email", "linkedin", "github", "colaborar", "collaborate"},
		intent:   Contact,
	},
}

// Classify maps a raw user message to an Intent using case-insensitive
// substring matching. First matching rule wins; General is the default.
func Classify(message string) Intent {
	lower := strings.ToLower(message)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}

	return General
}
