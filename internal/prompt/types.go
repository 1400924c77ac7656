// Package prompt builds the ordered, role-tagged message bundles sent to the
// language model for one completion call.
//
// The assembler is a pure function over the intent, the user message, the
// conversation history, and the knowledge base: no I/O, no mutation, stable
// output order. Structured-output schemas and their parsing also live here so
// the completion invoker can degrade gracefully to raw text on parse failure.
package prompt

// Role tags a message with its conversational role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged message in a bundle.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Schema identifies the structured output shape requested from the model.
// SchemaNone means plain text.
type Schema string

const (
	SchemaNone    Schema = ""
	SchemaProject Schema = "project_info"
	SchemaSkill   Schema = "skill_assessment"
	SchemaContact Schema = "contact_response"
)

// Bundle is the assembled prompt for one completion call: an ordered message
// sequence plus the structured output schema, if any.
type Bundle struct {
	Messages []Message
	Schema   Schema
}

// MapRole maps an arbitrary history role string onto a Role. The mapping is
// total: "system" and "assistant" map to their roles, everything else maps
// to RoleUser.
func MapRole(role string) Role {
	switch role {
	case string(RoleSystem):
		return RoleSystem
	case string(RoleAssistant):
		return RoleAssistant
	default:
		return RoleUser
	}
}
