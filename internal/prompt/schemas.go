package prompt

// ProjectInfo is the structured answer shape for project queries.
type ProjectInfo struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Technologies       []string `json:"technologies"`
	Status             string   `json:"status"`
	ProgressPercentage *int     `json:"progress_percentage,omitempty"`
}

// SkillAssessment is the structured answer shape for skill queries.
type SkillAssessment struct {
	Skill            string `json:"skill"`
	Level            string `json:"level"`
	ExperienceMonths *int   `json:"experience_months,omitempty"`
	Description      string `json:"description"`
}

// ContactResponse is the structured answer shape for contact queries.
type ContactResponse struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// formatInstructions returns the output format description appended to the
// system prompt for a structured schema. Empty for SchemaNone.
func formatInstructions(schema Schema) string {
	switch schema {
	case SchemaProject:
		return `Respond ONLY with a JSON object matching this schema, no prose around it:
{
  "name": "project name",
  "description": "project description",
  "technologies": ["technology", ...],
  "status": "current status",
  "progress_percentage": 0-100 (optional integer)
}`
	case SchemaSkill:
		return `Respond ONLY with a JSON object matching this schema, no prose around it:
{
  "skill": "skill name",
  "level": "skill level",
  "experience_months": months of experience (optional integer),
  "description": "description of the experience"
}`
	case SchemaContact:
		return `Respond ONLY with a JSON object matching this schema, no prose around it:
{
  "message": "response message",
  "email": "contact email",
  "github": "GitHub URL (optional)",
  "linkedin": "LinkedIn URL (optional)"
}`
	default:
		return ""
	}
}
