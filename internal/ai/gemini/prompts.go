package gemini

import _ "embed"

var (
	//go:embed prompts/company.md
	companyInfo string
	//go:embed prompts/persona.md
	personaTemplate string
	//go:embed prompts/classify.md
	classifyTemplate string
	//go:embed prompts/reply.md
	replyTemplate string
	//go:embed prompts/grade.md
	gradeTemplate string
	//go:embed prompts/cv.md
	cvTemplate string
	//go:embed prompts/cover_letter.md
	coverLetterTemplate string
)

func persona() string {
	return buildPrompt(personaTemplate, map[string]string{"{{COMPANY}}": companyInfo})
}
