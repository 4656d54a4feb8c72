package gateway

import "fmt"

const systemPrompt = "You are an expert software architect who writes PlantUML."

const promptTemplate = `
You are an expert software architect. Generate a detailed PlantUML code for a %[1]s based on the following project description:

Project Context: %[2]s

Requirements:
1. Generate ONLY valid PlantUML code for %[1]s
2. Make the diagram detailed and realistic for the described project
3. Include all relevant entities, relationships, or interactions
4. Ensure the code is properly formatted and can be rendered
5. Do NOT include any explanations or text outside the code
6. Start directly with @startuml and end with @enduml

Generate the PlantUML code now:
`

// BuildPrompt renders the user prompt for one generation turn. The
// instruction is either a diagram type or a free-form modification request.
func BuildPrompt(projectContext, instruction string) string {
	return fmt.Sprintf(promptTemplate, instruction, projectContext)
}
