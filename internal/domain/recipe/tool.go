// Package recipe implements the transmit_recipe tool: the model hands over a
// finished recipe, an image prompt and a file stem, and the tool saves the
// recipe text and a generated photo of the dish to the output directory.
package recipe

import "github.com/corey/gourmand/internal/ports"

// ToolName is the name the model uses to call the tool.
const ToolName = "transmit_recipe"

// Input property names.
const (
	FieldDetails     = "recipe_details"
	FieldImagePrompt = "image_prompt"
	FieldFileStem    = "file_stem"
)

const toolDescription = `this tool transmits a recipe (ingredients, instructions, and shopping list), a prompt for an
image generation model to produce an appetizing photo of the recipe, as well as a file stem for
saving the actual data. It will return the actual location so that you can respond to the user.`

// Spec returns the tool specification advertised to the model.
func Spec() ports.ToolSpec {
	return ports.ToolSpec{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				FieldDetails: map[string]any{
					"type":        "string",
					"description": "The actual recipe, including ingredients, instructions, and shopping list",
				},
				FieldImagePrompt: map[string]any{
					"type":        "string",
					"description": "A prompt suitable for an image generation model to produce an appetizing photo of final dish",
				},
				FieldFileStem: map[string]any{
					"type": "string",
					"description": "a file stem for this recipe, all lowercase, with words separated by underscores, " +
						"with a 4 digit random numeric appended to the end. such as: banana_bread_#### " +
						"but with numbers in place of #",
				},
			},
			"required": []string{FieldDetails, FieldImagePrompt, FieldFileStem},
		},
	}
}
