package recipe

import (
	"context"
	"fmt"
	"strings"
)

// Generator turns a prompt into text. One synchronous call, no streaming.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	// NoIngredientsMessage is returned instead of a recipe when nothing edible was detected.
	NoIngredientsMessage = "Sorry, I couldn't detect any recognizable food items."

	promptTemplate = `Act as a professional gourmet chef.
I have these primary ingredients: %s.

You can assume I also have basic pantry staples like salt, pepper, oil, sugar, and water.

Create a delicious and creative recipe using these ingredients.
Please format the response strictly as follows using Markdown:

🍳 **Recipe Name:** [Insert Creative Name]

⏱️ **Prep time:** [e.g., 15 mins] | 📊 **Difficulty:** [Easy/Medium/Hard]

🛒 **Ingredients Needed:**
- [List the detected ingredients]
- [List any additional basic staples used]

👩‍🍳 **Instructions:**
1. [Step 1]
2. [Step 2]
...

💡 **Chef's Tip:**
[A short, secret tip to make this dish taste better]
`
)

// BuildPrompt embeds the ingredient list into the chef prompt.
func BuildPrompt(ingredients []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(ingredients, ", "))
}

// FailureMessage is the recipe text shown when generation failed.
func FailureMessage(err error) string {
	return fmt.Sprintf("Error generating recipe: %v", err)
}
