// Package prompt renders the instructions sent to the completion provider.
// Rendering is deterministic and does no I/O.
package prompt

import (
	"fmt"
	"strings"
)

// Prompt is a system persona plus the user instruction.
type Prompt struct {
	System string
	User   string
}

const (
	substitutionSystem = "You are a professional culinary assistant focused on dietary accommodations. " +
		"You always answer with a single valid JSON object and nothing else."

	generationSystem = "You are a professional chef who writes clear, practical home recipes. " +
		"You always answer with a single valid JSON object and nothing else."
)

// Substitution asks for exactly three alternatives to ingredient under a
// single "alternatives" key.
func Substitution(ingredient, restrictions, allergies string) Prompt {
	user := fmt.Sprintf(`The user wants to substitute the ingredient: '%s'.
User dietary restrictions: %s
User allergies: %s

Provide exactly 3 smart, logical and culinary-accurate alternatives.
Every alternative must respect the dietary restrictions and must not contain any listed allergen.
Return only a JSON object with a single top-level key "alternatives" whose value is a list of exactly 3 objects, each with the keys "name", "reason" and "texture_impact".
Example:
{"alternatives": [{"name": "...", "reason": "...", "texture_impact": "..."}]}`,
		strings.TrimSpace(ingredient),
		orNone(restrictions),
		orNone(allergies),
	)

	return Prompt{System: substitutionSystem, User: user}
}

// Generation asks for a complete recipe built from ingredientsText.
func Generation(ingredientsText, restrictions, allergies string) Prompt {
	user := fmt.Sprintf(`Create one recipe using only these ingredients plus common pantry staples (salt, pepper, oil, water):
%s

User dietary restrictions: %s
User allergies: %s

Requirements:
1. Do not use ingredients that conflict with the dietary restrictions.
2. Do not use any listed allergen, not even as a staple.
3. Give at least 4 instruction steps.
4. prep_time and cook_time are whole minutes; servings is a whole number.
Return only a JSON object with exactly these keys:
{
  "title": "string",
  "description": "string",
  "ingredients": [{"name": "string", "amount": "string", "unit": "string"}],
  "instructions": ["string"],
  "prep_time": 0,
  "cook_time": 0,
  "servings": 0,
  "category": "string"
}`,
		strings.TrimSpace(ingredientsText),
		orNone(restrictions),
		orNone(allergies),
	)

	return Prompt{System: generationSystem, User: user}
}

func orNone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "none"
	}
	return s
}
