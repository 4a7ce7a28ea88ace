package recipes

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// parsedRecipe tolerates model output that returns ingredients or
// instructions as either a string or an array of strings.
type parsedRecipe struct {
	Name         string      `json:"name"`
	Ingredients  stringOrSet `json:"ingredients"`
	Instructions stringOrSet `json:"instructions"`
}

type stringOrSet string

func (s *stringOrSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = stringOrSet(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = stringOrSet(strings.Join(many, ", "))
	return nil
}

// parseRecipes extracts recipes from a model reply. It first looks for
// a JSON array anywhere in the text, then falls back to a line-oriented
// parser for numbered plain-text answers.
func parseRecipes(reply string) []parsedRecipe {
	if match := jsonArrayRe.FindString(reply); match != "" {
		var out []parsedRecipe
		if err := json.Unmarshal([]byte(match), &out); err == nil {
			return out
		}
	}
	return parseTextRecipes(reply)
}

func parseTextRecipes(text string) []parsedRecipe {
	var (
		recipes []parsedRecipe
		current *parsedRecipe
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "1.") || strings.HasPrefix(line, "2.") || strings.HasPrefix(line, "3."):
			if current != nil {
				recipes = append(recipes, *current)
			}
			current = &parsedRecipe{Name: strings.TrimSpace(line[2:])}
		case current != nil && strings.Contains(strings.ToLower(line), "ingredients"):
			current.Ingredients = stringOrSet(afterColon(line))
		case current != nil && strings.Contains(strings.ToLower(line), "instructions"):
			current.Instructions = stringOrSet(afterColon(line))
		}
	}
	if current != nil {
		recipes = append(recipes, *current)
	}
	return recipes
}

func afterColon(line string) string {
	if _, rest, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(rest)
	}
	return line
}
