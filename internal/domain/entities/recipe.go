package entities

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrRecipeUnparsable = errors.New("recipe is not a json object")

// Recipe maps an herbal ingredient name to its quantity in grams.
// Values are kept as delivered (number or "3 gram" style strings); pricing
// extracts the magnitude.
type Recipe map[string]any

// nestedRecipeKeys are wrapper keys some model replies put around the ingredient map.
var nestedRecipeKeys = []string{"resep", "recipe", "bahan", "ingredients"}

// ParseRecipe extracts the first JSON object found in an LLM reply.
//
// Replies frequently wrap the object in prose or ``` fences, so every '{' is tried
// as a starting point and trailing text after the object is ignored.
func ParseRecipe(text string) (Recipe, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		var obj map[string]any
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&obj); err != nil || obj == nil {
			continue
		}
		return unwrapRecipe(obj), nil
	}
	return nil, ErrRecipeUnparsable
}

func unwrapRecipe(obj map[string]any) Recipe {
	if len(obj) == 1 {
		for _, key := range nestedRecipeKeys {
			if inner, ok := obj[key].(map[string]any); ok {
				return Recipe(inner)
			}
		}
	}
	return Recipe(obj)
}

// Clone returns a shallow copy so orders never alias a caller's map.
func (r Recipe) Clone() Recipe {
	if r == nil {
		return Recipe{}
	}
	out := make(Recipe, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
