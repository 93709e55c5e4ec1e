package interfaces

import "context"

// IRecipeProvider is the language model used to write herbal recipes.
// It returns the raw reply; parsing belongs to the caller.
type IRecipeProvider interface {
	Ask(ctx context.Context, prompt string) (string, error)
}
