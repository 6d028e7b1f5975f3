// ABOUTME: Demo dialog set for the chat REPL
// ABOUTME: A greeting waterfall that prompts for a name and favorite color

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleybot/parley/internal/dialog"
)

// demoDialogs registers the sample conversation: a waterfall that collects a
// name and a color through text prompts.
func demoDialogs(logger *slog.Logger) (*dialog.Set, error) {
	set := dialog.NewSet(logger)

	if err := set.Add("name-prompt", dialog.NewTextPrompt(nil)); err != nil {
		return nil, err
	}

	colors := map[string]bool{"red": true, "green": true, "blue": true}
	if err := set.Add("color-prompt", dialog.NewTextPrompt(func(input string) bool {
		return colors[input]
	})); err != nil {
		return nil, err
	}

	greeting := dialog.NewWaterfall(
		func(ctx context.Context, step *dialog.WaterfallStepContext) (dialog.TurnResult, error) {
			return step.Begin(ctx, "name-prompt", dialog.PromptOptions{
				Prompt: "Hi! What's your name?",
			})
		},
		func(ctx context.Context, step *dialog.WaterfallStepContext) (dialog.TurnResult, error) {
			step.Values["name"] = step.Result
			return step.Begin(ctx, "color-prompt", dialog.PromptOptions{
				Prompt:      "What's your favorite color? (red, green, blue)",
				RetryPrompt: "Sorry, I only know red, green, and blue. Try again?",
			})
		},
		func(ctx context.Context, step *dialog.WaterfallStepContext) (dialog.TurnResult, error) {
			name := step.Values["name"]
			step.Context().SendText(fmt.Sprintf("Nice to meet you, %v! %v is a great color.", name, step.Result))
			return step.End(ctx, nil)
		},
	)
	if err := set.Add("greeting", greeting); err != nil {
		return nil, err
	}

	return set, nil
}
