// ABOUTME: TextPrompt dialog: ask for text input, optionally validate, retry until accepted
// ABOUTME: Prompt texts live in frame state so reprompting works across turns

package dialog

import (
	"context"
	"fmt"
	"strings"
)

// Frame state keys used by TextPrompt.
const (
	promptTextKey  = "prompt"
	promptRetryKey = "retry_prompt"
)

// PromptOptions configures a prompt when it begins.
type PromptOptions struct {
	// Prompt is sent when the prompt begins and on reprompt.
	Prompt string

	// RetryPrompt is sent when validation rejects the input. Falls back to
	// Prompt when empty.
	RetryPrompt string
}

// PromptValidator accepts or rejects user input. A nil validator accepts any
// non-empty input.
type PromptValidator func(input string) bool

// TextPrompt waits for a line of text from the user and ends with it as the
// dialog result once the validator accepts it.
type TextPrompt struct {
	BaseHandler
	validate PromptValidator
}

// NewTextPrompt creates a text prompt with an optional validator.
func NewTextPrompt(validate PromptValidator) *TextPrompt {
	return &TextPrompt{validate: validate}
}

// BeginDialog sends the prompt and waits for input.
func (p *TextPrompt) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	opts, ok := options.(PromptOptions)
	if !ok {
		if po, isPtr := options.(*PromptOptions); isPtr && po != nil {
			opts = *po
		} else {
			return TurnResult{}, fmt.Errorf("text prompt requires PromptOptions, got %T", options)
		}
	}

	inst := dc.ActiveInstance()
	inst.State[promptTextKey] = opts.Prompt
	inst.State[promptRetryKey] = opts.RetryPrompt

	if opts.Prompt != "" {
		dc.SendText(opts.Prompt)
	}
	return TurnResult{Status: StatusWaiting}, nil
}

// ContinueDialog validates the turn's input, ending with it when accepted or
// retrying otherwise.
func (p *TextPrompt) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	input := strings.TrimSpace(dc.Activity().Text)

	accepted := input != ""
	if accepted && p.validate != nil {
		accepted = p.validate(input)
	}
	if accepted {
		return dc.EndDialog(ctx, input)
	}

	inst := dc.ActiveInstance()
	retry, _ := inst.State[promptRetryKey].(string)
	if retry == "" {
		retry, _ = inst.State[promptTextKey].(string)
	}
	if retry != "" {
		dc.SendText(retry)
	}
	return TurnResult{Status: StatusWaiting}, nil
}

// ResumeDialog reprompts: if a child dialog ran on top of the prompt, the
// user needs the question again.
func (p *TextPrompt) ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error) {
	if err := p.RepromptDialog(ctx, dc, dc.ActiveInstance()); err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Status: StatusWaiting}, nil
}

// RepromptDialog re-sends the original prompt.
func (p *TextPrompt) RepromptDialog(ctx context.Context, dc *Context, instance *Instance) error {
	prompt, _ := instance.State[promptTextKey].(string)
	if prompt != "" {
		dc.SendText(prompt)
	}
	return nil
}
