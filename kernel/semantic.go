package kernel

import (
	"context"
	"regexp"

	"github.com/poiesic/aikernel/ai"
)

// placeholderPattern matches {{$name}} with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*\$([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// RenderPrompt substitutes {{$name}} placeholders from vars. Unset variables
// render as the empty string.
func RenderPrompt(template string, vars *Variables) string {
	if vars == nil {
		vars = NewVariables("")
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		val, _ := vars.Get(name)
		return val
	})
}

// SemanticFunction returns a Function that renders template and completes it
// with the text completion service serviceID ("" for the default). The
// service is resolved on every call.
func (k *Kernel) SemanticFunction(template string, settings *ai.CompletionSettings, serviceID string) Function {
	return func(ctx context.Context, vars *Variables) (string, error) {
		svc, err := k.TextCompletion(serviceID)
		if err != nil {
			return "", err
		}
		return svc.Complete(ctx, RenderPrompt(template, vars), settings)
	}
}
