package tools

import (
	"github.com/openai/openai-go"
)

// OpenAITools renders the catalogue as chat-completion tool definitions, so
// the tools can be offered to any OpenAI-compatible model.
func (c *Catalog) OpenAITools() []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(c.order))
	for _, t := range c.List() {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Schema.Map()),
			},
		})
	}
	return out
}
