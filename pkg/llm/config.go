package llm

import "fmt"

// RequestConfig holds the generation parameters for one completion request.
// Every field is optional; nil means the provider's own default applies.
type RequestConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

// Validate checks every set parameter against its allowed range.
func (c *RequestConfig) Validate() error {
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return &ValidationError{Field: "temperature", Reason: fmt.Sprintf("%v out of range [0, 2]", *c.Temperature)}
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return &ValidationError{Field: "max_tokens", Reason: fmt.Sprintf("%d must be positive", *c.MaxTokens)}
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return &ValidationError{Field: "top_p", Reason: fmt.Sprintf("%v out of range [0, 1]", *c.TopP)}
	}
	if c.FrequencyPenalty != nil && (*c.FrequencyPenalty < -2 || *c.FrequencyPenalty > 2) {
		return &ValidationError{Field: "frequency_penalty", Reason: fmt.Sprintf("%v out of range [-2, 2]", *c.FrequencyPenalty)}
	}
	if c.PresencePenalty != nil && (*c.PresencePenalty < -2 || *c.PresencePenalty > 2) {
		return &ValidationError{Field: "presence_penalty", Reason: fmt.Sprintf("%v out of range [-2, 2]", *c.PresencePenalty)}
	}
	return nil
}

// clone returns a copy with freshly allocated pointers, so that a builder's
// snapshot is immune to later setter calls on the source.
func (c RequestConfig) clone() RequestConfig {
	out := RequestConfig{}
	if c.Temperature != nil {
		v := *c.Temperature
		out.Temperature = &v
	}
	if c.MaxTokens != nil {
		v := *c.MaxTokens
		out.MaxTokens = &v
	}
	if c.TopP != nil {
		v := *c.TopP
		out.TopP = &v
	}
	if c.FrequencyPenalty != nil {
		v := *c.FrequencyPenalty
		out.FrequencyPenalty = &v
	}
	if c.PresencePenalty != nil {
		v := *c.PresencePenalty
		out.PresencePenalty = &v
	}
	return out
}
