package llm

import "fmt"

// ValidationError reports a malformed message, a malformed tool definition,
// or an out-of-range request configuration value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("llm: invalid %s: %s", e.Field, e.Reason)
	}
	return "llm: " + e.Reason
}

// StructuredOutputError reports model content that could not be parsed as
// JSON. Raw always carries the unparsed text so the caller can inspect or
// recover it without re-issuing the network call. Usage carries whatever
// token accounting the provider reported for the failed exchange.
type StructuredOutputError struct {
	Raw   string
	Usage Usage
	Err   error
}

func (e *StructuredOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: structured output is not valid JSON: %v", e.Err)
	}
	return "llm: structured output is not valid JSON"
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }

// ToolCallError reports a tool-calling protocol violation, such as the model
// requesting a tool that was never offered.
type ToolCallError struct {
	Tool   string
	Reason string
}

func (e *ToolCallError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("llm: tool %q: %s", e.Tool, e.Reason)
	}
	return "llm: tool call: " + e.Reason
}

// ConnectionError wraps a transport or API failure from a provider backend.
// Status holds the HTTP status code when one was received, zero otherwise.
type ConnectionError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: %s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
