package llm

import "encoding/json"

// MessageCollection is the ordered history of one conversation. Insertion
// order is conversation order. The collection owns its messages: appended
// messages are copied in, and All returns copies out, so callers cannot
// mutate history behind the collection's back.
//
// A collection is not safe for concurrent use; turns within one conversation
// must be serialized by the caller.
type MessageCollection struct {
	messages []Message
}

// NewMessageCollection creates a collection seeded with the given messages.
// Every seed message is validated.
func NewMessageCollection(messages ...Message) (*MessageCollection, error) {
	c := &MessageCollection{}
	for _, m := range messages {
		if err := c.Append(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CollectionFromMaps builds a collection from untyped maps, as produced by
// external deserialization.
func CollectionFromMaps(items []map[string]any) (*MessageCollection, error) {
	c := &MessageCollection{}
	for _, item := range items {
		msg, err := MessageFromMap(item)
		if err != nil {
			return nil, err
		}
		c.messages = append(c.messages, cloneMessage(msg))
	}
	return c, nil
}

// Append validates the message and adds it to the end of the history.
func (c *MessageCollection) Append(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.messages = append(c.messages, cloneMessage(msg))
	return nil
}

// AppendSystem adds a system message.
func (c *MessageCollection) AppendSystem(content string) *MessageCollection {
	c.messages = append(c.messages, SystemMessage(content))
	return c
}

// AppendUser adds a user message.
func (c *MessageCollection) AppendUser(content string) *MessageCollection {
	c.messages = append(c.messages, UserMessage(content))
	return c
}

// AppendAssistant adds a plain assistant message.
func (c *MessageCollection) AppendAssistant(content string) *MessageCollection {
	c.messages = append(c.messages, AssistantMessage(content))
	return c
}

// AppendToolResult adds a tool-result message for the given call id.
func (c *MessageCollection) AppendToolResult(toolCallID, result string) error {
	msg, err := ToolMessage(toolCallID, result)
	if err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

// FromResponse appends the assistant message that replays the given tool
// response verbatim. It must be called exactly once per tool response,
// before any of the response's tool results are appended.
func (c *MessageCollection) FromResponse(resp *ToolResponse) error {
	msg, err := MessageFromResponse(resp)
	if err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

// Get returns the message at the given index. Out-of-range indexes report
// ok=false rather than an error.
func (c *MessageCollection) Get(index int) (Message, bool) {
	if index < 0 || index >= len(c.messages) {
		return Message{}, false
	}
	return cloneMessage(c.messages[index]), true
}

// All returns a copy of every message in conversation order.
func (c *MessageCollection) All() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = cloneMessage(m)
	}
	return out
}

// Len returns the number of messages.
func (c *MessageCollection) Len() int {
	return len(c.messages)
}

// Maps returns the serializable form of the history.
func (c *MessageCollection) Maps() []map[string]any {
	out := make([]map[string]any, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Map()
	}
	return out
}

// MarshalJSON encodes the history as a JSON array of messages.
func (c *MessageCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.messages)
}

// UnmarshalJSON decodes and validates a JSON array of messages, replacing
// the collection's contents.
func (c *MessageCollection) UnmarshalJSON(data []byte) error {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}
	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	c.messages = messages
	return nil
}
