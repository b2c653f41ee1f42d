package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Clock reports the current time, optionally in a named IANA timezone.
type Clock struct {
	now func() time.Time
}

// NewClock creates a new Clock tool.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Name() string        { return "current_time" }
func (c *Clock) Description() string { return "Get the current date and time" }
func (c *Clock) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"timezone": {"type": "string", "description": "IANA timezone name, e.g. Europe/Paris. Defaults to UTC."}
		}
	}`)
}

func (c *Clock) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Timezone string `json:"timezone"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("parse args: %w", err)
		}
	}

	loc := time.UTC
	if params.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(params.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q", params.Timezone)
		}
	}

	return c.now().In(loc).Format("Monday, 2 January 2006 15:04:05 MST"), nil
}
