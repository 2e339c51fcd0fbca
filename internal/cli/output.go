package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case MessageResult:
		_, _ = fmt.Fprintln(o.w, v.Message)
	case GreetResult:
		_, _ = fmt.Fprintln(o.w, v.Greeting)
	case AuthURLResult:
		_, _ = fmt.Fprintln(o.w, v.URL)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// MessageResult is the body of a successful user record write
type MessageResult struct {
	Message string `json:"message"`
}

// GreetResult wraps the plain text greeting
type GreetResult struct {
	Greeting string `json:"greeting"`
}

// AuthURLResult is where the gateway would send a browser to sign in
type AuthURLResult struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}
