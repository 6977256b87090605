package sse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/datastar-go/datastar/pkg/protocol"
)

// scriptConfig holds per-command script execution settings.
type scriptConfig struct {
	autoRemove bool
	attributes map[string]string
}

// ScriptOption configures a single script execution command.
type ScriptOption func(*scriptConfig)

// WithAutoRemove controls whether the injected script removes itself after
// running. Defaults to true.
func WithAutoRemove(remove bool) ScriptOption {
	return func(c *scriptConfig) {
		c.autoRemove = remove
	}
}

// WithAttribute adds an attribute to the generated script tag.
func WithAttribute(name, value string) ScriptOption {
	return func(c *scriptConfig) {
		if c.attributes == nil {
			c.attributes = make(map[string]string)
		}
		c.attributes[name] = value
	}
}

// WithAttributes adds a set of attributes to the generated script tag.
func WithAttributes(attrs map[string]string) ScriptOption {
	return func(c *scriptConfig) {
		if c.attributes == nil {
			c.attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.attributes[k] = v
		}
	}
}

// ExecuteScript runs code on the client. There is no dedicated wire concept:
// the code is wrapped in a <script> fragment and appended to the document
// body through the ordinary element patch path. The literal substring
// </script> inside the body is escaped so it cannot terminate the tag early.
func (s *Session) ExecuteScript(code string, opts ...ScriptOption) error {
	c := scriptConfig{autoRemove: true}
	for _, opt := range opts {
		opt(&c)
	}

	return s.PatchElements("body", scriptFragment(code, c), WithMode(protocol.ModeAppend))
}

// ExecuteScriptf is ExecuteScript with fmt-style interpolation of the code.
func (s *Session) ExecuteScriptf(format string, args ...any) error {
	return s.ExecuteScript(fmt.Sprintf(format, args...))
}

// scriptFragment renders the <script> markup for code.
func scriptFragment(code string, c scriptConfig) string {
	var b strings.Builder
	b.WriteString("<script")

	// Deterministic attribute order keeps fragments reproducible.
	names := make([]string, 0, len(c.attributes))
	for name := range c.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%q", name, c.attributes[name])
	}

	b.WriteString(">")
	b.WriteString(escapeScriptBody(code))
	if c.autoRemove {
		b.WriteString(";document.currentScript.remove()")
	}
	b.WriteString("</script>")
	return b.String()
}

// escapeScriptBody neutralizes a closing script tag inside the body.
func escapeScriptBody(code string) string {
	return strings.ReplaceAll(code, "</script>", "<\\/script>")
}

// ConsoleLog logs msg to the client console.
func (s *Session) ConsoleLog(msg string) error {
	return s.ExecuteScript(fmt.Sprintf("console.log(%q)", msg))
}

// ConsoleLogf logs a formatted message to the client console.
func (s *Session) ConsoleLogf(format string, args ...any) error {
	return s.ConsoleLog(fmt.Sprintf(format, args...))
}

// ConsoleError logs msg to the client console as an error.
func (s *Session) ConsoleError(msg string) error {
	return s.ExecuteScript(fmt.Sprintf("console.error(%q)", msg))
}

// Redirect navigates the client to url. The navigation is deferred a tick so
// the patch settles before the page unloads.
func (s *Session) Redirect(url string) error {
	return s.ExecuteScript(fmt.Sprintf("setTimeout(() => window.location.href = %q)", url))
}

// Redirectf navigates the client to a formatted url.
func (s *Session) Redirectf(format string, args ...any) error {
	return s.Redirect(fmt.Sprintf(format, args...))
}

// ReplaceURL replaces the client's address bar URL without navigating.
func (s *Session) ReplaceURL(url string) error {
	return s.ExecuteScript(fmt.Sprintf(`window.history.replaceState({}, "", %q)`, url))
}

// ReplaceURLQuerystring replaces only the query string of the client's
// current URL, keeping the path.
func (s *Session) ReplaceURLQuerystring(query string) error {
	if query != "" && !strings.HasPrefix(query, "?") {
		query = "?" + query
	}
	return s.ExecuteScript(fmt.Sprintf(`window.history.replaceState({}, "", window.location.pathname + %q)`, query))
}

// DispatchCustomEvent dispatches a DOM CustomEvent on the client window.
// detail is serialized to JSON and becomes the event's detail payload.
func (s *Session) DispatchCustomEvent(name string, detail any) error {
	b, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("sse: marshal event detail: %w", err)
	}
	return s.ExecuteScript(fmt.Sprintf("window.dispatchEvent(new CustomEvent(%q, {detail: %s}))", name, b))
}

// Prefetch asks the client to prerender the given URLs by appending a
// speculation rules block to the document head.
func (s *Session) Prefetch(urls ...string) error {
	rules := map[string]any{
		"prerender": []map[string]any{
			{"source": "list", "urls": urls},
		},
	}
	b, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("sse: marshal speculation rules: %w", err)
	}

	fragment := scriptFragment(string(b), scriptConfig{
		attributes: map[string]string{"type": "speculationrules"},
	})
	return s.PatchElements("head", fragment, WithMode(protocol.ModeAppend))
}
