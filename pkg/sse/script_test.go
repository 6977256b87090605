package sse

import (
	"strings"
	"testing"
)

func TestExecuteScript(t *testing.T) {
	t.Run("auto_remove_default", func(t *testing.T) {
		s, rec := newTestSession(t)
		if err := s.ExecuteScript("console.log('hi')"); err != nil {
			t.Fatalf("ExecuteScript() error = %v", err)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "data: selector body\n") {
			t.Errorf("script patch does not target body: %q", body)
		}
		if !strings.Contains(body, "data: mode append\n") {
			t.Errorf("script patch does not append: %q", body)
		}
		if !strings.Contains(body, "console.log('hi')") {
			t.Errorf("script body missing original code: %q", body)
		}
		if !strings.Contains(body, "document.currentScript.remove()") {
			t.Errorf("auto-remove statement missing: %q", body)
		}
	})

	t.Run("auto_remove_disabled", func(t *testing.T) {
		s, rec := newTestSession(t)
		if err := s.ExecuteScript("console.log('hi')", WithAutoRemove(false)); err != nil {
			t.Fatalf("ExecuteScript() error = %v", err)
		}
		if strings.Contains(rec.Body.String(), "document.currentScript.remove()") {
			t.Errorf("auto-remove statement present with WithAutoRemove(false)")
		}
	})

	t.Run("attributes_sorted", func(t *testing.T) {
		s, rec := newTestSession(t)
		err := s.ExecuteScript("run()", WithAttributes(map[string]string{
			"type":  "module",
			"defer": "true",
		}))
		if err != nil {
			t.Fatalf("ExecuteScript() error = %v", err)
		}
		if !strings.Contains(rec.Body.String(), `<script defer="true" type="module">`) {
			t.Errorf("attributes not rendered in sorted order: %q", rec.Body.String())
		}
	})

	t.Run("closing_tag_escaped", func(t *testing.T) {
		s, rec := newTestSession(t)
		code := `el.innerHTML = "</script>"`
		if err := s.ExecuteScript(code); err != nil {
			t.Fatalf("ExecuteScript() error = %v", err)
		}

		body := rec.Body.String()
		// The generated fragment's own closing tag is the only one allowed.
		if strings.Count(body, "</script>") != 1 {
			t.Errorf("unescaped </script> inside script body: %q", body)
		}
		if !strings.Contains(body, `<\/script>`) {
			t.Errorf("escaped closing tag missing: %q", body)
		}
	})
}

func TestExecuteScriptf(t *testing.T) {
	s, rec := newTestSession(t)
	if err := s.ExecuteScriptf("countdown(%d)", 10); err != nil {
		t.Fatalf("ExecuteScriptf() error = %v", err)
	}
	if !strings.Contains(rec.Body.String(), "countdown(10)") {
		t.Errorf("formatted code missing: %q", rec.Body.String())
	}
}

func TestDerivedScriptCommands(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Session) error
		want []string
	}{
		{
			name: "console_log",
			run:  func(s *Session) error { return s.ConsoleLog("hello") },
			want: []string{`console.log("hello")`},
		},
		{
			name: "console_logf",
			run:  func(s *Session) error { return s.ConsoleLogf("saved %d items", 3) },
			want: []string{`console.log("saved 3 items")`},
		},
		{
			name: "console_error",
			run:  func(s *Session) error { return s.ConsoleError("boom") },
			want: []string{`console.error("boom")`},
		},
		{
			name: "redirect",
			run:  func(s *Session) error { return s.Redirect("/login") },
			want: []string{`window.location.href = "/login"`},
		},
		{
			name: "redirectf",
			run:  func(s *Session) error { return s.Redirectf("/users/%d", 7) },
			want: []string{`window.location.href = "/users/7"`},
		},
		{
			name: "replace_url",
			run:  func(s *Session) error { return s.ReplaceURL("/inbox") },
			want: []string{`window.history.replaceState({}, "", "/inbox")`},
		},
		{
			name: "replace_url_querystring",
			run:  func(s *Session) error { return s.ReplaceURLQuerystring("page=2") },
			want: []string{`window.location.pathname + "?page=2"`},
		},
		{
			name: "dispatch_custom_event",
			run: func(s *Session) error {
				return s.DispatchCustomEvent("cart:updated", map[string]int{"items": 3})
			},
			want: []string{`new CustomEvent("cart:updated", {detail: {"items":3}})`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, rec := newTestSession(t)
			if err := tc.run(s); err != nil {
				t.Fatalf("command error = %v", err)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "data: selector body\n") {
				t.Errorf("derived command does not target body: %q", body)
			}
			for _, want := range tc.want {
				if !strings.Contains(body, want) {
					t.Errorf("generated code missing %q in %q", want, body)
				}
			}
		})
	}
}

func TestPrefetch(t *testing.T) {
	s, rec := newTestSession(t)
	if err := s.Prefetch("/a", "/b"); err != nil {
		t.Fatalf("Prefetch() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "data: selector head\n") {
		t.Errorf("prefetch does not target head: %q", body)
	}
	if !strings.Contains(body, `<script type="speculationrules">`) {
		t.Errorf("speculationrules script tag missing: %q", body)
	}
	if !strings.Contains(body, `"urls":["/a","/b"]`) {
		t.Errorf("prerender url list missing: %q", body)
	}
	if strings.Contains(body, "document.currentScript.remove()") {
		t.Errorf("speculation rules block must not self-remove: %q", body)
	}
}
