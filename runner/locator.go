// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LocatorKind selects how a Locator resolves to page elements.
type LocatorKind string

const (
	KindRole LocatorKind = "role" // accessible role + accessible name
	KindText LocatorKind = "text" // literal visible text
	KindCSS  LocatorKind = "css"  // structural CSS selector
)

// Locator describes how to find one element on the page.
//
// A Locator never holds an element handle. It is resolved again against the
// live DOM every time a step uses it, so it stays valid across reloads.
type Locator struct {
	Kind     LocatorKind `json:"kind"`
	Role     string      `json:"role,omitempty"`
	Name     string      `json:"name,omitempty"`
	Text     string      `json:"text,omitempty"`
	Selector string      `json:"selector,omitempty"`
	// HasText narrows a CSS locator to elements containing this text.
	HasText string `json:"hasText,omitempty"`
	// Exact requires a whole-string, case-sensitive match of Name or Text.
	Exact bool `json:"exact,omitempty"`
	// Nth picks the nth match (0-based). It is only honored when Indexed
	// is set; otherwise the locator must match exactly one element.
	Nth     int  `json:"nth,omitempty"`
	Indexed bool `json:"indexed,omitempty"`
}

// Role returns a locator matching elements by ARIA role and accessible name.
func Role(role, name string) Locator {
	return Locator{Kind: KindRole, Role: role, Name: name}
}

// Text returns a locator matching the innermost elements containing text.
func Text(text string) Locator {
	return Locator{Kind: KindText, Text: text}
}

// CSS returns a locator matching a CSS selector.
func CSS(selector string) Locator {
	return Locator{Kind: KindCSS, Selector: selector}
}

// Exactly returns a copy of l that requires an exact name or text match.
func (l Locator) Exactly() Locator {
	l.Exact = true
	return l
}

// At returns a copy of l that picks the nth match.
func (l Locator) At(n int) Locator {
	l.Nth = n
	l.Indexed = true
	return l
}

// First is shorthand for At(0).
func (l Locator) First() Locator {
	return l.At(0)
}

// Containing returns a copy of l restricted to elements containing text.
func (l Locator) Containing(text string) Locator {
	l.HasText = text
	return l
}

// Validate reports whether l is complete enough to resolve.
func (l Locator) Validate() error {
	switch l.Kind {
	case KindRole:
		if l.Role == "" {
			return fmt.Errorf("role locator without a role")
		}
	case KindText:
		if l.Text == "" {
			return fmt.Errorf("text locator without text")
		}
	case KindCSS:
		if l.Selector == "" {
			return fmt.Errorf("css locator without a selector")
		}
	default:
		return fmt.Errorf("unknown locator kind %q", l.Kind)
	}
	if l.Indexed && l.Nth < 0 {
		return fmt.Errorf("negative nth %d", l.Nth)
	}
	return nil
}

// String renders l in the syntax accepted by ParseLocator.
func (l Locator) String() string {
	var parts []string
	switch l.Kind {
	case KindRole:
		parts = append(parts, "role:"+quote(l.Role))
		if l.Name != "" {
			parts = append(parts, "name:"+quote(l.Name))
		}
	case KindText:
		parts = append(parts, "text:"+quote(l.Text))
	case KindCSS:
		parts = append(parts, "css:"+quote(l.Selector))
		if l.HasText != "" {
			parts = append(parts, "has-text:"+quote(l.HasText))
		}
	default:
		parts = append(parts, "kind:"+quote(string(l.Kind)))
	}
	if l.Exact {
		parts = append(parts, "exact:true")
	}
	if l.Indexed {
		parts = append(parts, "nth:"+strconv.Itoa(l.Nth))
	}
	return strings.Join(parts, " ")
}

// ParseLocator parses the compact locator syntax used in scenario files.
// It handles:
// - key:value pairs (role, name, text, css, has-text, exact, nth)
// - quoted values (name:"My Schools"), with backslash escapes inside quotes
// - the text=... shorthand, exact when the value is quoted
// - css:has-text("...") selectors
// - a bare token as a CSS selector
func ParseLocator(input string) (Locator, error) {
	var l Locator
	tokens := tokenize(input)
	if len(tokens) == 0 {
		return l, fmt.Errorf("empty locator")
	}

	setKind := func(k LocatorKind) error {
		if l.Kind != "" && l.Kind != k {
			return fmt.Errorf("locator %q mixes %s and %s", input, l.Kind, k)
		}
		l.Kind = k
		return nil
	}

	for _, token := range tokens {
		if rest, ok := strings.CutPrefix(token, "text="); ok {
			if err := setKind(KindText); err != nil {
				return l, err
			}
			l.Text = removeQuotes(rest)
			// Playwright treats a quoted text= selector as an exact match.
			l.Exact = l.Exact || l.Text != rest
			continue
		}

		// Split by first colon. Selectors such as h2:has-text("x") have an
		// unknown key and fall through to the CSS branch.
		key, val, found := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if !found || !isLocatorKey(key) {
			if l.Kind != "" {
				return l, fmt.Errorf("unexpected token %q in locator %q", token, input)
			}
			if err := setKind(KindCSS); err != nil {
				return l, err
			}
			l.Selector, l.HasText = splitHasText(removeQuotes(token))
			continue
		}
		val = removeQuotes(strings.TrimSpace(val))

		switch key {
		case "role":
			if err := setKind(KindRole); err != nil {
				return l, err
			}
			l.Role = strings.ToLower(val)
		case "name":
			l.Name = val
		case "text":
			if err := setKind(KindText); err != nil {
				return l, err
			}
			l.Text = val
		case "css":
			if err := setKind(KindCSS); err != nil {
				return l, err
			}
			sel, hasText := splitHasText(val)
			l.Selector = sel
			if hasText != "" {
				l.HasText = hasText
			}
		case "has-text":
			l.HasText = val
		case "exact":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return l, fmt.Errorf("exact: %w", err)
			}
			l.Exact = b
		case "nth":
			if val == "first" {
				l = l.First()
				continue
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return l, fmt.Errorf("nth: %w", err)
			}
			l = l.At(n)
		}
	}

	if l.Name != "" && l.Kind != KindRole {
		return l, fmt.Errorf("name is only valid with a role locator: %q", input)
	}
	if l.HasText != "" && l.Kind != KindCSS {
		return l, fmt.Errorf("has-text is only valid with a css locator: %q", input)
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("locator %q: %w", input, err)
	}
	return l, nil
}

func isLocatorKey(key string) bool {
	switch key {
	case "role", "name", "text", "css", "has-text", "exact", "nth":
		return true
	}
	return false
}

// splitHasText splits `h2:has-text("Amherst College")` into its selector and
// text parts.
func splitHasText(sel string) (string, string) {
	i := strings.Index(sel, ":has-text(")
	if i < 0 || !strings.HasSuffix(sel, ")") {
		return sel, ""
	}
	return sel[:i], removeQuotes(sel[i+len(":has-text(") : len(sel)-1])
}

// tokenize splits the string by spaces, respecting quotes.
func tokenize(input string) []string {
	var tokens []string
	var currentToken strings.Builder
	inQuote := false
	escaped := false
	quoteChar := rune(0)

	for _, r := range input {
		switch {
		case escaped:
			escaped = false
			currentToken.WriteRune(r)
		case inQuote && r == '\\':
			escaped = true
			currentToken.WriteRune(r)
		case inQuote:
			if r == quoteChar {
				inQuote = false
			}
			currentToken.WriteRune(r)
		case unicode.IsSpace(r):
			if currentToken.Len() > 0 {
				tokens = append(tokens, currentToken.String())
				currentToken.Reset()
			}
		case r == '"' || r == '\'':
			inQuote = true
			quoteChar = r
			currentToken.WriteRune(r)
		default:
			currentToken.WriteRune(r)
		}
	}
	if currentToken.Len() > 0 {
		tokens = append(tokens, currentToken.String())
	}
	return tokens
}

// removeQuotes strips matching outer quotes and resolves backslash escapes
// inside them. Unquoted values are returned as is.
func removeQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first := s[0]
	last := s[len(s)-1]
	if (first != '"' || last != '"') && (first != '\'' || last != '\'') {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote returns s as a single locator token, double quoted with backslash
// escapes when it contains whitespace, quotes or a colon.
func quote(s string) string {
	if s != "" && !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == ':'
	}) {
		return s
	}
	return `"` + quoteEscaper.Replace(s) + `"`
}
