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
	"testing"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		input    string
		expected Locator
	}{
		{
			input:    `role:link name:"My Schools"`,
			expected: Role("link", "My Schools"),
		},
		{
			input:    `role:button name:Add exact:true`,
			expected: Role("button", "Add").Exactly(),
		},
		{
			input:    `text:"Welcome to Questrack!"`,
			expected: Text("Welcome to Questrack!"),
		},
		{
			input:    `text:'Supplemental Essay (Option A)' nth:first`,
			expected: Text("Supplemental Essay (Option A)").First(),
		},
		{
			input:    `text=20%`,
			expected: Text("20%"),
		},
		{
			input:    `text="Log in to your account"`,
			expected: Text("Log in to your account").Exactly(),
		},
		{
			input:    `css:select nth:1`,
			expected: CSS("select").At(1),
		},
		{
			input:    `select nth:0`,
			expected: CSS("select").First(),
		},
		{
			input:    `h2:has-text("Amherst College")`,
			expected: CSS("h2").Containing("Amherst College"),
		},
		{
			input:    `css:p has-text:"Option A, Prompt 1"`,
			expected: CSS("p").Containing("Option A, Prompt 1"),
		},
		{
			input:    `css:"select:nth-of-type(2)"`,
			expected: CSS("select:nth-of-type(2)"),
		},
		{
			input:    `text:"It's a \"test\""`,
			expected: Text(`It's a "test"`),
		},
		{
			input:    `role:button name:'Don\'t save' exact:true`,
			expected: Role("button", "Don't save").Exactly(),
		},
		{
			input:    `text:"C:\\temp"`,
			expected: Text(`C:\temp`),
		},
		{
			input:    `role:Heading`,
			expected: Role("heading", ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocator(tt.input)
			if err != nil {
				t.Fatalf("ParseLocator(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseLocator(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseLocatorErrors(t *testing.T) {
	for _, input := range []string{
		``,
		`   `,
		`role:link text:"x"`,
		`text:"x" name:y`,
		`role:button has-text:x`,
		`css:select nth:two`,
		`css:select nth:-1`,
		`text:x exact:maybe`,
		`role:`,
		`select option`,
	} {
		if l, err := ParseLocator(input); err == nil {
			t.Errorf("ParseLocator(%q) = %+v, want error", input, l)
		}
	}
}

func TestLocatorStringRoundTrip(t *testing.T) {
	for _, l := range []Locator{
		Role("link", "My Schools"),
		Role("button", "Add").Exactly(),
		Role("heading", ""),
		Text("20% Complete"),
		Text(`Say "hi"`),
		Text(`It's a "test"`),
		Role("button", `Don't "save"`),
		Text(`back\slash "and" quote`),
		Text(`trailing\`),
		Text("Supplemental Essay (Option A)").First(),
		CSS("select").At(1),
		CSS("h2").Containing("Amherst College"),
		CSS("a:hover"),
	} {
		s := l.String()
		got, err := ParseLocator(s)
		if err != nil {
			t.Errorf("ParseLocator(%q): %v", s, err)
			continue
		}
		if got != l {
			t.Errorf("round trip of %+v via %q = %+v", l, s, got)
		}
	}
}
