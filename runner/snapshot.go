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
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"select":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "body": true,
}

// TextSnapshot renders HTML as plain text: one line per block element,
// whitespace collapsed, hidden and non-visual elements dropped. It is used to
// show what the page displayed when an assertion failed.
func TextSnapshot(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing page html: %w", err)
	}

	var lines []string
	var current strings.Builder
	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				current.WriteString(c.Text())
			case name == "br":
				flush()
			case strings.HasPrefix(name, "#"), skippedElements[name], isHidden(c):
			case name == "td" || name == "th":
				current.WriteString(" ")
				walk(c)
				current.WriteString(" ")
			case blockElements[name]:
				flush()
				walk(c)
				flush()
			default:
				walk(c)
			}
		})
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	walk(root)
	flush()
	return strings.Join(lines, "\n"), nil
}

func isHidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
