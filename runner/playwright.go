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
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightBrowser opens sessions through a Playwright driver.
type PlaywrightBrowser struct {
	Headless bool
	// Install downloads the driver and browsers before the first session.
	Install bool
	Logf    func(format string, args ...any)

	installOnce sync.Once
	installErr  error
}

// NewSession starts Playwright, launches Chromium and opens a page in a new
// browser context.
func (b *PlaywrightBrowser) NewSession(ctx context.Context) (Session, error) {
	logf := b.Logf
	if logf == nil {
		logf = log.Printf
	}
	if b.Install {
		b.installOnce.Do(func() {
			b.installErr = playwright.Install()
		})
		if b.installErr != nil {
			return nil, fmt.Errorf("%w: could not install playwright: %v", ErrBrowserUnavailable, b.installErr)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: could not start playwright: %v", ErrBrowserUnavailable, err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("%w: could not launch browser: %v", ErrBrowserUnavailable, err)
	}
	bctx, err := browser.NewContext()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	s := &playwrightSession{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
	}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		line := fmt.Sprintf("%s: %s", msg.Type(), msg.Text())
		s.console.Add(line)
		logf("JS CONSOLE %s", line)
	})
	page.OnPageError(func(err error) {
		line := fmt.Sprintf("exception: %v", err)
		s.console.Add(line)
		logf("JS CONSOLE %s", line)
	})
	return s, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	console ConsoleLog
}

// timeoutMS converts the deadline of ctx into a Playwright timeout.
func timeoutMS(ctx context.Context) *float64 {
	d, ok := ctx.Deadline()
	if !ok {
		return playwright.Float(float64(DefaultTimeouts.Action.Milliseconds()))
	}
	left := time.Until(d)
	if left < time.Millisecond {
		left = time.Millisecond
	}
	return playwright.Float(float64(left.Milliseconds()))
}

func (s *playwrightSession) locate(loc Locator) playwright.Locator {
	var l playwright.Locator
	switch loc.Kind {
	case KindRole:
		opts := playwright.PageGetByRoleOptions{Exact: playwright.Bool(loc.Exact)}
		if loc.Name != "" {
			opts.Name = loc.Name
		}
		l = s.page.GetByRole(playwright.AriaRole(loc.Role), opts)
	case KindText:
		l = s.page.GetByText(loc.Text, playwright.PageGetByTextOptions{Exact: playwright.Bool(loc.Exact)})
	default:
		l = s.page.Locator(loc.Selector)
		if loc.HasText != "" {
			l = l.Filter(playwright.LocatorFilterOptions{HasText: loc.HasText})
		}
	}
	return l
}

// waitOne waits for loc to resolve to a visible element.
func (s *playwrightSession) waitOne(ctx context.Context, loc Locator, unique bool) (playwright.Locator, error) {
	l := s.locate(loc)
	var target playwright.Locator
	shown := l.Locator("visible=true")
	if loc.Indexed {
		target = l.Nth(loc.Nth)
	} else {
		target = shown.First()
	}
	err := target.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutMS(ctx),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, &LocatorNotFoundError{Locator: loc}
		}
		return nil, err
	}
	if unique && !loc.Indexed {
		n, err := shown.Count()
		if err != nil {
			return nil, err
		}
		if n > 1 {
			return nil, &AmbiguousLocatorError{Locator: loc, Count: n}
		}
	}
	return target, nil
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{Timeout: timeoutMS(ctx)})
	return err
}

func (s *playwrightSession) Reload(ctx context.Context) error {
	_, err := s.page.Reload(playwright.PageReloadOptions{Timeout: timeoutMS(ctx)})
	return err
}

func (s *playwrightSession) Click(ctx context.Context, loc Locator) error {
	target, err := s.waitOne(ctx, loc, true)
	if err != nil {
		return err
	}
	if err := target.Click(playwright.LocatorClickOptions{Timeout: timeoutMS(ctx)}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return &LocatorNotFoundError{Locator: loc, Detail: "element not clickable"}
		}
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (s *playwrightSession) Select(ctx context.Context, loc Locator, value string) error {
	target, err := s.waitOne(ctx, loc, true)
	if err != nil {
		return err
	}
	// Match option values first, then labels.
	v, err := target.Evaluate(`(el, want) => {
		if (el.tagName !== 'SELECT') return null;
		const options = Array.from(el.options);
		const opt = options.find(o => o.value === want) ||
			options.find(o => o.label.trim() === want || o.text.trim() === want);
		return opt ? opt.value : '';
	}`, value)
	if err != nil {
		return fmt.Errorf("select %s: %w", loc, err)
	}
	optValue, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s is not a <select> element", loc)
	}
	if optValue == "" {
		return &LocatorNotFoundError{Locator: loc, Detail: fmt.Sprintf("option %q", value)}
	}
	if _, err := target.SelectOption(playwright.SelectOptionValues{Values: &[]string{optValue}}, playwright.LocatorSelectOptionOptions{
		Timeout: timeoutMS(ctx),
	}); err != nil {
		return fmt.Errorf("select %s: %w", loc, err)
	}
	return nil
}

func (s *playwrightSession) WaitVisible(ctx context.Context, loc Locator) error {
	_, err := s.waitOne(ctx, loc, false)
	return err
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Screenshot(playwright.PageScreenshotOptions{Timeout: timeoutMS(ctx)})
}

func (s *playwrightSession) PageText(ctx context.Context) (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", err
	}
	return TextSnapshot(html)
}

func (s *playwrightSession) Console() iter.Seq[string] {
	return s.console.Lines()
}

func (s *playwrightSession) Close() error {
	return errors.Join(
		s.context.Close(),
		s.browser.Close(),
		s.pw.Stop(),
	)
}
