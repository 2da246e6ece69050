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
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// pollInterval is how often a locator is re-resolved while waiting.
const pollInterval = 100 * time.Millisecond

// markAttr is the attribute the resolver uses to tag a chosen element.
const markAttr = "data-questcheck"

// ChromeBrowser opens sessions in Chrome through the DevTools protocol.
type ChromeBrowser struct {
	// RemoteURL is the url of a remote debugging port. When empty, a local
	// Chrome is started for every session.
	RemoteURL string
	Headless  bool
	Logf      func(format string, args ...any)
}

// NewSession opens a page in a fresh browser context.
func (b *ChromeBrowser) NewSession(ctx context.Context) (Session, error) {
	logf := b.Logf
	if logf == nil {
		logf = log.Printf
	}

	// The session lives until Close, not until ctx ends, so that the page
	// can still be read after a run timed out. ctx only bounds the startup.
	base := context.WithoutCancel(ctx)
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if b.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(base, b.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.Headless))
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(base, opts...)
	}
	stopStartup := context.AfterFunc(ctx, cancelAlloc)
	defer stopStartup()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logf),
		chromedp.WithLogf(logf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	// The first tab lives in the default browser context. Scenario pages get
	// their own context so that local storage is never shared.
	tabCtx, cancelTab := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())

	s := &chromeSession{
		ctx:   tabCtx,
		token: uuid.NewString(),
		logf:  logf,
		cancel: func() {
			cancelTab()
			cancelBrowser()
			cancelAlloc()
		},
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			args := make([]string, len(ev.Args))
			for i, arg := range ev.Args {
				args[i] = consoleArg(arg)
			}
			line := fmt.Sprintf("%s: %s", ev.Type, strings.Join(args, " "))
			s.console.Add(line)
			logf("JS CONSOLE %s", line)
		case *runtime.EventExceptionThrown:
			line := fmt.Sprintf("exception: %s", ev.ExceptionDetails.Error())
			s.console.Add(line)
			logf("JS CONSOLE %s", line)
		}
	})

	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: opening tab: %v", ErrBrowserUnavailable, err)
	}
	if !stopStartup() {
		s.cancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, context.Cause(ctx))
	}
	return s, nil
}

// consoleArg renders a console argument the way the page printed it.
func consoleArg(arg *runtime.RemoteObject) string {
	if len(arg.Value) > 0 {
		var s string
		if err := json.Unmarshal(arg.Value, &s); err == nil {
			return s
		}
		return string(arg.Value)
	}
	if arg.Description != "" {
		return arg.Description
	}
	return string(arg.Type)
}

type chromeSession struct {
	ctx     context.Context
	cancel  func()
	token   string
	seq     atomic.Int64
	console ConsoleLog
	logf    func(format string, args ...any)
	closed  atomic.Bool
}

// scope derives a chromedp context from the session that also honors the
// deadline and cancellation of ctx.
func (s *chromeSession) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	sctx, cancel := context.WithCancel(s.ctx)
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		sctx, cancelDeadline = context.WithDeadline(sctx, d)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return sctx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(sctx, chromedp.Navigate(url))
}

func (s *chromeSession) Reload(ctx context.Context) error {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(sctx, chromedp.Reload())
}

type resolveSpec struct {
	Kind    LocatorKind `json:"kind"`
	Role    string      `json:"role"`
	Name    string      `json:"name"`
	Text    string      `json:"text"`
	CSS     string      `json:"css"`
	HasText string      `json:"hasText"`
	Exact   bool        `json:"exact"`
	Nth     int         `json:"nth"`
	Unique  bool        `json:"unique"`
	Attr    string      `json:"attr"`
	Token   string      `json:"token"`
}

type resolution struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Error  string `json:"error"`
}

// resolve polls the page until loc resolves to a visible element and returns
// a CSS selector addressing that element.
func (s *chromeSession) resolve(ctx context.Context, loc Locator, unique bool) (string, error) {
	spec := resolveSpec{
		Kind:    loc.Kind,
		Role:    loc.Role,
		Name:    loc.Name,
		Text:    loc.Text,
		CSS:     loc.Selector,
		HasText: loc.HasText,
		Exact:   loc.Exact,
		Nth:     -1,
		Unique:  unique,
		Attr:    markAttr,
		Token:   fmt.Sprintf("%s-%d", s.token, s.seq.Add(1)),
	}
	if loc.Indexed {
		spec.Nth = loc.Nth
	}
	js, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	expr := fmt.Sprintf("(%s)(%s)", resolverJS, js)
	sel := fmt.Sprintf(`[%s="%s"]`, markAttr, spec.Token)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var res resolution
		var err error
		if loc.Kind == KindRole {
			res, err = resolveRole(ctx, loc, js)
		} else {
			err = chromedp.Evaluate(expr, &res).Do(ctx)
		}
		// Evaluation fails transiently while a navigation is in flight.
		if err == nil {
			switch res.Status {
			case "ok":
				return sel, nil
			case "ambiguous":
				return "", &AmbiguousLocatorError{Locator: loc, Count: res.Count}
			case "invalid":
				return "", fmt.Errorf("invalid selector in %s: %s", loc, res.Error)
			}
		}
		select {
		case <-ctx.Done():
			return "", &LocatorNotFoundError{Locator: loc}
		case <-ticker.C:
		}
	}
}

// resolveGroup holds the remote objects created while resolving a role
// locator. It is released after every attempt.
const resolveGroup = "questcheck-resolve"

// resolveRole finds the candidates of a role locator in Chrome's computed
// accessibility tree and lets resolverJS pick and mark one of them.
func resolveRole(ctx context.Context, loc Locator, spec []byte) (resolution, error) {
	defer runtime.ReleaseObjectGroup(resolveGroup).Do(ctx)

	doc, _, err := runtime.Evaluate("document").WithObjectGroup(resolveGroup).Do(ctx)
	if err != nil {
		return resolution{}, err
	}
	if doc.ObjectID == "" {
		return resolution{}, errors.New("document is not available")
	}
	nodes, err := accessibility.QueryAXTree().WithObjectID(doc.ObjectID).WithRole(loc.Role).Do(ctx)
	if err != nil {
		return resolution{}, err
	}

	args := []*runtime.CallArgument{{Value: spec}}
	for _, n := range nodes {
		if n.Ignored || n.BackendDOMNodeID == 0 {
			continue
		}
		if loc.Name != "" && !matchText(axString(n.Name), loc.Name, loc.Exact) {
			continue
		}
		obj, err := dom.ResolveNode().WithBackendNodeID(n.BackendDOMNodeID).WithObjectGroup(resolveGroup).Do(ctx)
		if err != nil {
			// The node was removed since the tree was computed.
			continue
		}
		args = append(args, &runtime.CallArgument{ObjectID: obj.ObjectID})
	}
	if len(args) == 1 {
		return resolution{Status: "none"}, nil
	}

	result, exc, err := runtime.CallFunctionOn(resolverJS).
		WithObjectID(args[1].ObjectID).
		WithArguments(args).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return resolution{}, err
	}
	if exc != nil {
		return resolution{}, exc
	}
	var res resolution
	if err := json.Unmarshal(result.Value, &res); err != nil {
		return resolution{}, fmt.Errorf("decoding resolver result: %w", err)
	}
	return res, nil
}

// axString returns the string form of an accessibility property value.
func axString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return ""
	}
	return s
}

// matchText compares an accessible name or visible text the way locators do:
// whitespace is collapsed, and a non-exact match is a case-insensitive
// substring match.
func matchText(actual, want string, exact bool) bool {
	actual = strings.Join(strings.Fields(actual), " ")
	want = strings.Join(strings.Fields(want), " ")
	if exact {
		return actual == want
	}
	return strings.Contains(strings.ToLower(actual), strings.ToLower(want))
}

func (s *chromeSession) Click(ctx context.Context, loc Locator) error {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(sctx, chromedp.ActionFunc(func(ctx context.Context) error {
		sel, err := s.resolve(ctx, loc, true)
		if err != nil {
			return err
		}
		if err := chromedp.Click(sel, chromedp.ByQuery).Do(ctx); err != nil {
			if ctx.Err() != nil {
				return &LocatorNotFoundError{Locator: loc, Detail: "element detached before click"}
			}
			return fmt.Errorf("click %s: %w", loc, err)
		}
		return nil
	}))
}

func (s *chromeSession) Select(ctx context.Context, loc Locator, value string) error {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(sctx, chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		last := "missing"
		for {
			sel, err := s.resolve(ctx, loc, true)
			if err != nil {
				var nf *LocatorNotFoundError
				if errors.As(err, &nf) && last == "no-option" {
					return &LocatorNotFoundError{Locator: loc, Detail: fmt.Sprintf("option %q", value)}
				}
				return err
			}
			args, _ := json.Marshal([]string{sel, value})
			expr := fmt.Sprintf("(%s)(...%s)", selectJS, args)
			if err := chromedp.Evaluate(expr, &last).Do(ctx); err != nil {
				last = "missing"
			}
			switch last {
			case "ok":
				return nil
			case "not-select":
				return fmt.Errorf("%s is not a <select> element", loc)
			}
			select {
			case <-ctx.Done():
				return &LocatorNotFoundError{Locator: loc, Detail: fmt.Sprintf("option %q", value)}
			case <-ticker.C:
			}
		}
	}))
}

func (s *chromeSession) WaitVisible(ctx context.Context, loc Locator) error {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(sctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := s.resolve(ctx, loc, false)
		return err
	}))
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(sctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *chromeSession) PageText(ctx context.Context) (string, error) {
	sctx, cancel := s.scope(ctx)
	defer cancel()
	var html string
	if err := chromedp.Run(sctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return TextSnapshot(html)
}

func (s *chromeSession) Console() iter.Seq[string] {
	return s.console.Lines()
}

func (s *chromeSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	return nil
}
