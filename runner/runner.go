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
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// diagnosticTimeout bounds the page text and console capture done after a
// step failed or the run ended.
const diagnosticTimeout = 5 * time.Second

// Runner executes scenarios, each against its own Session.
type Runner struct {
	Browser Browser
	// OutputDir receives screenshots, one sub-directory per scenario.
	OutputDir string
	Timeouts  Timeouts
	// Reports, if set, receives one report per run.
	Reports *ReportStore
	Logger  Logger
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Logf(format, args...)
		return
	}
	stdLogger.Logf(format, args...)
}

// Run executes the steps of sc in order and stops at the first failure. The
// session is closed on every path. The returned report is never nil; the
// error is a *StepError naming the failing step.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	rep := &Report{
		RunID:     uuid.NewString(),
		Scenario:  sc.Name(),
		BaseURL:   sc.BaseURL(),
		StartedAt: time.Now(),
		Steps:     make([]StepResult, 0, sc.Len()),
	}
	r.logf("SCENARIO %s: starting run %s", rep.Scenario, rep.RunID)

	err := r.run(ctx, sc, rep)

	rep.FinishedAt = time.Now()
	rep.Passed = err == nil
	if err != nil {
		rep.Error = err.Error()
		r.logf("SCENARIO %s: FAILED: %v", rep.Scenario, err)
	} else {
		r.logf("SCENARIO %s: passed %d steps in %s", rep.Scenario, len(rep.Steps), rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	}
	if r.Reports != nil {
		if serr := r.Reports.Save(rep); serr != nil {
			r.logf("SCENARIO %s: could not save report: %v", rep.Scenario, serr)
		}
	}
	return rep, err
}

func (r *Runner) run(ctx context.Context, sc *Scenario, rep *Report) error {
	session, err := r.Browser.NewSession(ctx)
	if err != nil {
		return &StepError{Scenario: sc.Name(), Index: -1, Step: "open session", Err: err}
	}
	defer func() {
		r.collect(ctx, session, rep)
		if err := session.Close(); err != nil {
			r.logf("SCENARIO %s: closing session: %v", sc.Name(), err)
		}
	}()

	for i, step := range sc.Steps() {
		if err := ctx.Err(); err != nil {
			return &StepError{Scenario: sc.Name(), Index: i, Step: step.Describe(), Err: err}
		}
		r.logf("STEP %s #%d: %s", sc.Name(), i+1, step.Describe())
		res := StepResult{Index: i, Step: step.Describe(), Status: StatusPassed}
		start := time.Now()
		err := r.runStep(ctx, session, sc, step, &res)
		res.DurationMS = time.Since(start).Milliseconds()
		if err != nil {
			res.Status = StatusFailed
			res.Error = err.Error()
			rep.Steps = append(rep.Steps, res)
			return &StepError{Scenario: sc.Name(), Index: i, Step: step.Describe(), Err: err}
		}
		rep.Steps = append(rep.Steps, res)
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, session Session, sc *Scenario, step Step, res *StepResult) error {
	t := r.Timeouts.withDefaults()

	switch s := step.(type) {
	case Navigate:
		target, err := sc.Resolve(s.URL)
		if err != nil {
			return &NavigationError{URL: s.URL, Err: err}
		}
		stepCtx, cancel := context.WithTimeout(ctx, t.Navigation)
		defer cancel()
		if err := session.Navigate(stepCtx, target); err != nil {
			return &NavigationError{URL: target, Err: err}
		}
		return nil

	case ClickByRole:
		return r.click(ctx, session, s.Target, t.Action)

	case ClickByText:
		return r.click(ctx, session, s.Target, t.Action)

	case SelectOption:
		stepCtx, cancel := context.WithTimeout(ctx, t.Action)
		defer cancel()
		return withTimeout(session.Select(stepCtx, s.Target, s.Value), t.Action)

	case AssertVisible:
		stepCtx, cancel := context.WithTimeout(ctx, t.Assert)
		defer cancel()
		err := session.WaitVisible(stepCtx, s.Target)
		if err == nil {
			return nil
		}
		return &AssertionFailure{
			Locator:  s.Target,
			PageText: r.pageText(ctx, session),
			Err:      withTimeout(err, t.Assert),
		}

	case Reload:
		stepCtx, cancel := context.WithTimeout(ctx, t.Navigation)
		defer cancel()
		if err := session.Reload(stepCtx); err != nil {
			return &NavigationError{URL: "(reload)", Err: err}
		}
		return nil

	case Screenshot:
		path := filepath.Join(r.OutputDir, sc.Name(), s.Path)
		if err := r.screenshot(ctx, session, path, t.Action); err != nil {
			// Screenshots are diagnostics; failing to write one never
			// fails the scenario.
			r.logf("STEP %s: screenshot %s: %v", sc.Name(), path, err)
			res.Status = StatusWarning
			res.Error = err.Error()
			return nil
		}
		res.Screenshot = path
		return nil
	}
	return fmt.Errorf("unsupported step type %T", step)
}

func (r *Runner) click(ctx context.Context, session Session, loc Locator, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return withTimeout(session.Click(stepCtx, loc), timeout)
}

// screenshot captures the page and saves it to filename.
func (r *Runner) screenshot(ctx context.Context, session Session, filename string, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	buf, err := session.Screenshot(stepCtx)
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for screenshot: %w", err)
	}
	if err := os.WriteFile(filename, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot to file: %w", err)
	}
	r.logf("Saved screenshot to %s", filename)
	return nil
}

// pageText returns the rendered text of the page, or "" if it could not be
// read.
func (r *Runner) pageText(ctx context.Context, session Session) string {
	diagCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnosticTimeout)
	defer cancel()
	text, err := session.PageText(diagCtx)
	if err != nil {
		r.logf("could not capture page text: %v", err)
		return ""
	}
	return text
}

// collect copies the console lines and the final page text into rep.
func (r *Runner) collect(ctx context.Context, session Session, rep *Report) {
	rep.Console = slices.Collect(session.Console())
	rep.PageText = r.pageText(ctx, session)
}

// withTimeout records the wait that expired on a LocatorNotFoundError.
func withTimeout(err error, timeout time.Duration) error {
	var nf *LocatorNotFoundError
	if errors.As(err, &nf) && nf.Timeout == 0 {
		nf.Timeout = timeout
	}
	return err
}
