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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ttbt-io/questcheck/questrack"
	"github.com/ttbt-io/questcheck/runner"
)

// masterKeyEnv holds the passphrase of the report encryption key.
const masterKeyEnv = "QUESTCHECK_MASTER_KEY"

var (
	scenariosFile = flag.String("scenarios", "", "YAML file with scenario definitions. The built-in Questrack scenarios are used when empty.")
	runNames      = flag.String("run", "", "Comma separated names of the scenarios to run. All scenarios run when empty.")
	baseURL       = flag.String("base-url", "", "Override the base URL of every scenario")
	chromeURL     = flag.String("chrome-url", "", "The url of the remote debugging port. A local browser is started when empty.")
	driver        = flag.String("driver", "chromedp", "Browser driver: chromedp or playwright")
	headless      = flag.Bool("headless", true, "Run the local browser headless")
	install       = flag.Bool("install-playwright", false, "Install the Playwright driver and browsers before running")
	outputDir     = flag.String("output-dir", "verification", "Directory to save screenshots")
	reportDir     = flag.String("report-dir", "", "Directory to store run reports. Reports are not stored when empty.")
	parallel      = flag.Int("parallel", 1, "Number of scenarios to run concurrently")
	runTimeout    = flag.Duration("timeout", 3*time.Minute, "Timeout for a whole scenario run")
	navTimeout    = flag.Duration("navigation-timeout", runner.DefaultTimeouts.Navigation, "Timeout for navigations and reloads")
	actionTimeout = flag.Duration("action-timeout", runner.DefaultTimeouts.Action, "Timeout for clicks, selects and screenshots")
	assertTimeout = flag.Duration("assert-timeout", runner.DefaultTimeouts.Assert, "Timeout for visibility assertions")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run executes the selected scenarios and returns the exit code: 0 when all
// passed, 1 when any failed, 2 on configuration or browser errors.
func run() int {
	scenarios, err := selectScenarios()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser, err := newBrowser(ctx)
	if err != nil {
		log.Printf("Browser error: %v", err)
		return 2
	}

	r := &runner.Runner{
		Browser:   browser,
		OutputDir: *outputDir,
		Timeouts: runner.Timeouts{
			Navigation: *navTimeout,
			Action:     *actionTimeout,
			Assert:     *assertTimeout,
		},
	}
	if *reportDir != "" {
		if err := os.MkdirAll(*reportDir, 0755); err != nil {
			log.Printf("Failed to create report dir: %v", err)
			return 2
		}
		reports, err := runner.OpenReportStore(*reportDir, os.Getenv(masterKeyEnv), true)
		if err != nil {
			log.Printf("Configuration error: %v", err)
			return 2
		}
		r.Reports = reports
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Printf("Failed to create output dir: %v", err)
		return 2
	}

	var mu sync.Mutex
	var failures []error

	g := new(errgroup.Group)
	g.SetLimit(max(*parallel, 1))
	for _, sc := range scenarios {
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(ctx, *runTimeout)
			defer cancel()
			rep, err := r.Run(runCtx, sc)
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			log.Printf("PASS %s (%d steps, run %s)", sc.Name(), len(rep.Steps), rep.RunID)
			return nil
		})
	}
	g.Wait()

	if len(failures) > 0 {
		for _, err := range failures {
			log.Printf("FAIL %v", err)
		}
		return 1
	}
	log.Printf("All %d scenarios passed. Screenshots in %s", len(scenarios), *outputDir)
	return 0
}

// selectScenarios loads the scenarios and applies -run and -base-url.
func selectScenarios() ([]*runner.Scenario, error) {
	scenarios := questrack.All()
	if *scenariosFile != "" {
		loaded, err := runner.LoadScenarioFile(filepath.Clean(*scenariosFile))
		if err != nil {
			return nil, err
		}
		scenarios = loaded
	}

	if *runNames != "" {
		var picked []*runner.Scenario
		for _, name := range strings.Split(*runNames, ",") {
			name = strings.TrimSpace(name)
			i := slices.IndexFunc(scenarios, func(sc *runner.Scenario) bool { return sc.Name() == name })
			if i < 0 {
				return nil, fmt.Errorf("unknown scenario %q", name)
			}
			picked = append(picked, scenarios[i])
		}
		scenarios = picked
	}

	if *baseURL != "" {
		return questrack.WithBaseURL(scenarios, *baseURL)
	}
	return scenarios, nil
}

func newBrowser(ctx context.Context) (runner.Browser, error) {
	switch *driver {
	case "chromedp":
		if *chromeURL != "" {
			v, err := runner.Preflight(ctx, *chromeURL, 10*time.Second)
			if err != nil {
				return nil, err
			}
			log.Printf("Connected to %s at %s", v.Browser, v.WebSocketDebuggerURL)
		}
		return &runner.ChromeBrowser{
			RemoteURL: *chromeURL,
			Headless:  *headless,
			Logf:      log.Printf,
		}, nil
	case "playwright":
		if *chromeURL != "" {
			return nil, fmt.Errorf("-chrome-url is only supported by the chromedp driver")
		}
		return &runner.PlaywrightBrowser{
			Headless: *headless,
			Install:  *install,
			Logf:     log.Printf,
		}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", *driver)
}
