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
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/ttbt-io/questcheck/runner"
)

var (
	reportDir = flag.String("report-dir", "reports", "Directory where questcheck stored its run reports")
	diff      = flag.Bool("diff", false, "Print a unified diff of the final page text of two reports")
)

// main prints stored run reports. Each argument is either scenario/run-id or
// a scenario name, which selects its latest report.
func main() {
	flag.Parse()
	store, err := runner.OpenReportStore(*reportDir, os.Getenv("QUESTCHECK_MASTER_KEY"), false)
	if err != nil {
		log.Fatalf("Failed to open reports: %v", err)
	}

	if *diff {
		if flag.NArg() != 2 {
			log.Fatal("-diff needs exactly two reports")
		}
		a, err := load(store, flag.Arg(0))
		if err != nil {
			log.Fatalf("%s: %v", flag.Arg(0), err)
		}
		b, err := load(store, flag.Arg(1))
		if err != nil {
			log.Fatalf("%s: %v", flag.Arg(1), err)
		}
		out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(a.PageText),
			B:        difflib.SplitLines(b.PageText),
			FromFile: a.Scenario + "/" + a.RunID,
			ToFile:   b.Scenario + "/" + b.RunID,
			Context:  3,
		})
		if err != nil {
			log.Fatalf("diff: %v", err)
		}
		fmt.Print(out)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, arg := range flag.Args() {
		r, err := load(store, arg)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		fmt.Printf("=========== %s/%s ===========\n", r.Scenario, r.RunID)
		if err := enc.Encode(r); err != nil {
			log.Printf("JSON: %s: %v", arg, err)
		}
	}
}

func load(store *runner.ReportStore, arg string) (*runner.Report, error) {
	scenario, runID, ok := strings.Cut(arg, "/")
	if !ok {
		return store.Latest(scenario)
	}
	return store.Load(scenario, runID)
}
