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
	"errors"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
)

// Step statuses recorded in a Report.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusWarning = "warning" // the step ran but a side effect failed
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Index      int    `json:"index"`
	Step       string `json:"step"`
	Status     string `json:"status"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
}

// Report records one scenario run. Steps after the failing one are not
// listed.
type Report struct {
	RunID      string       `json:"runId"`
	Scenario   string       `json:"scenario"`
	BaseURL    string       `json:"baseUrl,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Passed     bool         `json:"passed"`
	Error      string       `json:"error,omitempty"`
	Steps      []StepResult `json:"steps"`
	Console    []string     `json:"console,omitempty"`
	// PageText is the rendered text of the page when the run ended.
	PageText string `json:"pageText,omitempty"`
}

// FailedStep returns the failing step, if any.
func (r *Report) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return StepResult{}, false
}

// ReportStore persists run reports.
type ReportStore struct {
	DataDir string
	storage *storage.Storage
	mu      sync.Map // Stores *sync.Mutex for each scenario to protect writes
}

// NewReportStore creates a new ReportStore.
func NewReportStore(dataDir string, s *storage.Storage) *ReportStore {
	return &ReportStore{
		DataDir: dataDir,
		storage: s,
	}
}

// MasterKeyFile is the encrypted master key of a report directory.
const MasterKeyFile = "master.key"

// OpenReportStore opens the reports in dir. With a passphrase, reports are
// encrypted with the master key in dir/master.key, which is created when
// create is set and the file is missing. Without a passphrase, reports are
// stored unencrypted and a directory holding a master key is refused.
func OpenReportStore(dir, passphrase string, create bool) (*ReportStore, error) {
	keyFile := filepath.Join(dir, MasterKeyFile)
	var masterKey crypto.MasterKey
	if passphrase != "" {
		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		switch {
		case err == nil:
			log.Println("Loaded master encryption key.")
		case os.IsNotExist(err) && create:
			log.Println("Initializing new master encryption key...")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating report dir: %w", err)
			}
			if masterKey, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("failed to create master key: %w", err)
			}
			if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("failed to save master key: %w", err)
			}
		default:
			return nil, fmt.Errorf("failed to read master key: %w", err)
		}
	} else {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but no passphrase was given; refusing to use encrypted reports unencrypted", keyFile)
		}
		log.Println("Warning: No master key passphrase provided. Reports will be stored UNENCRYPTED.")
	}
	return NewReportStore(dir, storage.New(dir, masterKey)), nil
}

func reportFilename(scenario, runID string) string {
	return filepath.Join("reports", url.PathEscape(scenario), fmt.Sprintf("%s.json", url.PathEscape(runID)))
}

// Save writes the report atomically.
func (rs *ReportStore) Save(r *Report) error {
	if r.RunID == "" || r.Scenario == "" {
		return fmt.Errorf("report needs a run id and a scenario")
	}
	m, _ := rs.mu.LoadOrStore(r.Scenario, &sync.Mutex{})
	mutex := m.(*sync.Mutex)

	mutex.Lock()
	defer mutex.Unlock()

	if err := rs.storage.SaveDataFile(reportFilename(r.Scenario, r.RunID), r); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}

// Load reads one report.
func (rs *ReportStore) Load(scenario, runID string) (*Report, error) {
	var r Report
	if err := rs.storage.ReadDataFile(reportFilename(scenario, runID), &r); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &r, nil
}

// List returns an iterator over all reports of a scenario.
func (rs *ReportStore) List(scenario string) iter.Seq2[*Report, error] {
	return func(yield func(*Report, error) bool) {
		dir := filepath.Join(rs.DataDir, "reports", url.PathEscape(scenario))
		files, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				yield(nil, fmt.Errorf("could not read reports directory: %w", err))
			}
			return
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			runID, err := url.PathUnescape(strings.TrimSuffix(file.Name(), ".json"))
			if err != nil {
				continue
			}
			r, err := rs.Load(scenario, runID)
			if err != nil {
				log.Printf("Warning: could not load report '%s/%s': %v", scenario, runID, err)
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Latest returns the most recently started report of a scenario.
func (rs *ReportStore) Latest(scenario string) (*Report, error) {
	var latest *Report
	for r, err := range rs.List(scenario) {
		if err != nil {
			return nil, err
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, os.ErrNotExist
	}
	return latest, nil
}
