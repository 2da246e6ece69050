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

package e2e

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"
)

var (
	//go:embed testdata/questrack.html
	questrackHTML string
	//go:embed testdata/login.html
	loginHTML string
)

// fixtureApp selects which build of the Questrack app the test server
// serves.
type fixtureApp struct {
	// items is the length of every school's checklist.
	items int
	login bool
}

var (
	// fullDataApp carries the complete Amherst data set with five optional
	// supplements.
	fullDataApp = fixtureApp{items: 5}
	// localStorageApp has a two item checklist.
	localStorageApp = fixtureApp{items: 2}
	loginApp        = fixtureApp{login: true}
)

func (a fixtureApp) handler() http.Handler {
	page := loginHTML
	if !a.login {
		page = strings.Replace(questrackHTML, "{{ITEMS}}", strconv.Itoa(a.items), 1)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(page))
	})
	return mux
}
