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

func TestTextSnapshot(t *testing.T) {
	html := `<html><head><title>Questrack</title><style>body{}</style></head>
<body>
  <nav><a href="#/">Questrack</a> <a href="#/my-schools">My Schools</a></nav>
  <main>
    <h1>Amherst College</h1>
    <p>Founded in 1821,
       Amherst College is widely considered one of the best.</p>
    <div class="progress"><span>20%</span> <span>Complete</span></div>
    <script>console.log("hidden")</script>
    <div hidden>Hidden modal</div>
    <div style="display: none">Also hidden</div>
    <ul><li>Supplemental Essay (Option A)<br>Option A, Prompt 1</li></ul>
    <select><option>Not Started</option><option>Completed</option></select>
    <table><tr><td>Amherst</td><td>20%</td></tr></table>
  </main>
</body></html>`

	got, err := TextSnapshot(html)
	if err != nil {
		t.Fatalf("TextSnapshot: %v", err)
	}
	want := "Questrack My Schools\n" +
		"Amherst College\n" +
		"Founded in 1821, Amherst College is widely considered one of the best.\n" +
		"20% Complete\n" +
		"Supplemental Essay (Option A)\n" +
		"Option A, Prompt 1\n" +
		"Amherst 20%"
	if got != want {
		t.Errorf("TextSnapshot =\n%s\nwant\n%s", got, want)
	}
}

func TestTextSnapshotWithoutBody(t *testing.T) {
	got, err := TextSnapshot("plain <b>text</b>")
	if err != nil {
		t.Fatalf("TextSnapshot: %v", err)
	}
	if got != "plain text" {
		t.Errorf("TextSnapshot = %q, want %q", got, "plain text")
	}
}
