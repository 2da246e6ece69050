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
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// BrowserVersion is the reply of the DevTools /json/version endpoint.
type BrowserVersion struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Preflight checks that a remote DevTools endpoint accepts connections
// before any scenario runs. chromeURL is either the http url of the remote
// debugging port or a ws:// debugger url.
func Preflight(ctx context.Context, chromeURL string, timeout time.Duration) (*BrowserVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := url.Parse(chromeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	version := &BrowserVersion{WebSocketDebuggerURL: chromeURL}
	if u.Scheme == "http" || u.Scheme == "https" {
		version, err = fetchVersion(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, version.WebSocketDebuggerURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial %s: %v (HTTP %d)", ErrBrowserUnavailable, version.WebSocketDebuggerURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", ErrBrowserUnavailable, version.WebSocketDebuggerURL, err)
	}
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.Close()
	return version, nil
}

func fetchVersion(ctx context.Context, base *url.URL) (*BrowserVersion, error) {
	endpoint := base.JoinPath("json", "version")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", endpoint, resp.Status)
	}
	var v BrowserVersion
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	if v.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("%s has no webSocketDebuggerUrl", endpoint)
	}
	// Chrome reports its own listen address, which is wrong behind a proxy
	// or a port mapping.
	if ws, err := url.Parse(v.WebSocketDebuggerURL); err == nil && !strings.EqualFold(ws.Host, base.Host) {
		ws.Host = base.Host
		v.WebSocketDebuggerURL = ws.String()
	}
	return &v, nil
}
