// Package testutil provides a fake DR TV origin for pipeline tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/voyagen/drtvfeed/internal/config"
)

// Sample payloads. Channel 20892 is deliberately absent from the live page
// but present in the schedule.
const (
	FrontPageJSON = `{"app":{"config":{
		"linear":{"channelsLogo":[
			{"url":"https://img.test/logo?Width=50&Height=50&EntityId='20875'"},
			{"url":"https://img.test/logo?Width=60&Height=60&EntityId=20876"},
			{"url":null}
		]},
		"navigation":{"header":[
			{"label":"FORSIDE","path":"/"},
			{"label":"LIVE","path":"/kanaler"},
			{"label":"LIVE","path":"/other"}
		]}}}}`

	LivePageJSON = `{"cache":{"list":{
		"list-a":{"list":{"items":[
			{"id":"20875","title":"DR1",
			 "customFields":{"hlsURL":"https://stream.test/dr1/master.m3u8","hlsAlternativeURL":"https://stream.test/dr1/alt.m3u8","hlsWithSubtitlesURL":"https://stream.test/dr1/sub.m3u8","dashURL":"https://stream.test/dr1/manifest.mpd"},
			 "images":{"logo":"https://img.test/item/dr1?Width=10&Height=10","wallpaper":"https://img.test/wall/dr1?Width=1920&Height=1080"}},
			{"id":99999,"title":"Not wanted","customFields":{"hlsURL":"https://stream.test/x.m3u8"}}
		]}},
		"broken":"not a list",
		"list-b":{"list":{"items":[
			{"id":20876,"title":"DR2","customFields":{"hlsURL":"https://stream.test/dr2/master.m3u8"},"images":{"logo":"https://img.test/item/dr2?Width=10&Height=10"}},
			{"id":"192099","title":"DR Ramasjang","customFields":{},"images":{"logo":"https://img.test/item/ramasjang?Width=10&Height=10"}},
			"garbage"
		]}}
	}}}`

	ScheduleJSON = `[
		{"channelId":"20875","schedules":[
			{"startDate":"2024-01-01T20:00:00","endDate":"2024-01-01T20:30:00",
			 "item":{"title":"Nyheder","shortDescription":"Dagens nyheder","description":"Lang beskrivelse",
			         "images":{"wallpaper":"https://img.test/prog/nyheder?Width=50&Height=50&EntityId=20875","tile":"https://img.test/tile/nyheder?Width=1&Height=1"}}},
			{"startDate":"2024-01-01T20:30:00","endDate":"2024-01-01T21:00:00","item":{"title":"Later"}}
		]},
		{"channelId":20876,"schedules":[]},
		{"channelId":"192099","schedules":[
			{"startDate":"2024-01-01T20:05:00","endDate":"2024-01-01T20:25:00",
			 "item":{"title":"Bamse","description":"Full only","images":{},"primaryImage":"https://img.test/prim/bamse?Width=400&Height=300"}}
		]},
		{"channelId":"20892","schedules":[{"startDate":"2024-01-01T20:00:00","endDate":"2024-01-01T21:00:00","item":{"title":"Ghost"}}]}
	]`
)

// TargetIDs is the id list the sample payloads are built around.
var TargetIDs = []string{"20875", "20876", "192099", "20892"}

// HTMLPage wraps payload the way DR TV inlines its hydration data.
func HTMLPage(payload string) string {
	return `<!DOCTYPE html><html><head><title>DRTV</title>
<script>window.dataLayer = [];</script>
<script>window.__data = ` + payload + `;</script>
</head><body><div id="root"></div></body></html>`
}

// FakeDRTV serves a front page at /drtv/, the live page at /drtv/kanaler and
// the schedule API at /api/schedules.
type FakeDRTV struct {
	Server *httptest.Server

	mu             sync.Mutex
	frontPage      string
	livePage       string
	scheduleStatus int
	scheduleBody   string
	queries        []url.Values
	hits           map[string]int
}

// NewFakeDRTV starts a fake origin serving the sample payloads. It is closed
// when the test ends.
func NewFakeDRTV(t testing.TB) *FakeDRTV {
	t.Helper()
	f := &FakeDRTV{
		frontPage:      HTMLPage(FrontPageJSON),
		livePage:       HTMLPage(LivePageJSON),
		scheduleStatus: http.StatusOK,
		scheduleBody:   ScheduleJSON,
		hits:           map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/drtv/", f.serveFront)
	mux.HandleFunc("/drtv/kanaler", f.serveLive)
	mux.HandleFunc("/api/schedules", f.serveSchedule)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the provider base URL to configure.
func (f *FakeDRTV) BaseURL() string { return f.Server.URL + "/drtv" }

// ScheduleURL is the schedule endpoint to configure.
func (f *FakeDRTV) ScheduleURL() string { return f.Server.URL + "/api/schedules" }

// ProviderConfig returns provider settings pointing at the fake, in UTC and
// without rate limiting.
func (f *FakeDRTV) ProviderConfig() config.Provider {
	p := config.Default().Provider
	p.BaseURL = f.BaseURL()
	p.ScheduleURL = f.ScheduleURL()
	p.ChannelIDs = append([]string(nil), TargetIDs...)
	p.Timeout = 5 * time.Second
	p.RateLimit = 0
	p.Location = time.UTC
	return p
}

// SetFrontPage replaces the front page HTML.
func (f *FakeDRTV) SetFrontPage(html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frontPage = html
}

// SetLivePage replaces the live page HTML.
func (f *FakeDRTV) SetLivePage(html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.livePage = html
}

// SetSchedule replaces the schedule response.
func (f *FakeDRTV) SetSchedule(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduleStatus = status
	f.scheduleBody = body
}

// ScheduleQueries returns the query strings the schedule endpoint received.
func (f *FakeDRTV) ScheduleQueries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.queries...)
}

// Hits returns how often path was requested.
func (f *FakeDRTV) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *FakeDRTV) serveFront(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body := f.frontPage
	f.mu.Unlock()
	if r.URL.Path != "/drtv/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (f *FakeDRTV) serveLive(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body := f.livePage
	f.mu.Unlock()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (f *FakeDRTV) serveSchedule(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.queries = append(f.queries, r.URL.Query())
	status, body := f.scheduleStatus, f.scheduleBody
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
