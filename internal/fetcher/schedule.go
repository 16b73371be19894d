package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/drtvfeed/internal/models"
)

// Schedule is the schedule API's contribution to a pipeline run.
type Schedule struct {
	Entries []models.ScheduleEntry
	// Params is the exact query sent, attached to merged records for debugging.
	Params map[string]string
}

// ScheduleQuery builds the schedule query for ids over the window starting at
// the hour of now, in the provider's time zone.
func (p *Provider) ScheduleQuery(ids []string, now time.Time) url.Values {
	if p.cfg.Location != nil {
		now = now.In(p.cfg.Location)
	}
	q := url.Values{}
	q.Set("channels", strings.Join(ids, ","))
	q.Set("date", now.Format("2006-01-02"))
	q.Set("hour", strconv.Itoa(now.Hour()))
	q.Set("duration", p.flags.Duration)
	q.Set("intersect", p.flags.Intersect)
	q.Set("device", p.flags.Device)
	q.Set("lang", p.flags.Lang)
	q.Set("ff", p.flags.FF)
	q.Set("segments", p.flags.Segments)
	q.Set("sub", p.flags.Sub)
	return q
}

// FetchSchedule queries the schedule API once. A non-200 status is logged and
// reported as a failed phase with no entries.
func (p *Provider) FetchSchedule(ctx context.Context, ids []string, now time.Time) Result[Schedule] {
	q := p.ScheduleQuery(ids, now)
	out := Schedule{Params: flatten(q)}

	resp, err := p.client.Get(ctx, p.cfg.ScheduleURL, q)
	if err != nil {
		return Failed(out, fmt.Errorf("GET schedule: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		p.log.WithField("status", resp.StatusCode).Warn("schedule API error")
		return Failed(out, fmt.Errorf("schedule: %w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return Failed(out, fmt.Errorf("decode schedule: %w", err))
	}
	for _, r := range raw {
		var entry models.ScheduleEntry
		if err := json.Unmarshal(r, &entry); err != nil {
			p.log.WithError(err).Debug("skipping undecodable schedule entry")
			continue
		}
		out.Entries = append(out.Entries, entry)
	}

	if len(out.Entries) == 0 {
		return Empty(out)
	}
	return OK(out)
}

func flatten(q url.Values) map[string]string {
	m := make(map[string]string, len(q))
	for k := range q {
		m[k] = q.Get(k)
	}
	return m
}
