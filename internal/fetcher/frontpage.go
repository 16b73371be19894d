package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LiveLabel is the navigation label of the live-channels page.
const LiveLabel = "LIVE"

// FrontPage is what the landing page contributes to a pipeline run.
type FrontPage struct {
	// Logos maps channel id to a square logo URL.
	Logos map[string]string
	// LivePath is the site-relative path of the live-channels page, "" when absent.
	LivePath string
}

type frontPayload struct {
	App struct {
		Config struct {
			Linear struct {
				ChannelsLogo []struct {
					URL string `json:"url"`
				} `json:"channelsLogo"`
			} `json:"linear"`
			Navigation struct {
				Header []struct {
					Label string `json:"label"`
					Path  string `json:"path"`
				} `json:"header"`
			} `json:"navigation"`
		} `json:"config"`
	} `json:"app"`
}

// ResolveFrontPage fetches the landing page and extracts the global logo map and
// the live navigation path. On failure the returned FrontPage is empty.
func (p *Provider) ResolveFrontPage(ctx context.Context, ids []string) Result[FrontPage] {
	fp := FrontPage{Logos: map[string]string{}}

	raw, err := p.fetchEmbedded(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/")
	if err != nil {
		return Failed(fp, err)
	}
	var payload frontPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Failed(fp, fmt.Errorf("decode front page: %w", err))
	}

	for _, entry := range payload.App.Config.Linear.ChannelsLogo {
		for _, id := range ids {
			if logoMatches(entry.URL, id) {
				fp.Logos[id] = ResizeSquare(entry.URL, DefaultImageWidth)
			}
		}
	}
	for _, item := range payload.App.Config.Navigation.Header {
		if item.Label == LiveLabel {
			fp.LivePath = item.Path
			break
		}
	}

	if fp.LivePath == "" {
		return Empty(fp)
	}
	return OK(fp)
}

// logoMatches reports whether a logo URL names id in either encoding the
// provider uses: EntityId='20875' or EntityId=20875.
func logoMatches(u, id string) bool {
	return strings.Contains(u, "EntityId='"+id+"'") || strings.Contains(u, "EntityId="+id)
}
