// Package fetcher retrieves and parses DR TV live-channel pages and the
// schedule API.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/drtvfeed/internal/config"
)

// Provider resolves DR TV data for a set of channel ids. It holds no per-call
// state, so one Provider can serve overlapping pipeline runs.
type Provider struct {
	client *Client
	cfg    config.Provider
	flags  config.ScheduleFlags
	log    logrus.FieldLogger
}

// NewProvider creates a Provider. log may be nil.
func NewProvider(client *Client, cfg config.Provider, flags config.ScheduleFlags, log logrus.FieldLogger) *Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provider{
		client: client,
		cfg:    cfg,
		flags:  flags,
		log:    log.WithField("component", "fetcher"),
	}
}

// fetchEmbedded downloads an HTML page and returns its embedded JSON payload.
func (p *Provider) fetchEmbedded(ctx context.Context, pageURL string) (json.RawMessage, error) {
	body, err := p.client.GetOK(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", pageURL, err)
	}
	raw, err := ExtractEmbeddedJSON(body)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	return raw, nil
}
