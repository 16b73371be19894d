package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voyagen/drtvfeed/internal/models"
)

// LiveChannels is what the live-channels page contributes to a pipeline run.
type LiveChannels struct {
	Records models.Channels
	// Names maps channel id to display name; the merge step joins on it.
	Names map[string]string
}

type livePayload struct {
	Cache struct {
		List orderedLists `json:"list"`
	} `json:"cache"`
}

// orderedLists decodes the cache.list object into its values in document
// order. Go maps would randomise the order and break last-write-wins.
type orderedLists []json.RawMessage

func (o *orderedLists) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cache.list: expected object, got %v", tok)
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*o = append(*o, v)
	}
	_, err = dec.Token()
	return err
}

type liveList struct {
	List struct {
		Items []json.RawMessage `json:"items"`
	} `json:"list"`
}

type liveItem struct {
	ID           models.FlexID     `json:"id"`
	Title        *string           `json:"title"`
	CustomFields liveCustomFields  `json:"customFields"`
	Images       models.ItemImages `json:"images"`
}

type liveCustomFields struct {
	HLSURL              string `json:"hlsURL"`
	HLSAlternativeURL   string `json:"hlsAlternativeURL"`
	HLSWithSubtitlesURL string `json:"hlsWithSubtitlesURL"`
	DASHURL             string `json:"dashURL"`
}

// ResolveLiveChannels fetches the live-channels page at livePath and builds an
// initial record for every item whose id is in ids. logos takes precedence over
// the item's own logo. Lists or items that do not decode are skipped.
func (p *Provider) ResolveLiveChannels(ctx context.Context, livePath string, logos map[string]string, ids []string) Result[LiveChannels] {
	out := LiveChannels{Records: models.Channels{}, Names: map[string]string{}}

	raw, err := p.fetchEmbedded(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+livePath)
	if err != nil {
		return Failed(out, err)
	}
	var payload livePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Failed(out, fmt.Errorf("decode live page: %w", err))
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	for i, rawList := range payload.Cache.List {
		var list liveList
		if err := json.Unmarshal(rawList, &list); err != nil {
			p.log.WithError(err).WithField("list", i).Debug("skipping undecodable live list")
			continue
		}
		for _, rawItem := range list.List.Items {
			var item liveItem
			if err := json.Unmarshal(rawItem, &item); err != nil {
				continue
			}
			id := item.ID.String()
			if !wanted[id] {
				continue
			}
			// only an absent title falls back; "" is kept as the name
			name := "Channel " + id
			if item.Title != nil {
				name = *item.Title
			}
			out.Names[id] = name
			out.Records[name] = newRecord(id, item, logos)
		}
	}

	if len(out.Records) == 0 {
		return Empty(out)
	}
	return OK(out)
}

func newRecord(id string, item liveItem, logos map[string]string) *models.ChannelRecord {
	rec := models.NewChannelRecord(id)

	logo := logos[id]
	if logo == "" {
		logo = ResizeSquare(item.Images.Logo, DefaultImageWidth)
	}
	rec.Logo = models.StringPtr(logo)
	rec.Poster = models.StringPtr(ResizeSquare(item.Images.Wallpaper, DefaultImageWidth))

	cf := item.CustomFields
	rec.Streams = models.Streams{
		HLSPrimary:   models.StringPtr(cf.HLSURL),
		HLSAlt:       models.StringPtr(cf.HLSAlternativeURL),
		HLSSubtitles: models.StringPtr(cf.HLSWithSubtitlesURL),
		DASHPrimary:  models.StringPtr(cf.DASHURL),
	}
	rec.PrimaryStream = models.StringPtr(cf.HLSURL)
	return rec
}
