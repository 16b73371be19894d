package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EmbeddedMarker precedes the hydration payload DR TV inlines in its pages.
const EmbeddedMarker = "window.__data ="

var (
	// ErrMarkerNotFound is returned when no script block carries EmbeddedMarker.
	ErrMarkerNotFound = errors.New("embedded data marker not found")
	// ErrInvalidEmbeddedJSON is returned when the text after the marker is not JSON.
	ErrInvalidEmbeddedJSON = errors.New("embedded data is not valid JSON")
)

// ExtractEmbeddedJSON returns the JSON assigned after EmbeddedMarker in the first
// script block that contains it. The payload runs to the end of that script block;
// surrounding whitespace and one trailing ';' are dropped.
func ExtractEmbeddedJSON(doc []byte) (json.RawMessage, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var payload string
	found := false
	d.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		i := strings.Index(text, EmbeddedMarker)
		if i < 0 {
			return true
		}
		payload = text[i+len(EmbeddedMarker):]
		found = true
		return false
	})
	if !found {
		return nil, ErrMarkerNotFound
	}

	raw := strings.TrimSpace(payload)
	raw = strings.TrimSuffix(raw, ";")
	if !json.Valid([]byte(raw)) {
		return nil, ErrInvalidEmbeddedJSON
	}
	return json.RawMessage(raw), nil
}
