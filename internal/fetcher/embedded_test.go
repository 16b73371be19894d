package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/drtvfeed/internal/testutil"
)

func TestExtractEmbeddedJSON_Fixtures(t *testing.T) {
	for _, payload := range []string{testutil.FrontPageJSON, testutil.LivePageJSON, `{"a":[1,2,{"b":null}]}`} {
		raw, err := ExtractEmbeddedJSON([]byte(testutil.HTMLPage(payload)))
		require.NoError(t, err)
		assert.JSONEq(t, payload, string(raw))
	}
}

func TestExtractEmbeddedJSON_NoSemicolon(t *testing.T) {
	doc := `<html><script>
		window.__data = {"x": 1}
	</script></html>`
	raw, err := ExtractEmbeddedJSON([]byte(doc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(raw))
}

func TestExtractEmbeddedJSON_FirstMatchingScript(t *testing.T) {
	doc := `<html><head>
		<script src="/app.js"></script>
		<script>var other = 1;</script>
		<script>window.__data = {"first": true};</script>
		<script>window.__data = {"second": true};</script>
	</head></html>`
	raw, err := ExtractEmbeddedJSON([]byte(doc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"first":true}`, string(raw))
}

func TestExtractEmbeddedJSON_MarkerMissing(t *testing.T) {
	_, err := ExtractEmbeddedJSON([]byte(`<html><script>window.__other = {};</script></html>`))
	assert.ErrorIs(t, err, ErrMarkerNotFound)

	_, err = ExtractEmbeddedJSON(nil)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestExtractEmbeddedJSON_Invalid(t *testing.T) {
	_, err := ExtractEmbeddedJSON([]byte(`<script>window.__data = {"broken": ;</script>`))
	assert.ErrorIs(t, err, ErrInvalidEmbeddedJSON)

	// Only one trailing semicolon is dropped.
	_, err = ExtractEmbeddedJSON([]byte(`<script>window.__data = {};;</script>`))
	assert.ErrorIs(t, err, ErrInvalidEmbeddedJSON)
}
