package elasticsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexMapping(t *testing.T) {
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(buildIndexMapping()), &body))

	analysis := body["settings"].(map[string]any)["analysis"].(map[string]any)

	analyzer := analysis["analyzer"].(map[string]any)["autocomplete"].(map[string]any)
	assert.Equal(t, "standard", analyzer["tokenizer"])
	assert.Equal(t, []any{"lowercase", "edge_ngram_filter"}, analyzer["filter"])

	filter := analysis["filter"].(map[string]any)["edge_ngram_filter"].(map[string]any)
	assert.Equal(t, "edge_ngram", filter["type"])
	assert.Equal(t, float64(2), filter["min_gram"])
	assert.Equal(t, float64(20), filter["max_gram"])

	props := body["mappings"].(map[string]any)["properties"].(map[string]any)

	title := props["title"].(map[string]any)
	assert.Equal(t, "text", title["type"])
	assert.Equal(t, "autocomplete", title["analyzer"])
	assert.Equal(t, "standard", title["search_analyzer"])
	keyword := title["fields"].(map[string]any)["keyword"].(map[string]any)
	assert.Equal(t, "keyword", keyword["type"])

	assert.Equal(t, "completion", props["title_suggest"].(map[string]any)["type"])
	assert.Equal(t, "text", props["description"].(map[string]any)["type"])
	assert.Equal(t, "keyword", props["genre"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["year"].(map[string]any)["type"])
	assert.Equal(t, "keyword", props["cast"].(map[string]any)["type"])
}
