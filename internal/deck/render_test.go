package deck

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"golang.org/x/text/language"
)

func TestRenderGrouped(t *testing.T) {
	payload := json.RawMessage(`[
		{"type":"contact","name":"Jane","creation_time":"2024-03-05T10:00:00Z","last_modified_time":"not a date"},
		{"name":"Nobody"}
	]`)

	out := RenderGrouped(payload, RenderOptions{
		Integration:  integration.HubSpot,
		PreviewLimit: 6,
		Locale:       language.BritishEnglish,
		Width:        60,
	})

	assert.Contains(t, out, "Contacts")
	assert.Contains(t, out, "Unknowns")
	assert.Contains(t, out, "05/03/2024")
	assert.Contains(t, out, "Invalid Date")
	assert.Contains(t, out, "1 items")
	assert.NotContains(t, out, "View in", "records without a url get no link")
}

func TestRenderGrouped_Empty(t *testing.T) {
	for _, raw := range []string{`[]`, `{"items":[]}`, `null`, ``} {
		out := RenderGrouped(json.RawMessage(raw), RenderOptions{Width: 80})
		assert.Contains(t, out, "No items to display.", "payload %q", raw)
	}
}

func TestRenderRaw(t *testing.T) {
	out := RenderRaw(json.RawMessage(`{"b":1,"a":[true]}`))
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": [\n    true\n  ]\n}", out)
}

func TestLoadedHeader(t *testing.T) {
	assert.Equal(t, "Successfully loaded 2 items", LoadedHeader(json.RawMessage(`[1,2]`), language.AmericanEnglish))
	assert.Equal(t, "Successfully loaded 0 items", LoadedHeader(json.RawMessage(`{"a":1}`), language.AmericanEnglish))
}

func TestColumns(t *testing.T) {
	assert.Equal(t, 1, columns(60))
	assert.Equal(t, 2, columns(100))
	assert.Equal(t, 3, columns(160))

	payload := json.RawMessage(`[{"type":"page","name":"A"},{"type":"page","name":"B"},{"type":"page","name":"C"}]`)
	wide := RenderGrouped(payload, RenderOptions{PreviewLimit: 6, Width: 160, Locale: language.AmericanEnglish})
	lines := strings.Split(wide, "\n")
	var row string
	for _, l := range lines {
		if strings.Contains(l, "A") && strings.Contains(l, "B") && strings.Contains(l, "C") {
			row = l
		}
	}
	assert.NotEmpty(t, row, "three cards share a row at width 160")
}
