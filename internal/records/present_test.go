package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestShortID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4...", ShortID("a1b2c3d4e5f6"))
	assert.Equal(t, "abc...", ShortID("abc"))
	assert.Equal(t, "ééééééé√...", ShortID("ééééééé√xyz"))
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Pages", CategoryTitle("page"))
	assert.Equal(t, "Unknowns", CategoryTitle("unknown"))
	assert.Equal(t, "Éléments", CategoryTitle("élément"))
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "2 items", CountLabel(2, language.AmericanEnglish))
	assert.Equal(t, "1,234 items", CountLabel(1234, language.AmericanEnglish))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		tag    language.Tag
		want   string
		wantOK bool
	}{
		{"absent", nil, language.AmericanEnglish, "", false},
		{"rfc3339 us", "2024-03-05T10:00:00Z", language.AmericanEnglish, "3/5/2024", true},
		{"rfc3339 gb", "2024-03-05T10:00:00.000Z", language.BritishEnglish, "05/03/2024", true},
		{"date only de", "2024-03-05", language.MustParse("de-DE"), "05.03.2024", true},
		{"epoch millis", json.Number("1709632800000"), language.AmericanEnglish, "3/5/2024", true},
		{"garbage", "yesterday-ish", language.AmericanEnglish, InvalidDate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatDate(tt.raw, tt.tag)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocale(t *testing.T) {
	tag, err := ParseLocale("en_GB.UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", tag.String())

	tag, err = ParseLocale("C")
	require.NoError(t, err)
	assert.Equal(t, "en-US", tag.String())

	_, err = ParseLocale("not a locale!")
	require.Error(t, err)
}

func TestRecord_Accessors(t *testing.T) {
	items, ok := Parse([]byte(`[{"type":"contact","name":"Ada","id":12345678901,"url":"https://x","creation_time":"","last_modified_time":"2024-01-01"}]`))
	require.True(t, ok)
	require.Len(t, items, 1)
	r := items[0]

	name, ok := r.Name()
	assert.True(t, ok)
	assert.Equal(t, "Ada", name)

	id, ok := r.ID()
	assert.True(t, ok)
	assert.Equal(t, "12345678901", id)

	_, ok = r.Created()
	assert.False(t, ok, "empty timestamp is treated as absent")

	_, ok = r.Modified()
	assert.True(t, ok)

	u, ok := r.URL()
	assert.True(t, ok)
	assert.Equal(t, "https://x", u)
}

func TestRecord_NilIsEmpty(t *testing.T) {
	var r Record
	assert.Equal(t, UnknownCategory, r.Category())
	_, ok := r.Name()
	assert.False(t, ok)
}
