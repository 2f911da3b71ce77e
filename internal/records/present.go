package records

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// InvalidDate is shown for timestamps that cannot be parsed
const InvalidDate = "Invalid Date"

const shortIDLen = 8

// ShortID truncates an identifier to its first eight characters plus an ellipsis
func ShortID(id string) string {
	if utf8.RuneCountInString(id) > shortIDLen {
		id = string([]rune(id)[:shortIDLen])
	}
	return id + "..."
}

// CategoryTitle turns "page" into "Pages"
func CategoryTitle(category string) string {
	r, size := utf8.DecodeRuneInString(category)
	if r == utf8.RuneError {
		return category + "s"
	}
	return string(unicode.ToUpper(r)) + category[size:] + "s"
}

// CountLabel renders "1,234 items" using the locale's digit grouping
func CountLabel(n int, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%d items", n)
}

// Link renders an OSC-8 terminal hyperlink. The URL is passed through as-is.
func Link(url, label string) string {
	return "\x1b]8;;" + url + "\x1b\\" + label + "\x1b]8;;\x1b\\"
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a raw timestamp as a locale date. ok is false when the
// value is absent, in which case nothing should be displayed.
func FormatDate(raw any, tag language.Tag) (string, bool) {
	if raw == nil {
		return "", false
	}

	t, parsed := parseTimestamp(raw)
	if !parsed {
		return InvalidDate, true
	}
	return t.Format(dateLayout(tag)), true
}

func parseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpochMillis(f)
	case float64:
		return fromEpochMillis(v)
	case int:
		return fromEpochMillis(float64(v))
	case int64:
		return fromEpochMillis(float64(v))
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}

func fromEpochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

var (
	localeTags = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
		language.French,
		language.Spanish,
		language.Italian,
		language.Dutch,
		language.Japanese,
		language.Chinese,
		language.Korean,
		language.Swedish,
	}
	localeMatcher = language.NewMatcher(localeTags)
)

func dateLayout(tag language.Tag) string {
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return "2006/01/02"
	}
	switch localeTags[idx] {
	case language.AmericanEnglish:
		return "1/2/2006"
	case language.German:
		return "02.01.2006"
	case language.Dutch:
		return "02-01-2006"
	case language.Japanese, language.Chinese:
		return "2006/1/2"
	case language.Korean:
		return "2006. 1. 2."
	case language.Swedish:
		return "2006-01-02"
	default:
		return "02/01/2006"
	}
}

// ParseLocale turns "en_US.UTF-8" or "de-DE" into a language tag
func ParseLocale(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return language.AmericanEnglish, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag, nil
}

// EnvLocale reads the locale from LC_ALL, LC_TIME or LANG, defaulting to en-US
func EnvLocale() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" {
			if tag, err := ParseLocale(v); err == nil {
				return tag
			}
		}
	}
	return language.AmericanEnglish
}
