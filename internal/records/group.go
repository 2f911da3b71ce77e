package records

// DefaultPreviewLimit caps the cards shown per category
const DefaultPreviewLimit = 6

// Group is one category of records with a capped preview
type Group struct {
	Category string
	Total    int
	Preview  []Record
}

// Overflow is the number of records not shown in the preview
func (g Group) Overflow() int {
	return g.Total - len(g.Preview)
}

// Partition buckets records by category in order of first occurrence. Within a
// category input order is kept. limit <= 0 falls back to DefaultPreviewLimit.
func Partition(items []Record, limit int) []Group {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, item := range items {
		cat := item.Category()
		i, seen := index[cat]
		if !seen {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}

		g := &groups[i]
		g.Total++
		if len(g.Preview) < limit {
			g.Preview = append(g.Preview, item)
		}
	}
	return groups
}

// GroupPayload groups a raw load result. Anything other than a JSON array
// yields an empty result rather than an error.
func GroupPayload(raw []byte, limit int) []Group {
	items, ok := Parse(raw)
	if !ok {
		return []Group{}
	}
	return Partition(items, limit)
}
