package integration

import (
	"fmt"
	"strings"
)

// Selector identifies which third-party integration to query
type Selector string

const (
	Notion   Selector = "notion"
	Airtable Selector = "airtable"
	HubSpot  Selector = "hubspot"
)

// route is the remote path pair for one selector
type route struct {
	resource string
	action   string
}

// routes maps every selector to its resource path segment and load action.
// Keep in sync with All(); the table test fails on a missing entry.
var routes = map[Selector]route{
	Notion:   {resource: "notion", action: "load"},
	Airtable: {resource: "airtable", action: "load"},
	HubSpot:  {resource: "hubspot", action: "get_hubspot_items"},
}

// All returns every known selector in display order
func All() []Selector {
	return []Selector{
		Notion,
		Airtable,
		HubSpot,
	}
}

// Resource returns the resource path segment for the selector.
// An unmapped selector is a programming error and panics.
func (s Selector) Resource() string {
	return s.route().resource
}

// Action returns the load action name for the selector
func (s Selector) Action() string {
	return s.route().action
}

// Path returns the request path, e.g. /integrations/hubspot/get_hubspot_items
func (s Selector) Path() string {
	r := s.route()
	return "/integrations/" + r.resource + "/" + r.action
}

func (s Selector) route() route {
	r, ok := routes[s]
	if !ok {
		panic(fmt.Sprintf("integration: no route for selector %q", string(s)))
	}
	return r
}

// DisplayName returns the human-readable integration name
func (s Selector) DisplayName() string {
	switch s {
	case Notion:
		return "Notion"
	case Airtable:
		return "Airtable"
	case HubSpot:
		return "HubSpot"
	default:
		return string(s)
	}
}

// Description is a one-line hint shown by the picker
func (s Selector) Description() string {
	switch s {
	case Notion:
		return "Pages and databases"
	case Airtable:
		return "Bases and tables"
	case HubSpot:
		return "Contacts, companies and deals"
	default:
		return ""
	}
}

// EnvVar returns the environment variable holding an access token for the selector
func (s Selector) EnvVar() string {
	switch s {
	case Notion:
		return "NOTION_TOKEN"
	case Airtable:
		return "AIRTABLE_TOKEN"
	case HubSpot:
		return "HUBSPOT_ACCESS_TOKEN"
	default:
		return ""
	}
}

func (s Selector) String() string {
	return string(s)
}

// Valid reports whether s is one of the known selectors
func (s Selector) Valid() bool {
	_, ok := routes[s]
	return ok
}

// Parse resolves a user-supplied name ("HubSpot", "hubspot") to a selector
func Parse(name string) (Selector, error) {
	s := Selector(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown integration: %s", name)
	}
	return s, nil
}

// Lookup is the inverse of Resource/Action, used by servers routing inbound requests
func Lookup(resource, action string) (Selector, bool) {
	for _, s := range All() {
		r := routes[s]
		if r.resource == resource && r.action == action {
			return s, true
		}
	}
	return "", false
}
