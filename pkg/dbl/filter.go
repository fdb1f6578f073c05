package dbl

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxSearchLimit is the largest page size the search endpoint accepts.
const MaxSearchLimit = 500

// Filter narrows a bot search. Methods return a modified copy, so a base
// filter can be shared and extended.
//
//	f := dbl.NewFilter().Search("lib:discordgo mod").Limit(50)
type Filter struct {
	values url.Values
}

// NewFilter returns an empty filter.
func NewFilter() Filter {
	return Filter{values: make(url.Values, 4)}
}

// Limit sets the page size, capped at MaxSearchLimit.
func (f Filter) Limit(limit int) Filter {
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if limit < 0 {
		limit = 0
	}
	return f.with("limit", strconv.Itoa(limit))
}

// Offset skips the first n results.
func (f Filter) Offset(offset int) Filter {
	if offset < 0 {
		offset = 0
	}
	return f.with("offset", strconv.Itoa(offset))
}

// Sort orders results by field. Descending order prefixes the field with '-'.
func (f Filter) Sort(field string, ascending bool) Filter {
	field = strings.TrimSpace(field)
	if !ascending {
		field = "-" + field
	}
	return f.with("sort", field)
}

// Search sets the search string, e.g. "lib:discordgo mod".
func (f Filter) Search(q string) Filter {
	return f.with("search", q)
}

// Fields restricts the bot fields included in each result.
func (f Filter) Fields(fields ...string) Filter {
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			kept = append(kept, field)
		}
	}
	if len(kept) == 0 {
		return f
	}
	return f.with("fields", strings.Join(kept, ","))
}

// Values returns a copy of the query parameters.
func (f Filter) Values() url.Values {
	out := make(url.Values, len(f.values))
	for k, v := range f.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (f Filter) with(key, value string) Filter {
	next := Filter{values: f.Values()}
	next.values.Set(key, value)
	return next
}
