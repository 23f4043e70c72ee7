package routepath

import (
	"net/url"
	"sort"
	"strings"
)

// Query maps query keys to their values in the order they appeared.
// A key given more than once keeps every value.
type Query map[string][]string

// ParseQuery parses a raw query string (with or without the leading "?").
// Malformed pairs are skipped rather than failing the whole query, so a
// location typed by a user always resolves.
func ParseQuery(raw string) Query {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}
	values, _ := url.ParseQuery(raw)
	if len(values) == 0 {
		return nil
	}
	return Query(values)
}

// Get returns the first value for key, or "" if absent.
func (q Query) Get(key string) string {
	if vs := q[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value for key.
func (q Query) Values(key string) []string {
	return q[key]
}

// Has reports whether key is present.
func (q Query) Has(key string) bool {
	_, ok := q[key]
	return ok
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
	if q == nil {
		return nil
	}
	out := make(Query, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Merge returns a copy of q with every key of other replacing q's values.
func (q Query) Merge(other Query) Query {
	if len(other) == 0 {
		return q.Clone()
	}
	out := q.Clone()
	if out == nil {
		out = make(Query, len(other))
	}
	for k, vs := range other {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Encode returns the query in "k=v&k=v" form, sorted by key.
// Values for one key keep their order.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	return url.Values(q).Encode()
}

// Equal reports whether q and other hold the same keys and values.
func (q Query) Equal(other Query) bool {
	if len(q) != len(other) {
		return false
	}
	for k, vs := range q {
		ovs, ok := other[k]
		if !ok || len(ovs) != len(vs) {
			return false
		}
		for i := range vs {
			if vs[i] != ovs[i] {
				return false
			}
		}
	}
	return true
}

// Keys returns the query keys in sorted order.
func (q Query) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JoinLocation builds "path?query" from a path and a query.
func JoinLocation(path string, q Query) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}
