// Package resource binds the TeamKonekt REST collections to pagination
// controllers. Each Source turns controller calls into the paths and
// payloads of one resource's endpoints.
package resource

import (
	"net/url"
	"strconv"
	"strings"
)

// itemPath builds a detail or action path: itemPath("/tasks/", 7, "remind")
// is "/tasks/7/remind/".
func itemPath(collection string, id int64, action ...string) string {
	var b strings.Builder
	b.WriteString(collection)
	b.WriteString(strconv.FormatInt(id, 10))
	b.WriteByte('/')
	for _, a := range action {
		b.WriteString(a)
		b.WriteByte('/')
	}
	return b.String()
}

// cloneQuery copies q so callers can add parameters without touching the
// controller's filter.
func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
