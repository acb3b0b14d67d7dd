// Package query translates untrusted request query strings into a
// validated, store-agnostic Spec and renders it to parameterized SQL.
// Building is pure; execution belongs to the storage accessors.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"tourbook/internal/domain"
)

// Op is a comparison operator in store syntax.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpGt  Op = ">"
	OpLte Op = "<="
	OpLt  Op = "<"
)

var opTokens = map[string]Op{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

type Filter struct {
	Field string
	Op    Op
	Value string
}

type SortKey struct {
	Field string
	Desc  bool
}

// Spec is the parsed query description. Page and Limit are always
// resolved; Filters/SortKeys/Fields may be empty.
type Spec struct {
	Filters  []Filter
	SortKeys []SortKey
	Fields   []string
	Page     int
	Limit    int
}

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 500

	defaultSortField = "createdAt"
)

var reserved = map[string]bool{
	"sort":   true,
	"page":   true,
	"limit":  true,
	"fields": true,
}

// Build parses raw query parameters. Every key outside the reserved set
// becomes a field filter; `field[op]` keys carry a comparison operator.
// Unknown operator tokens are rejected rather than silently dropped.
func Build(raw url.Values) (Spec, error) {
	spec := Spec{
		Page:  positiveIntOr(raw.Get("page"), DefaultPage),
		Limit: positiveIntOr(raw.Get("limit"), DefaultLimit),
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op, err := parseFilterKey(key)
		if err != nil {
			return Spec{}, err
		}
		for _, value := range raw[key] {
			spec.Filters = append(spec.Filters, Filter{Field: field, Op: op, Value: value})
		}
	}

	if s := strings.TrimSpace(raw.Get("sort")); s != "" {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := SortKey{Field: part}
			if strings.HasPrefix(part, "-") {
				key = SortKey{Field: part[1:], Desc: true}
			}
			spec.SortKeys = append(spec.SortKeys, key)
		}
	}
	if len(spec.SortKeys) == 0 {
		// Newest first when the client does not ask otherwise.
		spec.SortKeys = []SortKey{{Field: defaultSortField, Desc: true}}
	}

	if f := strings.TrimSpace(raw.Get("fields")); f != "" {
		for _, part := range strings.Split(f, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !strings.HasPrefix(part, "-") {
				spec.Fields = append(spec.Fields, part)
			}
		}
	}

	return spec, nil
}

// parseFilterKey splits `price[gte]` into (price, >=). A bare key means
// equality.
func parseFilterKey(key string) (string, Op, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", domain.NewValidation("malformed filter parameter: " + key)
	}
	token := key[open+1 : len(key)-1]
	op, ok := opTokens[token]
	if !ok {
		return "", "", domain.NewValidation("unsupported filter operator: " + token)
	}
	return key[:open], op, nil
}

func positiveIntOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Where renders the filters to a SQL clause with placeholders. The
// allowed map translates query-facing field names to columns and doubles
// as the identifier allow-list; identifiers are never taken verbatim from
// the request.
func (s Spec) Where(allowed map[string]string) (string, []any, error) {
	if len(s.Filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(s.Filters))
	args := make([]any, 0, len(s.Filters))
	for _, f := range s.Filters {
		col, ok := allowed[f.Field]
		if !ok {
			return "", nil, domain.NewValidation("cannot filter on field: " + f.Field)
		}
		clauses = append(clauses, col+" "+string(f.Op)+" ?")
		args = append(args, f.Value)
	}
	return strings.Join(clauses, " AND "), args, nil
}

// OrderBy renders the sort keys, checked against the same allow-list.
func (s Spec) OrderBy(allowed map[string]string) (string, error) {
	parts := make([]string, 0, len(s.SortKeys))
	for _, k := range s.SortKeys {
		col, ok := allowed[k.Field]
		if !ok {
			return "", domain.NewValidation("cannot sort on field: " + k.Field)
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// Project applies the field allow-list to one serialized entity. With no
// requested fields the item passes through untouched; internal columns
// were already excluded at serialization. The id survives projection so
// every item stays addressable.
func (s Spec) Project(item map[string]any) map[string]any {
	if len(s.Fields) == 0 {
		return item
	}
	out := make(map[string]any, len(s.Fields)+1)
	if id, ok := item["id"]; ok {
		out["id"] = id
	}
	for _, f := range s.Fields {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out
}

// LimitOffset resolves pagination to LIMIT/OFFSET values.
func (s Spec) LimitOffset() (int, int) {
	return s.Limit, (s.Page - 1) * s.Limit
}
