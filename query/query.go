// Package query turns raw request query strings into filtered, sorted,
// paginated and field-projected collection reads, the mechanism behind every
// top-level listing endpoint.
package query

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// control keys are stripped from the filter set before the remainder is
// treated as field filters.
var controlKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

// operator suffixes recognized in bracketed keys, e.g. tuition[gte]=5000.
var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"ne":  "$ne",
	"in":  "$in",
}

// Options is the parsed form of a listing request.
type Options struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M // nil when no select was given
	Page       int
	Limit      int
}

// Skip is the number of documents before the requested page.
func (o *Options) Skip() int64 {
	return int64((o.Page - 1) * o.Limit)
}

// Pagination carries the neighbouring page numbers; each is present only when
// that page would contain at least one record.
type Pagination struct {
	Next *int `json:"next,omitempty"`
	Prev *int `json:"prev,omitempty"`
}

// Meta describes one page of results.
type Meta struct {
	Total      int64
	Pagination Pagination
}

// Parse builds Options from raw query values. Malformed or out-of-range page
// and limit values clamp to the defaults (page 1, limit 25) instead of
// erroring.
func Parse(values url.Values) *Options {
	opts := &Options{
		Filter: bson.M{},
		Page:   positiveInt(values.Get("page"), DefaultPage),
		Limit:  positiveInt(values.Get("limit"), DefaultLimit),
	}

	for key, raw := range values {
		if controlKeys[key] || len(raw) == 0 {
			continue
		}
		field, op := splitOperator(key)
		if op == "$in" {
			parts := strings.Split(raw[0], ",")
			list := make([]interface{}, len(parts))
			for i, p := range parts {
				list[i] = coerce(p)
			}
			opts.Filter[field] = bson.M{op: list}
			continue
		}
		if op != "" {
			cond, ok := opts.Filter[field].(bson.M)
			if !ok {
				cond = bson.M{}
				opts.Filter[field] = cond
			}
			cond[op] = coerce(raw[0])
			continue
		}
		opts.Filter[field] = coerce(raw[0])
	}

	if sel := values.Get("select"); sel != "" {
		opts.Projection = bson.M{}
		for _, field := range strings.Split(sel, ",") {
			if field = strings.TrimSpace(field); field != "" {
				opts.Projection[field] = 1
			}
		}
	}

	opts.Sort = parseSort(values.Get("sort"))
	return opts
}

// Find runs the parsed query against a collection, decoding the page into out
// (a pointer to a slice). The total matching count is taken before pagination
// is applied.
func Find(ctx context.Context, coll *mongo.Collection, values url.Values, out interface{}) (*Meta, error) {
	opts := Parse(values)

	total, err := coll.CountDocuments(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().
		SetSort(opts.Sort).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.Limit))
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := coll.Find(ctx, opts.Filter, findOpts)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, out); err != nil {
		return nil, err
	}

	return &Meta{Total: total, Pagination: paginate(opts.Page, opts.Limit, total)}, nil
}

func paginate(page, limit int, total int64) Pagination {
	var p Pagination
	if int64(page*limit) < total {
		next := page + 1
		p.Next = &next
	}
	if page > 1 && int64((page-2)*limit) < total {
		prev := page - 1
		p.Prev = &prev
	}
	return p
}

func parseSort(raw string) bson.D {
	if raw == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	sort := bson.D{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(field, "-") {
			dir = -1
			field = field[1:]
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return sort
}

// splitOperator recognizes the bracketed suffix syntax: "tuition[lte]" ->
// ("tuition", "$lte"). Keys without a known suffix are exact-match fields.
func splitOperator(key string) (field, op string) {
	open := strings.Index(key, "[")
	if open == -1 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	if mapped, ok := operators[key[open+1:len(key)-1]]; ok {
		return key[:open], mapped
	}
	return key, ""
}

// coerce infers a value's type so comparisons work against numeric and
// boolean document fields.
func coerce(raw string) interface{} {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
