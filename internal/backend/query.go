package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// OrderType ...
type OrderType string

const (
	// AscendingOrder ...
	AscendingOrder OrderType = "asc"
	// DescendingOrder ...
	DescendingOrder OrderType = "desc"
)

// Query builds record-endpoint filter predicates.
type Query struct {
	values url.Values
}

// NewQuery ...
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Eq adds a `field=eq.value` predicate.
func (q *Query) Eq(field, value string) *Query {
	q.values.Set(field, "eq."+value)
	return q
}

// In adds a `field=in.(v1,v2,...)` predicate.
func (q *Query) In(field string, values ...string) *Query {
	q.values.Set(field, fmt.Sprintf("in.(%s)", strings.Join(values, ",")))
	return q
}

// Order adds an `order=field.direction` clause.
func (q *Query) Order(field string, o OrderType) *Query {
	q.values.Set("order", fmt.Sprintf("%s.%s", field, o))
	return q
}

// Limit ...
func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

// Offset ...
func (q *Query) Offset(n int) *Query {
	q.values.Set("offset", strconv.Itoa(n))
	return q
}

func (q *Query) urlValues() url.Values {
	if q == nil {
		return nil
	}
	return q.values
}

// RequestOption sets per-request headers on record operations.
type RequestOption func(h http.Header)

// WithRange requests a page via the `Range: lo-hi` header.
func WithRange(offset, limit int) RequestOption {
	return func(h http.Header) {
		h.Set("Range", fmt.Sprintf("%d-%d", offset, offset+limit-1))
	}
}

// WithExactCount asks the backend to compute the total row count for the page.
func WithExactCount() RequestOption {
	return func(h http.Header) {
		h.Add("Prefer", "count=exact")
	}
}
