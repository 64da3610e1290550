package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// Page is the one canonical shape of a list response.
type Page[T any] struct {
	// Items are the entities of this page, in server order.
	Items []T

	// Number is the 1-based page that was requested.
	Number int

	// TotalPages is always at least 1.
	TotalPages int
}

// envelope is the paginated response shape: {"results": [...], "total_pages": N}.
// Endpoints without total_pages fall back to the next link.
type envelope[T any] struct {
	Results    *[]T    `json:"results"`
	TotalPages int     `json:"total_pages"`
	Count      int     `json:"count"`
	Next       *string `json:"next"`
}

// errUnexpectedShape is returned when a list response is neither an array
// nor a results envelope.
var errUnexpectedShape = errors.New("unexpected list response shape")

// DecodePage normalizes a list response body into a Page. A bare JSON
// array is a single complete page.
func DecodePage[T any](body []byte, number int) (Page[T], error) {
	if number < 1 {
		number = 1
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Page[T]{Items: []T{}, Number: number, TotalPages: 1}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decoding list array: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return Page[T]{Items: items, Number: number, TotalPages: 1}, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page[T]{}, fmt.Errorf("decoding list envelope: %w", err)
	}
	if env.Results == nil {
		return Page[T]{}, errUnexpectedShape
	}

	total := env.TotalPages
	if total <= 0 {
		total = number
		if env.Next != nil && *env.Next != "" {
			total = number + 1
		}
	}
	if total < number {
		total = number
	}

	items := *env.Results
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Number: number, TotalPages: total}, nil
}

// GetPage fetches one page of a list endpoint and normalizes it.
// query may be nil; the page parameter is always set.
func GetPage[T any](
	ctx context.Context,
	c *Client,
	path string,
	page int,
	query url.Values,
) (Page[T], error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))

	body, err := c.send(ctx, http.MethodGet, path+"?"+q.Encode(), nil, true)
	if err != nil {
		return Page[T]{}, err
	}

	p, err := DecodePage[T](body, page)
	if err != nil {
		return Page[T]{}, fmt.Errorf("GET %s page %d: %w", path, page, err)
	}
	return p, nil
}
