// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package paging implements an incremental page-fetch controller with
// identity-based de-duplication and has-more tracking. It accumulates items
// across successive pages of the same query; switching queries requires a
// Reset before the first fetch.
package paging

import "context"

// FetchFunc loads one page and reports whether more pages follow.
type FetchFunc[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// Controller accumulates pages of T. Identity extracts the stable identity
// used for de-duplication; incoming items whose identity is already loaded
// are dropped, which guards against a retried or double-invoked fetch
// appending the same page twice.
type Controller[T any] struct {
	identity func(T) string

	items   []T
	seen    map[string]struct{}
	page    int
	hasMore bool
	loading bool
}

// NewController creates a Controller starting at page 1.
func NewController[T any](identity func(T) string) *Controller[T] {
	c := &Controller[T]{identity: identity}
	c.Reset()
	return c
}

// Items returns the accumulated, de-duplicated items in load order.
func (c *Controller[T]) Items() []T {
	return c.items
}

// Page returns the next page number to be fetched.
func (c *Controller[T]) Page() int {
	return c.page
}

// HasMore reports whether another page may be fetched. Once false it stays
// false for this query; only Reset restores it.
func (c *Controller[T]) HasMore() bool {
	return c.hasMore
}

// Loading reports whether a fetch is currently in flight.
func (c *Controller[T]) Loading() bool {
	return c.loading
}

// Reset clears accumulated state for a new query: no items, page 1, hasMore
// true. Must be called when the filter changes (e.g. scoping to one author).
func (c *Controller[T]) Reset() {
	c.items = nil
	c.seen = make(map[string]struct{})
	c.page = 1
	c.hasMore = true
	c.loading = false
}

// LoadNext fetches the next page through fetch and appends its items. It is a
// no-op when a fetch is already in flight or when hasMore is false. A fetch
// error leaves the accumulated items and page untouched so a transient
// failure loses nothing.
func (c *Controller[T]) LoadNext(ctx context.Context, fetch FetchFunc[T]) error {
	if c.loading || !c.hasMore {
		return nil
	}
	c.loading = true
	defer func() { c.loading = false }()

	items, hasMore, err := fetch(ctx, c.page)
	if err != nil {
		return err
	}

	c.append(items)
	c.hasMore = hasMore
	c.page++
	return nil
}

func (c *Controller[T]) append(items []T) {
	for _, item := range items {
		id := c.identity(item)
		if _, dup := c.seen[id]; dup {
			continue
		}
		c.seen[id] = struct{}{}
		c.items = append(c.items, item)
	}
}
