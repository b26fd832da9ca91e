// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package results persists computed quantities.
//
// Description:
//
//	Two layers are provided. Containers (ListContainer, MapContainer) hold
//	ad-hoc values such as floats, complex numbers and matrices, and are
//	saved to dated JSON files. The Store keeps one Record per computation
//	in an embedded BadgerDB so the CLI can list and inspect past runs.
package results

import (
	"fmt"
	"sort"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
)

// ContainerKind tags the two container shapes.
type ContainerKind int

const (
	KindList ContainerKind = iota
	KindMap
)

func (k ContainerKind) String() string {
	if k == KindMap {
		return "map"
	}
	return "list"
}

// Container is either a *ListContainer or a *MapContainer. Callers switch
// on the concrete type; the operation sets do not overlap.
type Container interface {
	Kind() ContainerKind
	Len() int

	// encoded returns the JSON-ready form of the contents.
	encoded() (any, error)
}

// ==============================================================================
// List
// ==============================================================================

// ListContainer is an ordered sequence of values.
//
// Thread Safety: Not safe for concurrent use.
type ListContainer struct {
	items []any
}

// NewList returns a list holding items.
func NewList(items ...any) *ListContainer {
	return &ListContainer{items: append([]any(nil), items...)}
}

func (l *ListContainer) Kind() ContainerKind { return KindList }

func (l *ListContainer) Len() int { return len(l.items) }

// Append adds v at the end.
func (l *ListContainer) Append(v any) { l.items = append(l.items, v) }

// At returns the i-th value.
func (l *ListContainer) At(i int) (any, error) {
	if err := l.check("results.ListContainer.At", i); err != nil {
		return nil, err
	}
	return l.items[i], nil
}

// Set replaces the i-th value.
func (l *ListContainer) Set(i int, v any) error {
	if err := l.check("results.ListContainer.Set", i); err != nil {
		return err
	}
	l.items[i] = v
	return nil
}

// Delete removes the half-open range [from, to).
func (l *ListContainer) Delete(from, to int) error {
	if from < 0 || to > len(l.items) || from > to {
		return qerr.Index("results.ListContainer.Delete", "range [%d, %d) out of bounds for length %d", from, to, len(l.items))
	}
	l.items = append(l.items[:from], l.items[to:]...)
	return nil
}

// Items returns a shallow copy of the values.
func (l *ListContainer) Items() []any { return append([]any(nil), l.items...) }

func (l *ListContainer) check(op string, i int) error {
	if i < 0 || i >= len(l.items) {
		return qerr.Index(op, "index %d out of range for length %d", i, len(l.items))
	}
	return nil
}

func (l *ListContainer) encoded() (any, error) {
	out := make([]any, len(l.items))
	for i, v := range l.items {
		e, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// ==============================================================================
// Map
// ==============================================================================

// MapContainer maps string keys to values.
//
// Thread Safety: Not safe for concurrent use.
type MapContainer struct {
	items map[string]any
}

// NewMap returns an empty map container.
func NewMap() *MapContainer {
	return &MapContainer{items: map[string]any{}}
}

func (m *MapContainer) Kind() ContainerKind { return KindMap }

func (m *MapContainer) Len() int { return len(m.items) }

// Put stores v under key, replacing any previous value. The keys "real",
// "imag", "dims" and "data" are reserved by the codec.
func (m *MapContainer) Put(key string, v any) error {
	if reserved(key) {
		return qerr.Parameter("results.MapContainer.Put", "key %q is reserved", key)
	}
	m.items[key] = v
	return nil
}

// Get returns the value under key.
func (m *MapContainer) Get(key string) (any, error) {
	v, ok := m.items[key]
	if !ok {
		return nil, qerr.Index("results.MapContainer.Get", "key %q does not exist", key)
	}
	return v, nil
}

// Delete removes key.
func (m *MapContainer) Delete(key string) error {
	if _, ok := m.items[key]; !ok {
		return qerr.Index("results.MapContainer.Delete", "key %q does not exist", key)
	}
	delete(m.items, key)
	return nil
}

// Keys returns the keys in sorted order.
func (m *MapContainer) Keys() []string {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MapContainer) encoded() (any, error) {
	out := make(map[string]any, len(m.items))
	for k, v := range m.items {
		e, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = e
	}
	return out, nil
}

func reserved(key string) bool {
	switch key {
	case "real", "imag", "dims", "data":
		return true
	}
	return false
}
