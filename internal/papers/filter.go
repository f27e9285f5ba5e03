// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers filters the corpus listing.
package papers

import (
	"strconv"
	"strings"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// Filter returns the papers whose title contains term (case-insensitive)
// or whose year contains term. An empty term matches everything. Listing
// order is preserved.
func Filter(papers []types.Paper, term string) []types.Paper {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return papers
	}

	var out []types.Paper
	for _, p := range papers {
		if strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strconv.Itoa(p.Year), term) {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the paper with the given id.
func Find(papers []types.Paper, id string) (types.Paper, bool) {
	for _, p := range papers {
		if string(p.ID) == id {
			return p, true
		}
	}
	return types.Paper{}, false
}
