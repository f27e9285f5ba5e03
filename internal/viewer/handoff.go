// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package viewer turns a selected citation into a reference the host's
// native PDF viewer can open, and optionally serves the PDF corpus locally.
package viewer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// ErrMissingInformation marks a handoff whose citation lacks an id or a
// filename. The document view shows it inline instead of failing.
var ErrMissingInformation = errors.New("missing paper information")

// Handoff is the payload passed from the answer view to the document view.
type Handoff struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Year     int      `json:"year" yaml:"year"`
	Page     int      `json:"page" yaml:"page"`
	Filename string   `json:"filename" yaml:"filename"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Missing is set when ID or Filename is absent.
	Missing bool `json:"missing" yaml:"missing"`
}

// BuildHandoff packages a citation for the document view. It never fails;
// an incomplete citation yields a handoff with Missing set.
func BuildHandoff(c types.Citation) Handoff {
	return Handoff{
		ID:       string(c.ID),
		Title:    c.Title,
		Year:     c.Year,
		Page:     c.Page,
		Filename: c.Filename,
		Tags:     c.Tags,
		Missing:  !c.Navigable(),
	}
}

// HandoffFromPaper packages a listing entry. Listings open at page 1.
func HandoffFromPaper(p types.Paper) Handoff {
	return BuildHandoff(types.Citation{
		ID:       p.ID,
		Title:    p.Title,
		Year:     p.Year,
		Page:     1,
		Filename: p.Filename,
	})
}

// DocumentRef identifies a page of a corpus PDF.
type DocumentRef struct {
	// Filename is percent-encoded for use as a URL path segment.
	Filename string `json:"filename" yaml:"filename"`
	Page     int    `json:"page" yaml:"page"`
}

// Resolve derives the document reference for a handoff. The page defaults
// to 1 when the citation did not carry one.
func Resolve(h Handoff) (DocumentRef, error) {
	if h.Missing || h.ID == "" || h.Filename == "" {
		return DocumentRef{}, ErrMissingInformation
	}
	page := h.Page
	if page < 1 {
		page = 1
	}
	return DocumentRef{Filename: url.PathEscape(h.Filename), Page: page}, nil
}

// URL returns base/pdfs/<filename>#page=<n>. The fragment is the page
// selector understood by browser PDF viewers.
func (r DocumentRef) URL(base string) string {
	return fmt.Sprintf("%s/pdfs/%s#page=%d", strings.TrimRight(base, "/"), r.Filename, r.Page)
}
