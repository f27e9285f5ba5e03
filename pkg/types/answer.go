// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared between the collaborator
// client, the session store, the query controller, and the viewer.
package types

import "strings"

// Citation is one reference to a page of a source document returned
// alongside an answer. ID and Filename are required to open the document.
type Citation struct {
	// ID is the collaborator's opaque paper identifier.
	ID PaperID `json:"id" yaml:"id"`

	// Title is the source paper title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Page is the 1-based page the cited passage appears on. Zero when the
	// collaborator did not specify one.
	Page int `json:"page" yaml:"page"`

	// Filename is the PDF file name inside the corpus.
	Filename string `json:"filename" yaml:"filename"`

	// Excerpt is the cited passage, in markdown.
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`

	// Tags are topic labels attached to the source paper.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Navigable reports whether the citation carries enough data to resolve
// a viewable document.
func (c Citation) Navigable() bool {
	return c.ID != "" && c.Filename != ""
}

// AnswerResult is the successful POST /api/ask response body. Sources are
// ordered by relevance and that order is preserved everywhere.
type AnswerResult struct {
	// Answer is markdown text; literal newlines separate paragraphs.
	Answer string `json:"answer" yaml:"answer"`

	// Sources lists the citations backing the answer.
	Sources []Citation `json:"sources" yaml:"sources"`
}

// Paragraphs splits the answer on newlines, one entry per rendered paragraph.
func (r AnswerResult) Paragraphs() []string {
	if r.Answer == "" {
		return nil
	}
	return strings.Split(r.Answer, "\n")
}

// AskRequest is the POST /api/ask request body.
type AskRequest struct {
	Query string `json:"query"`
}

// ErrorBody is the structured error body the collaborator sends on non-2xx
// responses.
type ErrorBody struct {
	Error string `json:"error"`
}

// ProgressState is the display state of the progress simulation. The zero
// value means no request is in flight.
type ProgressState struct {
	// Message is the current human-readable status line.
	Message string `json:"message" yaml:"message"`

	// Percent is an estimate in [0,100]; it only reaches 100 on success.
	Percent int `json:"percent" yaml:"percent"`
}

// IsZero reports whether the state is cleared.
func (p ProgressState) IsZero() bool {
	return p.Message == "" && p.Percent == 0
}
