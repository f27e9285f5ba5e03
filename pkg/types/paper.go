// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper is one entry of the corpus listing returned by GET /api/papers.
type Paper struct {
	// ID is the collaborator's opaque paper identifier.
	ID PaperID `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Filename is the PDF file name inside the corpus (e.g. "measuring-returns.pdf").
	Filename string `json:"filename" yaml:"filename"`
}

// PaperList is the GET /api/papers response body.
type PaperList struct {
	Papers []Paper `json:"papers" yaml:"papers"`
}
