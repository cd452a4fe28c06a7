// Package export renders a template document to HTML and, through headless
// Chrome, to PDF. It powers the preview download endpoint.
package export

import "errors"

// Format is the requested export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless Chrome binary is not
// installed on this host.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
