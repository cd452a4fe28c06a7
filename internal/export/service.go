package export

import (
	"fmt"
	htmltmpl "html/template"

	"templet/api/internal/template"
)

// Service renders template documents for download.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Export renders a template in the requested format. HTML export is always
// available; PDF additionally needs headless Chrome on the host.
func (s *Service) Export(tpl *template.Template, format Format) (*Result, error) {
	body := renderBlocks(tpl.Blocks)
	body += renderDatabase(tpl.Database)

	page, err := renderPage(pageData{
		Title:       tpl.Title,
		Icon:        tpl.Icon,
		ContentHTML: htmltmpl.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(page),
			Filename: sanitizeFilename(tpl.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(page, tpl.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
