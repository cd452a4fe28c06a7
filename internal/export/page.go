package export

import (
	"bytes"
	htmltmpl "html/template"
)

var pageTemplate = htmltmpl.Must(htmltmpl.New("page").Parse(pageHTML))

type pageData struct {
	Title       string
	Icon        string
	ContentHTML htmltmpl.HTML
}

// renderPage wraps the rendered body in a full standalone HTML document.
func renderPage(data pageData) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pageHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 1px solid #ddd; padding-bottom: 0.5rem; }
    .callout { background: #f5f3ee; padding: 0.75rem 1rem; border-radius: 4px; margin: 0.5rem 0; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
    pre { background: #f6f6f6; padding: 0.75rem; border-radius: 4px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
    th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; }
    th { background: #fafafa; }
    .columns { display: flex; gap: 1.5rem; }
    .column { flex: 1; }
    .todo { margin: 0.2rem 0; }
    img { max-width: 100%; }
  </style>
</head>
<body>
  <h1>{{if .Icon}}{{.Icon}} {{end}}{{.Title}}</h1>
  <div>{{.ContentHTML}}</div>
</body>
</html>`
