package app

import (
	"embed"
	"fmt"
	"html"
	"io/fs"
	"log"
	"net/http"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed html/*
var htmlFiles embed.FS

var Template = `<!DOCTYPE html>
<html lang="en">
  <head>
    <title>%s | Peaks</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <meta name="description" content="%s">
    <meta name="referrer" content="no-referrer"/>
    <link rel="stylesheet" href="/peaks.css">
  </head>
  <body>
    <div id="container">
      <div id="content">%s</div>
    </div>
  </body>
</html>
`

// Render a markdown document as html
func Render(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	// raw html in user prompts is never passed through
	htmlFlags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML
	opts := mdhtml.RendererOptions{Flags: htmlFlags}
	renderer := mdhtml.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

// RenderString renders a markdown string as html
func RenderString(v string) string {
	return string(Render([]byte(v)))
}

// RenderHTML renders the given html in the page template
func RenderHTML(title, desc, body string) string {
	return fmt.Sprintf(Template, html.EscapeString(title), html.EscapeString(desc), body)
}

// RenderTemplate renders a markdown string in the page template
func RenderTemplate(title, desc, text string) string {
	return RenderHTML(title, desc, RenderString(text))
}

// Serve serves the static content in app/html
func Serve() http.Handler {
	htmlContent, err := fs.Sub(fs.FS(htmlFiles), "html")
	if err != nil {
		log.Fatal(err)
	}

	return http.FileServer(http.FS(htmlContent))
}
