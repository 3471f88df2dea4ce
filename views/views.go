// Package views holds the console's server-rendered pages.
package views

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
}

// Templates parses the embedded pages. Names are the file names, e.g.
// "login.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}

// MustTemplates is Templates for process start-up.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
