// Package web embeds the admin and respondent pages and their assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// sub roots an embedded tree at dir. The directories are fixed at build
// time, so failure is a packaging bug.
func sub(fsys embed.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("web: missing embedded directory " + dir + ": " + err.Error())
	}
	return s
}

// GetTemplatesFS returns the page templates rooted at templates/
func GetTemplatesFS() fs.FS {
	return sub(templatesFS, "templates")
}

// GetStaticFS returns the CSS and JS files served under /static/
func GetStaticFS() fs.FS {
	return sub(staticFS, "static")
}
