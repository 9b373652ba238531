package web

import (
	"html/template"
	"io/fs"
	"strings"
	"testing"
)

var adminPages = []string{"dashboard", "surveys", "seasons", "deliveries", "notifications", "users", "feedback", "settings"}

func TestEmbeddedTemplatesExist(t *testing.T) {
	templatesFS := GetTemplatesFS()

	requiredFiles := []string{"index.html", "survey/respond.html", "admin/login.html", "admin/layout.html"}
	for _, page := range adminPages {
		requiredFiles = append(requiredFiles, "admin/"+page+".html")
	}

	for _, file := range requiredFiles {
		if _, err := fs.Stat(templatesFS, file); err != nil {
			t.Errorf("required template %q not found: %v", file, err)
		}
	}
}

func TestEmbeddedStaticFilesExist(t *testing.T) {
	staticFS := GetStaticFS()

	for _, file := range []string{"css/admin.css", "js/admin.js", "js/respond.js"} {
		if _, err := fs.Stat(staticFS, file); err != nil {
			t.Errorf("required static file %q not found: %v", file, err)
		}
	}
}

// TestAdminPagesParse parses each page with the layout the way the server does
func TestAdminPagesParse(t *testing.T) {
	templatesFS := GetTemplatesFS()

	for _, page := range adminPages {
		t.Run(page, func(t *testing.T) {
			tmpl, err := template.ParseFS(templatesFS, "admin/layout.html", "admin/"+page+".html")
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			var out strings.Builder
			data := map[string]string{"Title": "T", "ActiveNav": page, "UserEmail": "admin@example.com"}
			if err := tmpl.ExecuteTemplate(&out, "admin", data); err != nil {
				t.Fatalf("execute failed: %v", err)
			}
			if !strings.Contains(out.String(), `data-nav="`+page+`"`) {
				t.Errorf("expected nav marker for %s", page)
			}
		})
	}
}

func TestRespondTemplateCarriesUUID(t *testing.T) {
	tmpl, err := template.ParseFS(GetTemplatesFS(), "survey/respond.html")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, map[string]string{"UUID": "abc-123"}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !strings.Contains(out.String(), `data-uuid="abc-123"`) {
		t.Error("expected survey uuid in page")
	}
}

func TestStaticFilesReadable(t *testing.T) {
	content, err := fs.ReadFile(GetStaticFS(), "js/admin.js")
	if err != nil {
		t.Fatalf("failed to read js/admin.js: %v", err)
	}
	if len(content) == 0 {
		t.Error("js/admin.js is empty")
	}
}
