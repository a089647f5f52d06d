package handler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	docsPath    = "/api/v1/docs"
	openAPIPath = "/api/v1/docs/openapi.json"
)

//go:embed openapi.yaml
var openAPIDocument []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: {{.SpecURL}}, dom_id: "#swagger-ui"});</script>
</body>
</html>
`))

// docs holds the rendered documentation. The deployment stage only shows up
// here, as a path prefix, the same way API Gateway exposes it.
type docs struct {
	spec []byte
	page []byte
}

func newDocs(stage string) (*docs, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIDocument, &doc); err != nil {
		return nil, fmt.Errorf("handler: decode openapi document: %w", err)
	}
	prefix := stagePrefix(stage)
	if prefix != "" {
		doc["servers"] = []map[string]string{{"url": prefix}}
	}
	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("handler: encode openapi document: %w", err)
	}

	title := "CAPTAIN APP API"
	if info, ok := doc["info"].(map[string]any); ok {
		if t, ok := info["title"].(string); ok {
			title = t
		}
	}
	var page strings.Builder
	if err := docsPage.Execute(&page, struct {
		Title   string
		SpecURL string
	}{Title: title, SpecURL: prefix + openAPIPath}); err != nil {
		return nil, fmt.Errorf("handler: render docs page: %w", err)
	}
	return &docs{spec: spec, page: []byte(page.String())}, nil
}

func stagePrefix(stage string) string {
	stage = strings.Trim(strings.TrimSpace(stage), "/")
	if stage == "" {
		return ""
	}
	return "/" + stage
}
