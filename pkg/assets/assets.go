// Package assets embeds the static files served or rendered by the service.
package assets

import (
	_ "embed"
	"html/template"
)

//go:embed argg-api.openapi3.json
var OpenAPIDocument []byte

//go:embed email.css
var EmailStylesheet string

//go:embed templates/notification.html.tmpl
var notificationSource string

// NotificationTemplate renders the body of the "new API registered" email.
var NotificationTemplate = template.Must(template.New("notification").
	Funcs(template.FuncMap{"tristate": tristate}).
	Parse(notificationSource))

func tristate(b *bool) string {
	switch {
	case b == nil:
		return "unknown"
	case *b:
		return "true"
	default:
		return "false"
	}
}
