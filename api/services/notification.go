package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/aymerick/douceur/inliner"

	"argg-api/pkg/assets"
	"argg-api/pkg/ontology"
)

const notificationSubjectPrefix = "New API Registered - "

type notificationView struct {
	Stylesheet   template.CSS
	Title        string
	Description  string
	RecordID     string
	RecordWebURL string
	Owner        ontology.Party
	Contact      ontology.Person
	Submitter    ontology.Person
	API          ontology.ExistingAPI
	Gateway      ontology.Gateway
}

func NotificationSubject(title string) string {
	return notificationSubjectPrefix + title
}

// RenderNotification builds the HTML email body announcing a new record.
// The stylesheet ends up inlined into style attributes.
func RenderNotification(sub *ontology.Submission, recordID, recordWebURL string) (string, error) {
	view := notificationView{
		Stylesheet:   template.CSS(assets.EmailStylesheet),
		Title:        sub.Title,
		Description:  sub.Description,
		RecordID:     recordID,
		RecordWebURL: recordWebURL,
		Owner:        sub.Owner,
		Contact:      sub.Contact,
		Submitter:    sub.Submitter,
		API:          sub.API,
		Gateway:      sub.Gateway,
	}

	var buf bytes.Buffer
	if err := assets.NotificationTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}

	html, err := inliner.Inline(buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to inline notification styles: %w", err)
	}
	return html, nil
}
