package services

import (
	"regexp"
	"strings"

	"argg-api/pkg/catalog"
	"argg-api/pkg/config"
	"argg-api/pkg/ontology"
)

var nonWordRun = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Slugify lower-cases s and collapses every run of non-word characters
// into a single hyphen.
func Slugify(s string) string {
	return nonWordRun.ReplaceAllString(strings.ToLower(s), "-")
}

// RecordDefaults are the configured values a record falls back to.
type RecordDefaults struct {
	GroupID       string
	OwnerOrgID    string
	OwnerSubOrgID string
	OrgSource     string
}

func RecordDefaultsFrom(cfg *config.Config) RecordDefaults {
	return RecordDefaults{
		GroupID:       cfg.Catalog.GroupID,
		OwnerOrgID:    cfg.Catalog.OwnerOrgID,
		OwnerSubOrgID: cfg.Catalog.OwnerSubOrgID,
		OrgSource:     cfg.Registration.OrgSource,
	}
}

// BuildRecordRequest maps a validated submission onto a package_create call.
func BuildRecordRequest(sub *ontology.Submission, d RecordDefaults) *ontology.CreateRecordRequest {
	org, subOrg := d.OwnerOrgID, d.OwnerSubOrgID
	if d.OrgSource == config.OrgSourceSubmission {
		org = sub.Owner.OrgID
		if sub.Owner.SubOrgID != "" {
			subOrg = sub.Owner.SubOrgID
		}
	}

	contact := sub.Contact
	organization := orDefault(contact.Org.OrgID, d.OwnerOrgID)
	branch := orDefault(contact.Org.SubOrgID, d.OwnerSubOrgID)

	return &ontology.CreateRecordRequest{
		Title:              sub.Title,
		Name:               Slugify(sub.Title),
		Org:                org,
		SubOrg:             subOrg,
		OwnerOrg:           subOrg,
		Notes:              sub.Description,
		Groups:             []ontology.GroupRef{{ID: d.GroupID}},
		State:              catalog.RecordState,
		ResourceStatus:     orDefault(sub.Status, DefaultStatus),
		Type:               catalog.RecordType,
		TagString:          catalog.RecordTag,
		Tags:               []ontology.TagRef{{Name: catalog.RecordTag}},
		Sector:             catalog.RecordSector,
		EDCState:           catalog.RecordEDCState,
		DownloadAudience:   sub.Security.DownloadAudience,
		ViewAudience:       sub.Security.ViewAudience,
		MetadataVisibility: sub.Security.MetadataVisibility,
		SecurityClass:      sub.Security.SecurityClass,
		LicenseID:          sub.LicenseID,
		Contacts: []ontology.Contact{{
			Name:         contact.Name,
			Organization: organization,
			Branch:       branch,
			Email:        contact.Email,
			Role:         orDefault(contact.Role, DefaultRole),
			Private:      orDefault(contact.Private, DefaultPrivate),
		}},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
