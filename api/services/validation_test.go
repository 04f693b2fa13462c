package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"argg-api/pkg/config"
	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
)

var testOrgs = knownOrgs{
	"org-1":  "Ministry of Citizens' Services",
	"sub-1":  "DataBC",
	"org-2":  "Ministry of Forests",
	"sub-2":  "Data Branch",
	"org-sb": "Submitter Ministry",
}

func boolPtr(b bool) *bool { return &b }

func validOwnerRequest() *ontology.SubmissionRequest {
	return &ontology.SubmissionRequest{
		MetadataDetails: &ontology.MetadataDetailsInput{
			Title:       "Parks API",
			Description: "Provincial parks",
			Owner: &ontology.OwnerInput{
				OrgID:    "org-1",
				SubOrgID: "sub-1",
				ContactPerson: &ontology.PersonInput{
					Name:          "Pat Contact",
					BusinessEmail: "pat@example.org",
				},
			},
			Security: &ontology.SecurityInput{
				DownloadAudience:   "Public",
				ViewAudience:       "Public",
				MetadataVisibility: "Public",
				SecurityClass:      "LOW-PUBLIC",
			},
			License: &ontology.LicenseInput{LicenseID: "2"},
		},
		SubmittedByPerson: &ontology.PersonInput{
			Name:          "Sam Submitter",
			OrgID:         "org-sb",
			BusinessEmail: "sam@example.org",
		},
		ExistingAPI: &ontology.ExistingAPIInput{BaseURL: "https://api.example.org/parks"},
	}
}

func validSubmitterRequest() *ontology.SubmissionRequest {
	return &ontology.SubmissionRequest{
		MetadataDetails: &ontology.MetadataDetailsInput{
			Title:       "Parks API",
			Description: "Provincial parks",
			Owner:       &ontology.OwnerInput{OrgID: "org-1", SubOrgID: "sub-1"},
			SubmittedByPerson: &ontology.PersonInput{
				Name:          "Sam Submitter",
				BusinessEmail: "sam@example.org",
			},
			Security: &ontology.SecurityInput{
				DownloadAudience:   "Public",
				ViewAudience:       "Public",
				MetadataVisibility: "Public",
				SecurityClass:      "LOW-PUBLIC",
			},
			License: &ontology.LicenseInput{LicenseID: "2"},
		},
		ExistingAPI: &ontology.ExistingAPIInput{BaseURL: "https://api.example.org/parks"},
		Gateway:     &ontology.GatewayInput{UseGateway: boolPtr(false)},
	}
}

func requireValidationError(t *testing.T, err error, field, message string) {
	t.Helper()
	require.Error(t, err)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %T", err)
	assert.Equal(t, field, vErr.Field)
	assert.Equal(t, message, vErr.Message)

	assert.Equal(t, shared.ErrCodeValidationFailed, shared.CodeOf(err))
	assert.Equal(t, http.StatusBadRequest, shared.HTTPStatusOf(err))
	assert.Equal(t, field, shared.DetailsOf(err))
}

func TestValidate_Owner_Success(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)

	sub, err := v.Validate(context.Background(), validOwnerRequest())
	require.NoError(t, err)

	assert.Equal(t, "Parks API", sub.Title)
	assert.Equal(t, DefaultStatus, sub.Status)
	assert.Equal(t, "Ministry of Citizens' Services", sub.Owner.OrgName)
	assert.Equal(t, "DataBC", sub.Owner.SubOrgName)

	assert.Equal(t, "org-1", sub.Contact.Org.OrgID, "contact org defaults to owner org")
	assert.Equal(t, "sub-1", sub.Contact.Org.SubOrgID, "contact sub-org defaults to owner sub-org")
	assert.Equal(t, "Ministry of Citizens' Services", sub.Contact.Org.OrgName)
	assert.Equal(t, DefaultRole, sub.Contact.Role)
	assert.Equal(t, DefaultPrivate, sub.Contact.Private)

	assert.Equal(t, "Sam Submitter", sub.Submitter.Name)
	assert.Equal(t, "Submitter Ministry", sub.Submitter.Org.OrgName)
	assert.Nil(t, sub.API.OpenAPISpecURL)
	assert.False(t, sub.Gateway.UseGateway)
}

func TestValidate_Owner_RequiredFieldOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ontology.SubmissionRequest)
		field   string
		message string
	}{
		{"empty body", func(r *ontology.SubmissionRequest) { *r = ontology.SubmissionRequest{} },
			"metadata_details.title", "Missing '$.metadata_details.title'"},
		{"title", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Title = "" },
			"metadata_details.title", "Missing '$.metadata_details.title'"},
		{"description", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Description = "" },
			"metadata_details.description", "Missing '$.metadata_details.description'"},
		{"owner missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner = nil },
			"metadata_details.owner.org_id", "Missing '$.metadata_details.owner.org_id'"},
		{"contact name", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner.ContactPerson.Name = "" },
			"metadata_details.owner.contact_person.name", "Missing '$.metadata_details.owner.contact_person.name'"},
		{"contact email", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner.ContactPerson.BusinessEmail = "" },
			"metadata_details.owner.contact_person.business_email",
			"Missing '$.metadata_details.owner.contact_person.business_email'"},
		{"security missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security = nil },
			"metadata_details.security.download_audience", "Missing '$.metadata_details.security.download_audience'"},
		{"view audience", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.ViewAudience = "" },
			"metadata_details.security.view_audience", "Missing '$.metadata_details.security.view_audience'"},
		{"metadata visibility", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.MetadataVisibility = "" },
			"metadata_details.security.metadata_visibility", "Missing '$.metadata_details.security.metadata_visibility'"},
		{"security class", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.SecurityClass = "" },
			"metadata_details.security.security_class", "Missing '$.metadata_details.security.security_class'"},
		{"license", func(r *ontology.SubmissionRequest) { r.MetadataDetails.License = nil },
			"metadata_details.license.license_id", "Missing '$.metadata_details.license.license_id'"},
		{"submitter missing", func(r *ontology.SubmissionRequest) { r.SubmittedByPerson = nil },
			"submitted_by_person.name", "Missing '$.submitted_by_person.name'"},
		{"submitter org", func(r *ontology.SubmissionRequest) { r.SubmittedByPerson.OrgID = "" },
			"submitted_by_person.org_id",
			"Missing one of '$.submitted_by_person.org_id' or '$.submitted_by_person.org_name'"},
		{"submitter email", func(r *ontology.SubmissionRequest) { r.SubmittedByPerson.BusinessEmail = "" },
			"submitted_by_person.business_email", "Missing '$.submitted_by_person.business_email'"},
		{"base url", func(r *ontology.SubmissionRequest) { r.ExistingAPI = nil },
			"existing_api.base_url", "Missing '$.existing_api.base_url'"},
		{"first of several", func(r *ontology.SubmissionRequest) {
			r.MetadataDetails.Security.SecurityClass = ""
			r.ExistingAPI.BaseURL = ""
			r.MetadataDetails.Description = ""
		}, "metadata_details.description", "Missing '$.metadata_details.description'"},
	}

	v := NewValidationService(testOrgs, config.VariantOwner)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOwnerRequest()
			tt.mutate(req)
			_, err := v.Validate(context.Background(), req)
			requireValidationError(t, err, tt.field, tt.message)
		})
	}
}

func TestValidate_Owner_GatewayFlagOptional(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)
	req := validOwnerRequest()
	req.Gateway = nil

	_, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
}

func TestValidate_Owner_SubmitterOrgNameFallback(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)
	req := validOwnerRequest()
	req.SubmittedByPerson.OrgID = ""
	req.SubmittedByPerson.OrgName = "Some Contractor Ltd."

	sub, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Some Contractor Ltd.", sub.Submitter.Org.OrgName)
}

func TestValidate_Owner_UnknownOrganizations(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)

	req := validOwnerRequest()
	req.MetadataDetails.Owner.OrgID = "nope"
	_, err := v.Validate(context.Background(), req)
	requireValidationError(t, err, "metadata_details.owner.org_id",
		"Unknown organization specified in '$.metadata_details.owner.org_id'")

	req = validOwnerRequest()
	req.MetadataDetails.Owner.ContactPerson.OrgID = "nope"
	_, err = v.Validate(context.Background(), req)
	requireValidationError(t, err, "metadata_details.owner.contact_person.org_id",
		"Unknown organization specified in '$.metadata_details.owner.contact_person.org_id'")
}

func TestValidate_Owner_UnknownOptionalOrganizations(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)
	req := validOwnerRequest()
	req.MetadataDetails.Owner.SubOrgID = "nope"
	req.SubmittedByPerson.OrgID = "nope"
	req.SubmittedByPerson.SubOrgID = "nope-either"

	sub, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "nope", sub.Owner.SubOrgID)
	assert.Empty(t, sub.Owner.SubOrgName)
	assert.Empty(t, sub.Submitter.Org.OrgName)
	assert.Empty(t, sub.Submitter.Org.SubOrgName)
}

func TestValidate_LookupFailureCountsAsUnknown(t *testing.T) {
	orgs := &mockOrgs{}
	orgs.On("LookupOrganization", mock.Anything, "org-1").Return(nil, errors.New("catalog down"))

	v := NewValidationService(orgs, config.VariantOwner)
	_, err := v.Validate(context.Background(), validOwnerRequest())
	requireValidationError(t, err, "metadata_details.owner.org_id",
		"Unknown organization specified in '$.metadata_details.owner.org_id'")
}

func TestValidate_EmptyIDsAreNeverLookedUp(t *testing.T) {
	orgs := &mockOrgs{}
	orgs.On("LookupOrganization", mock.Anything, "org-1").
		Return(&ontology.Organization{ID: "org-1", Title: "Ministry"}, nil)

	req := validOwnerRequest()
	req.MetadataDetails.Owner.SubOrgID = ""
	req.SubmittedByPerson.OrgID = ""
	req.SubmittedByPerson.OrgName = "Contractor"

	v := NewValidationService(orgs, config.VariantOwner)
	_, err := v.Validate(context.Background(), req)
	require.NoError(t, err)

	orgs.AssertNotCalled(t, "LookupOrganization", mock.Anything, "")
	orgs.AssertNumberOfCalls(t, "LookupOrganization", 2)
}

func TestValidate_OpenAPIAndGatewayFields(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantOwner)
	req := validOwnerRequest()
	req.MetadataDetails.Status = "onGoing"
	req.ExistingAPI.OpenAPISpecURL = "https://api.example.org/parks/openapi.json"
	req.ExistingAPI.Supports = &ontology.SupportsInput{HTTPS: boolPtr(true)}
	req.Gateway = &ontology.GatewayInput{UseGateway: boolPtr(true), RestrictAccess: boolPtr(false), APIShortname: "parks"}

	sub, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "onGoing", sub.Status)
	require.NotNil(t, sub.API.OpenAPISpecURL)
	assert.Equal(t, "https://api.example.org/parks/openapi.json", *sub.API.OpenAPISpecURL)
	assert.Nil(t, sub.API.SupportsCORS)
	require.NotNil(t, sub.API.SupportsHTTPS)
	assert.True(t, *sub.API.SupportsHTTPS)
	assert.True(t, sub.Gateway.UseGateway)
	assert.Nil(t, sub.Gateway.UseThrottling)
	require.NotNil(t, sub.Gateway.RestrictAccess)
	assert.Equal(t, "parks", sub.Gateway.APIShortname)
}

func TestValidate_Submitter_Success(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantSubmitter)

	sub, err := v.Validate(context.Background(), validSubmitterRequest())
	require.NoError(t, err)

	assert.Equal(t, "DataBC", sub.Owner.SubOrgName)
	assert.Equal(t, "Sam Submitter", sub.Contact.Name)
	assert.Equal(t, "org-1", sub.Contact.Org.OrgID)
	assert.Equal(t, DefaultRole, sub.Contact.Role)
	assert.Equal(t, sub.Contact, sub.Submitter)
	assert.False(t, sub.Gateway.UseGateway)
}

func TestValidate_Submitter_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ontology.SubmissionRequest)
		field  string
	}{
		{"title", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Title = "" },
			"metadata_details.title"},
		{"description", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Description = "" },
			"metadata_details.description"},
		{"owner org", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner.OrgID = "" },
			"metadata_details.owner.org_id"},
		{"owner missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner = nil },
			"metadata_details.owner.org_id"},
		{"owner sub-org", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Owner.SubOrgID = "" },
			"metadata_details.owner.sub_org_id"},
		{"submitter name", func(r *ontology.SubmissionRequest) { r.MetadataDetails.SubmittedByPerson.Name = "" },
			"metadata_details.submitted_by_person.name"},
		{"submitter missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.SubmittedByPerson = nil },
			"metadata_details.submitted_by_person.name"},
		{"submitter email", func(r *ontology.SubmissionRequest) { r.MetadataDetails.SubmittedByPerson.BusinessEmail = "" },
			"metadata_details.submitted_by_person.business_email"},
		{"download audience", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.DownloadAudience = "" },
			"metadata_details.security.download_audience"},
		{"view audience", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.ViewAudience = "" },
			"metadata_details.security.view_audience"},
		{"metadata visibility", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.MetadataVisibility = "" },
			"metadata_details.security.metadata_visibility"},
		{"security class", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security.SecurityClass = "" },
			"metadata_details.security.security_class"},
		{"security missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.Security = nil },
			"metadata_details.security.download_audience"},
		{"license", func(r *ontology.SubmissionRequest) { r.MetadataDetails.License.LicenseID = "" },
			"metadata_details.license.license_id"},
		{"license missing", func(r *ontology.SubmissionRequest) { r.MetadataDetails.License = nil },
			"metadata_details.license.license_id"},
		{"base url", func(r *ontology.SubmissionRequest) { r.ExistingAPI.BaseURL = "" },
			"existing_api.base_url"},
		{"existing api missing", func(r *ontology.SubmissionRequest) { r.ExistingAPI = nil },
			"existing_api.base_url"},
		{"gateway flag", func(r *ontology.SubmissionRequest) { r.Gateway.UseGateway = nil },
			"gateway.use_gateway"},
		{"gateway missing", func(r *ontology.SubmissionRequest) { r.Gateway = nil },
			"gateway.use_gateway"},
	}

	v := NewValidationService(testOrgs, config.VariantSubmitter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitterRequest()
			tt.mutate(req)
			_, err := v.Validate(context.Background(), req)
			requireValidationError(t, err, tt.field, "Missing '$."+tt.field+"'")
		})
	}
}

func TestValidate_Submitter_UnknownSubOrgIsRequired(t *testing.T) {
	v := NewValidationService(testOrgs, config.VariantSubmitter)
	req := validSubmitterRequest()
	req.MetadataDetails.Owner.SubOrgID = "nope"

	_, err := v.Validate(context.Background(), req)
	requireValidationError(t, err, "metadata_details.owner.sub_org_id",
		"Unknown organization specified in '$.metadata_details.owner.sub_org_id'")
}

func TestValidate_DefaultsToOwnerVariant(t *testing.T) {
	v := NewValidationService(testOrgs, "")
	assert.Equal(t, config.VariantOwner, v.Variant())
}
