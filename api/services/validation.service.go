package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"argg-api/pkg/config"
	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
)

// Submission defaults.
const (
	DefaultStatus  = "completed"
	DefaultRole    = "pointOfContact"
	DefaultPrivate = "Display"
)

type OrganizationLookup interface {
	LookupOrganization(ctx context.Context, id string) (*ontology.Organization, error)
}

// ValidationError names the first field of a submission that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes the error as a VALIDATION_FAILED AppError carrying the
// same message.
func (e *ValidationError) Unwrap() error {
	return shared.NewAppError(shared.ErrCodeValidationFailed, e.Message, nil).WithDetails(e.Field)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("Missing '$.%s'", field)}
}

func unknownOrganization(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Unknown organization specified in '$.%s'", field),
	}
}

type requirement struct {
	field   string
	present bool
	message string
}

type ValidationService struct {
	orgs    OrganizationLookup
	variant string
}

func NewValidationService(orgs OrganizationLookup, variant string) *ValidationService {
	if variant == "" {
		variant = config.VariantOwner
	}
	return &ValidationService{orgs: orgs, variant: variant}
}

func (s *ValidationService) Variant() string {
	return s.variant
}

// Validate normalizes req, checks its required fields in a fixed order and
// resolves organization display names. The returned error is always a
// *ValidationError.
func (s *ValidationService) Validate(ctx context.Context, req *ontology.SubmissionRequest) (*ontology.Submission, error) {
	req = fillContainers(req)

	if s.variant == config.VariantSubmitter {
		return s.validateSubmitter(ctx, req)
	}
	return s.validateOwner(ctx, req)
}

func (s *ValidationService) validateOwner(ctx context.Context, req *ontology.SubmissionRequest) (*ontology.Submission, error) {
	md := req.MetadataDetails
	owner := md.Owner
	contact := owner.ContactPerson
	submitter := req.SubmittedByPerson

	reqs := []requirement{
		{field: "metadata_details.title", present: md.Title != ""},
		{field: "metadata_details.description", present: md.Description != ""},
		{field: "metadata_details.owner.org_id", present: owner.OrgID != ""},
		{field: "metadata_details.owner.contact_person.name", present: contact.Name != ""},
		{field: "metadata_details.owner.contact_person.business_email", present: contact.BusinessEmail != ""},
	}
	reqs = append(reqs, securityRequirements(md)...)
	reqs = append(reqs,
		requirement{field: "submitted_by_person.name", present: submitter.Name != ""},
		requirement{
			field:   "submitted_by_person.org_id",
			present: submitter.OrgID != "" || submitter.OrgName != "",
			message: "Missing one of '$.submitted_by_person.org_id' or '$.submitted_by_person.org_name'",
		},
		requirement{field: "submitted_by_person.business_email", present: submitter.BusinessEmail != ""},
		requirement{field: "existing_api.base_url", present: req.ExistingAPI.BaseURL != ""},
	)
	if err := firstMissing(reqs); err != nil {
		return nil, err
	}

	sub := baseSubmission(req)

	var err error
	if sub.Owner, err = s.resolveParty(ctx, owner.OrgID, owner.SubOrgID,
		"metadata_details.owner.org_id", "", ""); err != nil {
		return nil, err
	}

	sub.Contact = contactPerson(contact, sub.Owner)
	if sub.Contact.Org, err = s.resolveParty(ctx, sub.Contact.Org.OrgID, sub.Contact.Org.SubOrgID,
		"metadata_details.owner.contact_person.org_id", "", ""); err != nil {
		return nil, err
	}

	sub.Submitter = person(submitter)
	if sub.Submitter.Org, err = s.resolveParty(ctx, submitter.OrgID, submitter.SubOrgID,
		"", "", submitter.OrgName); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *ValidationService) validateSubmitter(ctx context.Context, req *ontology.SubmissionRequest) (*ontology.Submission, error) {
	md := req.MetadataDetails
	owner := md.Owner
	submitter := md.SubmittedByPerson

	reqs := []requirement{
		{field: "metadata_details.title", present: md.Title != ""},
		{field: "metadata_details.description", present: md.Description != ""},
		{field: "metadata_details.owner.org_id", present: owner.OrgID != ""},
		{field: "metadata_details.owner.sub_org_id", present: owner.SubOrgID != ""},
		{field: "metadata_details.submitted_by_person.name", present: submitter.Name != ""},
		{field: "metadata_details.submitted_by_person.business_email", present: submitter.BusinessEmail != ""},
	}
	reqs = append(reqs, securityRequirements(md)...)
	reqs = append(reqs,
		requirement{field: "existing_api.base_url", present: req.ExistingAPI.BaseURL != ""},
		requirement{field: "gateway.use_gateway", present: req.Gateway.UseGateway != nil},
	)
	if err := firstMissing(reqs); err != nil {
		return nil, err
	}

	sub := baseSubmission(req)

	var err error
	if sub.Owner, err = s.resolveParty(ctx, owner.OrgID, owner.SubOrgID,
		"metadata_details.owner.org_id", "metadata_details.owner.sub_org_id", ""); err != nil {
		return nil, err
	}

	sub.Contact = contactPerson(submitter, sub.Owner)
	if sub.Contact.Org, err = s.resolveParty(ctx, sub.Contact.Org.OrgID, sub.Contact.Org.SubOrgID,
		"metadata_details.submitted_by_person.org_id", "", ""); err != nil {
		return nil, err
	}
	sub.Submitter = sub.Contact

	return sub, nil
}

func securityRequirements(md *ontology.MetadataDetailsInput) []requirement {
	sec := md.Security
	return []requirement{
		{field: "metadata_details.security.download_audience", present: sec.DownloadAudience != ""},
		{field: "metadata_details.security.view_audience", present: sec.ViewAudience != ""},
		{field: "metadata_details.security.metadata_visibility", present: sec.MetadataVisibility != ""},
		{field: "metadata_details.security.security_class", present: sec.SecurityClass != ""},
		{field: "metadata_details.license.license_id", present: md.License.LicenseID != ""},
	}
}

func firstMissing(reqs []requirement) *ValidationError {
	for _, r := range reqs {
		if r.present {
			continue
		}
		err := missingField(r.field)
		if r.message != "" {
			err.Message = r.message
		}
		return err
	}
	return nil
}

// resolveParty looks up both organizations of a party. A non-empty
// orgField or subOrgField makes that reference required. fallbackName is
// used as the organization name when it does not resolve.
func (s *ValidationService) resolveParty(ctx context.Context, orgID, subOrgID, orgField, subOrgField, fallbackName string) (ontology.Party, error) {
	party := ontology.Party{OrgID: orgID, SubOrgID: subOrgID}

	org := s.lookup(ctx, orgID)
	switch {
	case org != nil:
		party.OrgName = org.DisplayName()
	case orgField != "":
		return party, unknownOrganization(orgField)
	default:
		party.OrgName = fallbackName
	}

	subOrg := s.lookup(ctx, subOrgID)
	switch {
	case subOrg != nil:
		party.SubOrgName = subOrg.DisplayName()
	case subOrgField != "":
		return party, unknownOrganization(subOrgField)
	}

	return party, nil
}

// lookup treats catalog failures like unknown organizations.
func (s *ValidationService) lookup(ctx context.Context, id string) *ontology.Organization {
	if id == "" || s.orgs == nil {
		return nil
	}
	org, err := s.orgs.LookupOrganization(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("org_id", id).Msg("Organization lookup failed")
		return nil
	}
	return org
}

func fillContainers(req *ontology.SubmissionRequest) *ontology.SubmissionRequest {
	if req == nil {
		req = &ontology.SubmissionRequest{}
	}
	if req.SubmittedByPerson == nil {
		req.SubmittedByPerson = &ontology.PersonInput{}
	}
	if req.MetadataDetails == nil {
		req.MetadataDetails = &ontology.MetadataDetailsInput{}
	}
	md := req.MetadataDetails
	if md.Owner == nil {
		md.Owner = &ontology.OwnerInput{}
	}
	if md.Owner.ContactPerson == nil {
		md.Owner.ContactPerson = &ontology.PersonInput{}
	}
	if md.SubmittedByPerson == nil {
		md.SubmittedByPerson = &ontology.PersonInput{}
	}
	if md.Security == nil {
		md.Security = &ontology.SecurityInput{}
	}
	if md.License == nil {
		md.License = &ontology.LicenseInput{}
	}
	if req.ExistingAPI == nil {
		req.ExistingAPI = &ontology.ExistingAPIInput{}
	}
	if req.ExistingAPI.Supports == nil {
		req.ExistingAPI.Supports = &ontology.SupportsInput{}
	}
	if req.Gateway == nil {
		req.Gateway = &ontology.GatewayInput{}
	}
	return req
}

func baseSubmission(req *ontology.SubmissionRequest) *ontology.Submission {
	md := req.MetadataDetails
	api := req.ExistingAPI

	sub := &ontology.Submission{
		ExistingMetadataURL: req.ExistingMetadataURL,
		Title:               md.Title,
		Description:         md.Description,
		Status:              md.Status,
		Security: ontology.Security{
			DownloadAudience:   md.Security.DownloadAudience,
			ViewAudience:       md.Security.ViewAudience,
			MetadataVisibility: md.Security.MetadataVisibility,
			SecurityClass:      md.Security.SecurityClass,
		},
		LicenseID: md.License.LicenseID,
		API: ontology.ExistingAPI{
			BaseURL:       api.BaseURL,
			SupportsCORS:  api.Supports.CORS,
			SupportsHTTPS: api.Supports.HTTPS,
		},
		Gateway: ontology.Gateway{
			UseThrottling:  req.Gateway.UseThrottling,
			RestrictAccess: req.Gateway.RestrictAccess,
			APIShortname:   req.Gateway.APIShortname,
		},
	}
	if sub.Status == "" {
		sub.Status = DefaultStatus
	}
	if api.OpenAPISpecURL != "" {
		specURL := api.OpenAPISpecURL
		sub.API.OpenAPISpecURL = &specURL
	}
	if req.Gateway.UseGateway != nil {
		sub.Gateway.UseGateway = *req.Gateway.UseGateway
	}
	return sub
}

func person(in *ontology.PersonInput) ontology.Person {
	return ontology.Person{
		Name:    in.Name,
		Email:   in.BusinessEmail,
		Phone:   in.BusinessPhone,
		Role:    in.Role,
		Private: in.Private,
		Org:     ontology.Party{OrgID: in.OrgID, SubOrgID: in.SubOrgID},
	}
}

// contactPerson applies the contact defaults; the organization falls back
// to the owner's.
func contactPerson(in *ontology.PersonInput, owner ontology.Party) ontology.Person {
	p := person(in)
	if p.Org.OrgID == "" {
		p.Org.OrgID = owner.OrgID
	}
	if p.Org.SubOrgID == "" {
		p.Org.SubOrgID = owner.SubOrgID
	}
	if p.Role == "" {
		p.Role = DefaultRole
	}
	if p.Private == "" {
		p.Private = DefaultPrivate
	}
	return p
}
