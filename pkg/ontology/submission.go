package ontology

// SubmissionRequest is the body of POST /register as it arrives on the wire.
// Any nested object may be missing.
type SubmissionRequest struct {
	ExistingMetadataURL string                `json:"existing_metadata_url,omitempty"`
	MetadataDetails     *MetadataDetailsInput `json:"metadata_details,omitempty"`
	SubmittedByPerson   *PersonInput          `json:"submitted_by_person,omitempty"`
	ExistingAPI         *ExistingAPIInput     `json:"existing_api,omitempty"`
	Gateway             *GatewayInput         `json:"gateway,omitempty"`
}

type MetadataDetailsInput struct {
	Title             string         `json:"title,omitempty"`
	Description       string         `json:"description,omitempty"`
	Status            string         `json:"status,omitempty"`
	Owner             *OwnerInput    `json:"owner,omitempty"`
	SubmittedByPerson *PersonInput   `json:"submitted_by_person,omitempty"`
	Security          *SecurityInput `json:"security,omitempty"`
	License           *LicenseInput  `json:"license,omitempty"`
}

type OwnerInput struct {
	OrgID         string       `json:"org_id,omitempty"`
	SubOrgID      string       `json:"sub_org_id,omitempty"`
	ContactPerson *PersonInput `json:"contact_person,omitempty"`
}

type PersonInput struct {
	Name          string `json:"name,omitempty"`
	OrgID         string `json:"org_id,omitempty"`
	SubOrgID      string `json:"sub_org_id,omitempty"`
	OrgName       string `json:"org_name,omitempty"`
	BusinessEmail string `json:"business_email,omitempty"`
	BusinessPhone string `json:"business_phone,omitempty"`
	Role          string `json:"role,omitempty"`
	Private       string `json:"private,omitempty"`
}

type SecurityInput struct {
	DownloadAudience   string `json:"download_audience,omitempty"`
	ViewAudience       string `json:"view_audience,omitempty"`
	MetadataVisibility string `json:"metadata_visibility,omitempty"`
	SecurityClass      string `json:"security_class,omitempty"`
}

type LicenseInput struct {
	LicenseID string `json:"license_id,omitempty"`
}

type ExistingAPIInput struct {
	BaseURL        string         `json:"base_url,omitempty"`
	OpenAPISpecURL string         `json:"openapi_spec_url,omitempty"`
	Supports       *SupportsInput `json:"supports,omitempty"`
}

type SupportsInput struct {
	CORS  *bool `json:"cors,omitempty"`
	HTTPS *bool `json:"https,omitempty"`
}

type GatewayInput struct {
	UseGateway     *bool  `json:"use_gateway,omitempty"`
	UseThrottling  *bool  `json:"use_throttling,omitempty"`
	RestrictAccess *bool  `json:"restrict_access,omitempty"`
	APIShortname   string `json:"api_shortname,omitempty"`
}

// Submission is a validated registration with defaults applied and
// organization display names resolved.
type Submission struct {
	ExistingMetadataURL string

	Title       string
	Description string
	Status      string

	Owner     Party
	Contact   Person
	Submitter Person

	Security  Security
	LicenseID string

	API     ExistingAPI
	Gateway Gateway
}

// Party is an organization reference with its resolved display names.
// SubOrgName is empty when the sub-organization is unset or did not resolve.
type Party struct {
	OrgID      string
	OrgName    string
	SubOrgID   string
	SubOrgName string
}

type Person struct {
	Name    string
	Email   string
	Phone   string
	Role    string
	Private string
	Org     Party
}

type Security struct {
	DownloadAudience   string
	ViewAudience       string
	MetadataVisibility string
	SecurityClass      string
}

type ExistingAPI struct {
	BaseURL        string
	OpenAPISpecURL *string
	SupportsCORS   *bool
	SupportsHTTPS  *bool
}

type Gateway struct {
	UseGateway     bool
	UseThrottling  *bool
	RestrictAccess *bool
	APIShortname   string
}

// HasExistingRecord reports whether the API is already described by an
// external metadata record, in which case nothing is created.
func (s *Submission) HasExistingRecord() bool {
	return s.ExistingMetadataURL != ""
}
