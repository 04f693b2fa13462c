package ontology

// CatalogRecord is a catalog "package". Only the fields this service reads
// back are decoded.
type CatalogRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	State string `json:"state,omitempty"`
}

type CreateRecordRequest struct {
	Title              string     `json:"title"`
	Name               string     `json:"name"`
	Org                string     `json:"org"`
	SubOrg             string     `json:"sub_org"`
	OwnerOrg           string     `json:"owner_org"`
	Notes              string     `json:"notes"`
	Groups             []GroupRef `json:"groups"`
	State              string     `json:"state"`
	ResourceStatus     string     `json:"resource_status"`
	Type               string     `json:"type"`
	TagString          string     `json:"tag_string"`
	Tags               []TagRef   `json:"tags"`
	Sector             string     `json:"sector"`
	EDCState           string     `json:"edc_state"`
	DownloadAudience   string     `json:"download_audience"`
	ViewAudience       string     `json:"view_audience"`
	MetadataVisibility string     `json:"metadata_visibility"`
	SecurityClass      string     `json:"security_class"`
	LicenseID          string     `json:"license_id"`
	Contacts           []Contact  `json:"contacts"`
}

type GroupRef struct {
	ID string `json:"id"`
}

type TagRef struct {
	Name string `json:"name"`
}

type Contact struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Branch       string `json:"branch"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Private      string `json:"private"`
}

type Resource struct {
	ID        string `json:"id"`
	PackageID string `json:"package_id"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Name      string `json:"name"`
}

type CreateResourceRequest struct {
	PackageID string `json:"package_id"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Name      string `json:"name"`
}
