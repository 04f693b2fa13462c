package ontology

// Organization is a catalog organization as returned by organization_show.
type Organization struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title"`
}

// DisplayName prefers the title and falls back to the slug name.
func (o *Organization) DisplayName() string {
	if o == nil {
		return ""
	}
	if o.Title != "" {
		return o.Title
	}
	return o.Name
}
