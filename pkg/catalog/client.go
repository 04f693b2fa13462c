// Package catalog talks to the CKAN-style action API of the data catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"

	"argg-api/pkg/cache"
	"argg-api/pkg/config"
	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
)

// Fixed values of every record this service creates.
const (
	RecordState     = "active"
	RecordType      = "WebService"
	RecordTag       = "API"
	RecordSector    = "Service"
	RecordEDCState  = "DRAFT"
	ResourceAPIRoot = "API root"
	ResourceAPISpec = "API specification"
)

const (
	actionPackageCreate      = "package_create"
	actionPackageDelete      = "package_delete"
	actionResourceCreate     = "resource_create"
	actionOrganizationShow   = "organization_show"
	organizationCacheUseCase = "catalog-organizations"
)

type Client struct {
	baseURL string
	apiPath string
	apiKey  string
	http    *resty.Client
	orgs    *cache.ReadThrough[*ontology.Organization]
}

type actionResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *actionError    `json:"error,omitempty"`
}

type actionError struct {
	Message string `json:"message"`
	Type    string `json:"__type"`
}

func New(cfg config.CatalogConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiPath: cfg.APIPath,
		apiKey:  cfg.APIKey,
		http:    resty.New(),
	}

	var orgCache cache.Manager[*ontology.Organization]
	if cfg.OrgCacheTTL > 0 {
		orgCache = cache.NewInMemoryManager[*ontology.Organization](
			organizationCacheUseCase, cfg.OrgCacheTTL, cache.DefaultCleanupInterval)
	}
	c.orgs = cache.NewReadThrough(orgCache, c.fetchOrganization,
		func(org *ontology.Organization) bool { return org != nil }, cfg.OrgCacheTTL)

	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) CreateRecord(ctx context.Context, req *ontology.CreateRecordRequest) (*ontology.CatalogRecord, error) {
	var record ontology.CatalogRecord
	if err := c.post(ctx, actionPackageCreate, req, &record); err != nil {
		return nil, err
	}
	log.Debug().Str("record_id", record.ID).Str("web_url", c.RecordWebURL(record.ID)).Msg("Created metadata record")
	return &record, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.post(ctx, actionPackageDelete, map[string]string{"id": id}, nil)
}

func (c *Client) CreateResource(ctx context.Context, req *ontology.CreateResourceRequest) (*ontology.Resource, error) {
	var resource ontology.Resource
	if err := c.post(ctx, actionResourceCreate, req, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// LookupOrganization returns nil without error when the catalog does not
// know the organization. An empty id is never looked up.
func (c *Client) LookupOrganization(ctx context.Context, id string) (*ontology.Organization, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	return c.orgs.Get(ctx, id)
}

func (c *Client) fetchOrganization(ctx context.Context, id string) (*ontology.Organization, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.apiKey).
		SetQueryParam("id", id).
		Get(c.actionURL(actionOrganizationShow))
	if err != nil {
		return nil, shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("failed to call %s", actionOrganizationShow), err)
	}

	if res.StatusCode() == http.StatusNotFound {
		return nil, nil
	}

	var org ontology.Organization
	if err := decodeAction(actionOrganizationShow, res.StatusCode(), res.String(), &org); err != nil {
		return nil, err
	}
	if org.ID == "" {
		return nil, nil
	}
	return &org, nil
}

// RecordWebURL is the human-facing page of a record.
func (c *Client) RecordWebURL(id string) string {
	return fmt.Sprintf("%s/dataset/%s", c.baseURL, id)
}

// RecordAPIURL is the package_show call for a record.
func (c *Client) RecordAPIURL(id string) string {
	return fmt.Sprintf("%s?id=%s", c.actionURL("package_show"), id)
}

func (c *Client) actionURL(action string) string {
	return fmt.Sprintf("%s%s/action/%s", c.baseURL, c.apiPath, action)
}

func (c *Client) post(ctx context.Context, action string, body any, out any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", c.apiKey).
		SetBody(body).
		Post(c.actionURL(action))
	if err != nil {
		return shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("failed to call %s", action), err)
	}
	return decodeAction(action, res.StatusCode(), res.String(), out)
}

// decodeAction unwraps the {"success", "result"} envelope. 4xx answers are
// the caller's fault; everything else that is not a successful envelope is
// reported as the catalog being unavailable.
func decodeAction(action string, status int, body string, out any) error {
	if status >= 400 && status < 500 {
		return shared.NewAppError(shared.ErrCodeCatalogRejected,
			fmt.Sprintf("catalog rejected %s", action), nil).
			WithDetails(fmt.Sprintf("%d %s", status, body))
	}
	if status >= 500 {
		return shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("catalog failed %s", action), nil).
			WithDetails(fmt.Sprintf("%d %s", status, body))
	}

	var env actionResponse
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("failed to decode %s response", action), err)
	}
	if !env.Success {
		msg := "success=false"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("unexpected %s response", action), nil).WithDetails(msg)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return shared.NewAppError(shared.ErrCodeCatalogUnavailable,
			fmt.Sprintf("failed to decode %s result", action), err)
	}
	return nil
}
