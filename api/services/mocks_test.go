package services

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
)

type mockOrgs struct {
	mock.Mock
}

func (m *mockOrgs) LookupOrganization(ctx context.Context, id string) (*ontology.Organization, error) {
	args := m.Called(ctx, id)
	org, _ := args.Get(0).(*ontology.Organization)
	return org, args.Error(1)
}

// knownOrgs answers lookups from a fixed table.
type knownOrgs map[string]string

func (k knownOrgs) LookupOrganization(_ context.Context, id string) (*ontology.Organization, error) {
	title, ok := k[id]
	if !ok {
		return nil, nil
	}
	return &ontology.Organization{ID: id, Name: id, Title: title}, nil
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CreateRecord(ctx context.Context, req *ontology.CreateRecordRequest) (*ontology.CatalogRecord, error) {
	args := m.Called(ctx, req)
	rec, _ := args.Get(0).(*ontology.CatalogRecord)
	return rec, args.Error(1)
}

func (m *mockCatalog) CreateResource(ctx context.Context, req *ontology.CreateResourceRequest) (*ontology.Resource, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ontology.Resource)
	return res, args.Error(1)
}

func (m *mockCatalog) RecordWebURL(id string) string {
	return fmt.Sprintf("https://catalogue.example.org/dataset/%s", id)
}

func (m *mockCatalog) RecordAPIURL(id string) string {
	return fmt.Sprintf("https://catalogue.example.org/api/3/action/package_show?id=%s", id)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) ContentType(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, recipients, subject, htmlBody string) error {
	args := m.Called(ctx, recipients, subject, htmlBody)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRegistration(ctx context.Context, event *shared.RegistrationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
