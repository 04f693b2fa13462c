package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"argg-api/pkg/catalog"
	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
	"argg-api/pkg/tracing"
)

// Registration steps.
const (
	StepCreateRecord  = "create_record"
	StepRootResource  = "root_resource"
	StepSpecResource  = "spec_resource"
	StepNotify        = "notify"
	StepExistingCheck = "existing_record"
)

// Step statuses.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeWarning   = "warning"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

const createRecordFailedMsg = "Unable to create metadata record in the BC Data Catalog."

type CatalogClient interface {
	CreateRecord(ctx context.Context, req *ontology.CreateRecordRequest) (*ontology.CatalogRecord, error)
	CreateResource(ctx context.Context, req *ontology.CreateResourceRequest) (*ontology.Resource, error)
	RecordWebURL(id string) string
	RecordAPIURL(id string) string
}

type ContentProber interface {
	ContentType(ctx context.Context, url string) (string, error)
}

type Notifier interface {
	Send(ctx context.Context, recipients, subject, htmlBody string) error
}

type EventPublisher interface {
	PublishRegistration(ctx context.Context, event *shared.RegistrationEvent) error
}

type StepOutcome struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Report describes one run of the registration pipeline.
type Report struct {
	Title   string
	Skipped bool
	Record  *shared.MetadataRecordRef
	Steps   []StepOutcome
}

func (r *Report) add(step, status, reason string) {
	r.Steps = append(r.Steps, StepOutcome{Step: step, Status: status, Reason: reason})
}

func (r *Report) Status() string {
	if r.Skipped {
		return shared.StatusSkipped
	}
	status := shared.StatusCompleted
	for _, s := range r.Steps {
		switch s.Status {
		case OutcomeFailed:
			return shared.StatusFailed
		case OutcomeWarning:
			status = shared.StatusCompletedWithWarnings
		}
	}
	return status
}

// Warnings lists the reasons of the steps that completed with a warning.
func (r *Report) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Status == OutcomeWarning {
			out = append(out, fmt.Sprintf("%s: %s", s.Step, s.Reason))
		}
	}
	return out
}

// Response is the /register success body.
func (r *Report) Response() *shared.RegisterResponse {
	return &shared.RegisterResponse{NewMetadataRecord: r.Record}
}

type RegistrationService struct {
	catalog    CatalogClient
	prober     ContentProber
	notifier   Notifier
	events     EventPublisher
	tracer     trace.Tracer
	defaults   RecordDefaults
	recipients string
}

// NewRegistrationService wires the pipeline. events and tracer may be nil.
func NewRegistrationService(
	catalogClient CatalogClient,
	prober ContentProber,
	notifier Notifier,
	events EventPublisher,
	tracer trace.Tracer,
	defaults RecordDefaults,
	recipients string,
) *RegistrationService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(shared.ServiceName)
	}
	return &RegistrationService{
		catalog:    catalogClient,
		prober:     prober,
		notifier:   notifier,
		events:     events,
		tracer:     tracer,
		defaults:   defaults,
		recipients: recipients,
	}
}

// Register creates the catalog record for sub, attaches its resources and
// notifies the catalog administrators. Only a failure to create the record
// is returned as an error; later steps are recorded as warnings.
func (s *RegistrationService) Register(ctx context.Context, sub *ontology.Submission) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register",
		trace.WithAttributes(attribute.String("registration.title", sub.Title)))
	report := &Report{Title: sub.Title}

	if sub.HasExistingRecord() {
		report.Skipped = true
		report.add(StepExistingCheck, OutcomeSkipped, "existing metadata record "+sub.ExistingMetadataURL)
		span.SetAttributes(attribute.String("registration.status", report.Status()))
		tracing.EndSpan(span, nil)
		log.Info().Str("existing_metadata_url", sub.ExistingMetadataURL).Msg("Registration skipped")
		return report, nil
	}

	record, err := s.createRecord(ctx, sub)
	if err != nil {
		report.add(StepCreateRecord, OutcomeFailed, err.Error())
		s.finish(ctx, span, report)
		tracing.EndSpan(span, err)
		return report, err
	}
	report.add(StepCreateRecord, OutcomeSucceeded, "")
	report.Record = &shared.MetadataRecordRef{
		ID:     record.ID,
		WebURL: s.catalog.RecordWebURL(record.ID),
		APIURL: s.catalog.RecordAPIURL(record.ID),
	}

	s.attachRootResource(ctx, report, record.ID, sub)
	s.attachSpecResource(ctx, report, record.ID, sub)
	s.notify(ctx, report, sub)

	s.finish(ctx, span, report)
	tracing.EndSpan(span, nil)
	return report, nil
}

func (s *RegistrationService) createRecord(ctx context.Context, sub *ontology.Submission) (*ontology.CatalogRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registration.create_record")

	record, err := s.catalog.CreateRecord(ctx, BuildRecordRequest(sub, s.defaults))
	if err == nil && record.ID == "" {
		err = shared.NewAppError(shared.ErrCodeCatalogUnavailable, "catalog returned a record without id", nil)
	}
	tracing.EndSpan(span, err)
	if err == nil {
		return record, nil
	}

	if shared.IsCode(err, shared.ErrCodeCatalogRejected) {
		log.Warn().Err(err).Str("title", sub.Title).Msg("Catalog rejected metadata record")
		return nil, shared.NewAppError(shared.ErrCodeCatalogRejected,
			fmt.Sprintf("%s %s", createRecordFailedMsg, detailsOf(err)), err)
	}

	log.Error().Err(err).Str("title", sub.Title).Msg("Unable to create metadata record")
	return nil, shared.NewAppError(shared.ErrCodeCatalogUnavailable, createRecordFailedMsg, err)
}

func (s *RegistrationService) attachRootResource(ctx context.Context, report *Report, recordID string, sub *ontology.Submission) {
	ctx, span := s.tracer.Start(ctx, "registration.root_resource")

	format := catalog.FormatText
	if s.prober != nil {
		contentType, err := s.prober.ContentType(ctx, sub.API.BaseURL)
		if err != nil {
			log.Debug().Err(err).Str("url", sub.API.BaseURL).Msg("Content type probe failed")
		} else {
			format = catalog.FormatForContentType(contentType, catalog.FormatText)
		}
	}
	span.SetAttributes(attribute.String("resource.format", format))

	_, err := s.catalog.CreateResource(ctx, &ontology.CreateResourceRequest{
		PackageID: recordID,
		URL:       sub.API.BaseURL,
		Format:    format,
		Name:      catalog.ResourceAPIRoot,
	})
	tracing.EndSpan(span, err)
	if err != nil {
		log.Warn().Err(err).Str("record_id", recordID).
			Msg("Unable to create API root resource associated with the new metadata record")
		report.add(StepRootResource, OutcomeWarning, err.Error())
		return
	}
	report.add(StepRootResource, OutcomeSucceeded, "")
}

func (s *RegistrationService) attachSpecResource(ctx context.Context, report *Report, recordID string, sub *ontology.Submission) {
	if sub.API.OpenAPISpecURL == nil {
		report.add(StepSpecResource, OutcomeSkipped, "no openapi_spec_url")
		return
	}

	ctx, span := s.tracer.Start(ctx, "registration.spec_resource")
	_, err := s.catalog.CreateResource(ctx, &ontology.CreateResourceRequest{
		PackageID: recordID,
		URL:       *sub.API.OpenAPISpecURL,
		Format:    catalog.FormatOpenAPI,
		Name:      catalog.ResourceAPISpec,
	})
	tracing.EndSpan(span, err)
	if err != nil {
		log.Warn().Err(err).Str("record_id", recordID).
			Msg("Unable to create API spec resource associated with the new metadata record")
		report.add(StepSpecResource, OutcomeWarning, err.Error())
		return
	}
	report.add(StepSpecResource, OutcomeSucceeded, "")
}

func (s *RegistrationService) notify(ctx context.Context, report *Report, sub *ontology.Submission) {
	ctx, span := s.tracer.Start(ctx, "registration.notify")

	err := s.sendNotification(ctx, report.Record, sub)
	tracing.EndSpan(span, err)
	if err != nil {
		log.Error().Err(err).Str("code", string(shared.CodeOf(err))).Msg("Unable to send notification email")
		report.add(StepNotify, OutcomeWarning, err.Error())
		return
	}
	log.Debug().Str("recipients", s.recipients).Msg("Sent notification email")
	report.add(StepNotify, OutcomeSucceeded, "")
}

func (s *RegistrationService) sendNotification(ctx context.Context, record *shared.MetadataRecordRef, sub *ontology.Submission) error {
	if s.notifier == nil {
		return shared.NewAppError(shared.ErrCodeConfigError, "no notifier configured", nil)
	}
	body, err := RenderNotification(sub, record.ID, record.WebURL)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, s.recipients, NotificationSubject(sub.Title), body)
}

// finish publishes the outcome of a run. Publishing is best effort.
func (s *RegistrationService) finish(ctx context.Context, span trace.Span, report *Report) {
	status := report.Status()
	span.SetAttributes(attribute.String("registration.status", status))

	if s.events == nil {
		return
	}

	event := &shared.RegistrationEvent{
		ID:        uuid.New().String(),
		Type:      status,
		Subject:   shared.RegistrationSubject(status),
		Title:     report.Title,
		Warnings:  report.Warnings(),
		Timestamp: time.Now().UTC(),
		Source:    shared.ServiceName,
	}
	if report.Record != nil {
		event.RecordID = report.Record.ID
		event.WebURL = report.Record.WebURL
	}

	if err := s.events.PublishRegistration(ctx, event); err != nil {
		log.Warn().Err(err).Str("subject", event.Subject).Msg("Failed to publish registration event")
	}
}

func detailsOf(err error) string {
	if d := shared.DetailsOf(err); d != "" {
		return d
	}
	return err.Error()
}
