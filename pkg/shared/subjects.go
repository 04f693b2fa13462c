package shared

import "fmt"

// NATS Subject patterns
const (
	SubjectRegistrations    = "argg.registrations"
	SubjectRegistrationsAll = SubjectRegistrations + ".>"
	SubjectRegistration     = SubjectRegistrations + ".%s" // outcome status
)

// Stream names
const (
	StreamRegistrations = "ARGG_REGISTRATIONS"
)

// Consumer names
const (
	ConsumerRegistrationAudit = "registration-audit"
)

func RegistrationSubject(status string) string {
	return fmt.Sprintf(SubjectRegistration, status)
}
