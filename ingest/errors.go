package ingest

import "errors"

// Error kinds of the ingestion pipeline. Failure paths wrap one of
// these so callers and logs can classify with errors.Is.
var (
	ErrConfig            = errors.New("ConfigError")
	ErrSourceUnavailable = errors.New("SourceUnavailable")
	ErrFormat            = errors.New("FormatError")
	ErrTime              = errors.New("TimeError")
	ErrAdmissionRejected = errors.New("AdmissionRejected")
	ErrCancelled         = errors.New("Cancelled")
)

// kindOf names the error kind for structured logs.
func kindOf(err error) string {
	for _, k := range []error{ErrConfig, ErrSourceUnavailable, ErrFormat, ErrTime, ErrAdmissionRejected, ErrCancelled} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "Unknown"
}
