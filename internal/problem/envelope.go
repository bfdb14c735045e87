package problem

import "strings"

// Envelope is the RFC 7807 body returned for every failed request.
type Envelope struct {
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Status        int               `json:"status"`
	Detail        string            `json:"detail"`
	Instance      string            `json:"instance"`
	CorrelationID string            `json:"correlation_id"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// Reporter turns errors into envelopes.
type Reporter struct {
	typeBase string
}

// NewReporter creates a Reporter whose type URIs start with typeBase.
func NewReporter(typeBase string) *Reporter {
	if typeBase == "" {
		typeBase = DefaultTypeBase
	}
	if !strings.HasSuffix(typeBase, "/") {
		typeBase += "/"
	}
	return &Reporter{typeBase: typeBase}
}

// TypeURI returns the type URI for kind.
func (r *Reporter) TypeURI(kind Kind) string {
	return r.typeBase + kind.Slug()
}

// Report builds the envelope for err. instance is the request path and
// correlationID the identifier assigned to the request.
func (r *Reporter) Report(err error, instance, correlationID string) Envelope {
	kind := KindOf(err)
	return Envelope{
		Type:          r.TypeURI(kind),
		Title:         kind.Title(),
		Status:        kind.Status(),
		Detail:        Detail(err),
		Instance:      instance,
		CorrelationID: correlationID,
		Errors:        FieldErrors(err),
	}
}
