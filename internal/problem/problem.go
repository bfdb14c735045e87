// Package problem defines the error kinds raised by the wishlist core and the
// RFC 7807 envelope they are rendered into.
//
// Every failure that crosses the core/transport boundary is an oops error whose
// code is one of the Kind constants. The transport never inspects error text:
// it looks the kind up in a single table to find the status, title and type URI.
package problem

import (
	"fmt"
	"net/http"

	"github.com/samber/oops"
)

// Kind is the stable machine-readable identifier of a failure.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindConflict           Kind = "CONFLICT"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindAccessDenied       Kind = "ACCESS_DENIED"
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyReserved    Kind = "ALREADY_RESERVED"
	KindNotReserved        Kind = "NOT_RESERVED"
	KindStoreUnavailable   Kind = "STORE_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL"
)

// DefaultTypeBase prefixes the slug of every kind to form the envelope "type".
const DefaultTypeBase = "https://api.wishlist.com/errors/"

type descriptor struct {
	status int
	title  string
	slug   string
	// opaque kinds never expose the underlying error text
	opaque bool
	detail string
}

var descriptors = map[Kind]descriptor{
	KindValidation:         {status: http.StatusUnprocessableEntity, title: "Validation Error", slug: "validation-error"},
	KindConflict:           {status: http.StatusBadRequest, title: "Conflict", slug: "conflict"},
	KindInvalidCredentials: {status: http.StatusUnauthorized, title: "Invalid Credentials", slug: "invalid-credentials"},
	KindInvalidToken:       {status: http.StatusUnauthorized, title: "Invalid Token", slug: "invalid-token"},
	KindAccessDenied:       {status: http.StatusForbidden, title: "Access Denied", slug: "access-denied"},
	KindNotFound:           {status: http.StatusNotFound, title: "Not Found", slug: "not-found"},
	KindAlreadyReserved:    {status: http.StatusBadRequest, title: "Already Reserved", slug: "already-reserved"},
	KindNotReserved:        {status: http.StatusBadRequest, title: "Not Reserved", slug: "not-reserved"},
	KindStoreUnavailable: {
		status: http.StatusServiceUnavailable, title: "Store Unavailable", slug: "store-unavailable",
		opaque: true, detail: "the storage backend is temporarily unavailable",
	},
	KindInternal: {
		status: http.StatusInternalServerError, title: "Internal Server Error", slug: "internal-error",
		opaque: true, detail: "an unexpected error occurred",
	},
}

// Status returns the HTTP status the kind maps to.
func (k Kind) Status() int { return k.descriptor().status }

// Title returns the short human label of the kind.
func (k Kind) Title() string { return k.descriptor().title }

// Slug returns the path segment used in the envelope type URI.
func (k Kind) Slug() string { return k.descriptor().slug }

func (k Kind) descriptor() descriptor {
	if d, ok := descriptors[k]; ok {
		return d
	}
	return descriptors[KindInternal]
}

// Known reports whether k is one of the declared kinds.
func (k Kind) Known() bool {
	_, ok := descriptors[k]
	return ok
}

// New creates an error of the given kind. The formatted message becomes the
// envelope detail, so it must be safe to show to the caller.
func New(kind Kind, format string, args ...any) error {
	return oops.Code(string(kind)).Errorf(format, args...)
}

// Wrap attaches a kind to an underlying error, typically a storage failure.
func Wrap(kind Kind, err error, operation string) error {
	return oops.Code(string(kind)).With("operation", operation).Wrap(err)
}

// Validation creates a VALIDATION_ERROR carrying per-field messages.
func Validation(fields map[string]string, format string, args ...any) error {
	return oops.Code(string(KindValidation)).With("fields", fields).Errorf(format, args...)
}

// Conflict creates a CONFLICT error naming the field that collided.
func Conflict(field, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return oops.Code(string(KindConflict)).With("fields", map[string]string{field: msg}).Errorf("%s", msg)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// KindOf extracts the kind from err. Errors without a recognised code are INTERNAL.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if kind := Kind(fmt.Sprint(oopsErr.Code())); kind.Known() {
			return kind
		}
	}
	return KindInternal
}

// FieldErrors returns the per-field messages attached by Validation or Conflict, if any.
func FieldErrors(err error) map[string]string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	fields, _ := oopsErr.Context()["fields"].(map[string]string)
	return fields
}

// Detail returns the caller-facing explanation for err.
func Detail(err error) string {
	kind := KindOf(err)
	d := kind.descriptor()
	if d.opaque {
		return d.detail
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}
