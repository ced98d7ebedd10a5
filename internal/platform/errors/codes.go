// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"
	"strings"
)

// Code is a machine-readable error code.
type Code string

// Kind separates business rule failures from infrastructure faults.
type Kind string

const (
	// KindBusiness covers validation, authorization, and state rule failures.
	KindBusiness Kind = "business"
	// KindInfrastructure covers storage and other runtime faults.
	KindInfrastructure Kind = "infrastructure"
)

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Directory errors
	CodePartyNotFound    Code = "PARTY_NOT_FOUND"
	CodeStoreNotFound    Code = "STORE_NOT_FOUND"
	CodeMissingStoreData Code = "MISSING_STORE_DATA"

	// Proposal input errors
	CodeTitleRequired         Code = "TITLE_REQUIRED"
	CodeDescriptionRequired   Code = "DESCRIPTION_REQUIRED"
	CodeTargetStoreRequired   Code = "TARGET_STORE_REQUIRED"
	CodeInvalidDateFormat     Code = "INVALID_DATE_FORMAT"
	CodeInvalidDateRange      Code = "INVALID_DATE_RANGE"
	CodeSourceStoreMismatch   Code = "SOURCE_STORE_MISMATCH"
	CodeSourceProductMismatch Code = "SOURCE_PRODUCT_MISMATCH"
	CodeTargetProductMismatch Code = "TARGET_PRODUCT_MISMATCH"

	// Lifecycle errors
	CodeProposalNotFound   Code = "PROPOSAL_NOT_FOUND"
	CodeAgreementNotFound  Code = "AGREEMENT_NOT_FOUND"
	CodeAlreadyProcessed   Code = "ALREADY_PROCESSED"
	CodeDuplicateAgreement Code = "DUPLICATE_AGREEMENT"
	CodeUnauthorizedAction Code = "UNAUTHORIZED_ACTION"

	// Infrastructure errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// Kind reports whether the code is a business or infrastructure failure.
func (c Code) Kind() Kind {
	switch c {
	case CodeStorageFailure, CodeUnknown:
		return KindInfrastructure
	default:
		return KindBusiness
	}
}

// Slug returns the lower-case form used in redirect query strings.
func (c Code) Slug() string {
	return strings.ToLower(string(c))
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeTitleRequired,
		CodeDescriptionRequired,
		CodeTargetStoreRequired,
		CodeInvalidDateFormat,
		CodeInvalidDateRange,
		CodeSourceStoreMismatch,
		CodeSourceProductMismatch,
		CodeTargetProductMismatch:
		return http.StatusBadRequest

	// NotFound - resource doesn't exist
	case CodePartyNotFound,
		CodeStoreNotFound,
		CodeProposalNotFound,
		CodeAgreementNotFound:
		return http.StatusNotFound

	case CodeUnauthorizedAction:
		return http.StatusForbidden

	// Conflict - state doesn't allow operation
	case CodeAlreadyProcessed,
		CodeDuplicateAgreement,
		CodeMissingStoreData:
		return http.StatusConflict

	case CodeStorageFailure:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// Codes lists every code a caller can observe, in declaration order.
func Codes() []Code {
	return []Code{
		CodePartyNotFound,
		CodeStoreNotFound,
		CodeMissingStoreData,
		CodeTitleRequired,
		CodeDescriptionRequired,
		CodeTargetStoreRequired,
		CodeInvalidDateFormat,
		CodeInvalidDateRange,
		CodeSourceStoreMismatch,
		CodeSourceProductMismatch,
		CodeTargetProductMismatch,
		CodeProposalNotFound,
		CodeAgreementNotFound,
		CodeAlreadyProcessed,
		CodeDuplicateAgreement,
		CodeUnauthorizedAction,
		CodeStorageFailure,
	}
}
