// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreEntityNotFound    Code = "store.entity.get.not_found"
	CodeStoreDatabaseFailure   Code = "store.database.failure"
	CodeStoreInvalidInput      Code = "store.invalid_input"
	CodeStoreTenantMismatch    Code = "store.relationship.tenant.integrity_violation"
	CodeStoreRelationshipWrite Code = "store.relationship.insert.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeOracleRequestFailure   Code = "oracle.request.upstream_failure"
	CodeOracleResponseInvalid  Code = "oracle.response.invalid_format"
	CodeOracleBackendNotFound  Code = "oracle.backend.not_found"
	CodeOracleConfigMissingKey Code = "oracle.config.invalid_value"

	CodeGraphResolveFailure Code = "graph.resolve.failure"
	CodeGraphBuildFailure   Code = "graph.build.failure"

	CodeDiscoveryRunFailure  Code = "discovery.run.failure"
	CodeDiscoveryRunBusy     Code = "discovery.run.conflict"
	CodeDiscoveryRunCanceled Code = "discovery.run.canceled"

	CodeSearchExecuteFailure Code = "search.execute.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerEntityNotFound  Code = "server.entity.not_found"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLIInputInvalid Code = "cli.input.invalid"
	CodeCLISetupFailure Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldTenantID(value string) Attr {
	return Field("tenant_id", value)
}

func FieldEntityID(value string) Attr {
	return Field("entity_id", value)
}

func FieldEntityType(value string) Attr {
	return Field("entity_type", value)
}

func FieldSegmentID(value string) Attr {
	return Field("segment_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap annotates err with a code, message, and fields. If err already
// carries a code, that inner code is what CodeOf and the predicates report.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsIntegrityViolation reports data-integrity errors, e.g. a relationship
// edge referencing a segment in a different tenant. Distinct from not-found.
func IsIntegrityViolation(err error) bool {
	return reason(CodeOf(err)) == "integrity_violation"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "upstream_failure"
}

// IsOracleFailure reports any planner/classifier/summarizer error. Callers
// convert these to the documented fallback behavior, never propagate them.
func IsOracleFailure(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "oracle.")
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err), IsIntegrityViolation(err):
		return http.StatusBadRequest
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
