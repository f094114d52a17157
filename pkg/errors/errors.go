// Unified error handling for Motion Minder
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Scan errors. Only INPUT_UNAVAILABLE is ever returned from a scan;
	// malformed parameters and unrecognized commands are silently dropped
	// and surface solely as diagnostics counters.
	ErrInputUnavailable ErrorCode = "INPUT_UNAVAILABLE"
	ErrMalformedParam   ErrorCode = "MALFORMED_PARAM"
	ErrUnrecognizedCmd  ErrorCode = "UNRECOGNIZED_CMD"

	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Odometer bookkeeping errors
	ErrInvalidUnit      ErrorCode = "INVALID_UNIT"
	ErrInvalidAxis      ErrorCode = "INVALID_AXIS"
	ErrInvalidValue     ErrorCode = "INVALID_VALUE"
	ErrMaintenanceUnset ErrorCode = "MAINTENANCE_UNSET"

	// Store errors
	ErrStoreOpen   ErrorCode = "STORE_OPEN"
	ErrStoreDecode ErrorCode = "STORE_DECODE"
	ErrStoreSave   ErrorCode = "STORE_SAVE"

	// Job history errors
	ErrHistoryManifest ErrorCode = "HISTORY_MANIFEST"

	// Report rendering errors
	ErrReportTemplate ErrorCode = "REPORT_TEMPLATE"
)

// HostError is the unified error type for the toolkit
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Scan errors

// InputUnavailableError creates the fatal error for an unreadable input source
func InputUnavailableError(source string, err error) *HostError {
	return Wrap(err, ErrInputUnavailable, fmt.Sprintf("cannot read input '%s'", source)).
		SetContext("source", source)
}

// Config errors

// ConfigSectionError creates an error for a missing config section
func ConfigSectionError(section string) *HostError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for a missing config option
func ConfigOptionError(section, option string) *HostError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *HostError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for config type conversion failure
func ConfigTypeError(section, option, value string, targetType string) *HostError {
	return New(ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Odometer errors

// InvalidUnitError creates an error for an unknown distance unit
func InvalidUnitError(unit string) *HostError {
	return New(ErrInvalidUnit, fmt.Sprintf("invalid unit '%s'", unit))
}

// InvalidAxisError creates an error for an unknown axis name
func InvalidAxisError(axis string) *HostError {
	return New(ErrInvalidAxis, fmt.Sprintf("invalid '%s' axis", axis))
}

// InvalidValueError creates an error for an out-of-domain numeric argument
func InvalidValueError(what string, value float64) *HostError {
	return New(ErrInvalidValue, fmt.Sprintf("invalid %s value %v", what, value))
}

// MaintenanceUnsetError creates an error for a missing maintenance threshold
func MaintenanceUnsetError(axis string) *HostError {
	return New(ErrMaintenanceUnset, fmt.Sprintf("no maintenance set for '%s' axis", axis))
}

// Store errors

// StoreOpenError creates an error for an unreadable store snapshot
func StoreOpenError(path string, err error) *HostError {
	return Wrap(err, ErrStoreOpen, fmt.Sprintf("cannot open store '%s'", path))
}

// StoreDecodeError creates an error for a corrupt store snapshot
func StoreDecodeError(path string, err error) *HostError {
	return Wrap(err, ErrStoreDecode, fmt.Sprintf("cannot decode store '%s'", path))
}

// StoreSaveError creates an error for a failed snapshot write
func StoreSaveError(path string, err error) *HostError {
	return Wrap(err, ErrStoreSave, fmt.Sprintf("cannot save store '%s'", path))
}

// History errors

// ManifestError creates an error for an unreadable job manifest
func ManifestError(path string, err error) *HostError {
	return Wrap(err, ErrHistoryManifest, fmt.Sprintf("cannot load job manifest '%s'", path))
}

// Report errors

// TemplateError creates an error for a bad report template
func TemplateError(err error) *HostError {
	return Wrap(err, ErrReportTemplate, "cannot render report template")
}

// Is checks if the error matches the given error code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := err.(*HostError); ok {
		return hostErr.Code == code
	}
	return false
}

// AsHostError extracts a *HostError if err is one
func AsHostError(err error) (*HostError, bool) {
	hostErr, ok := err.(*HostError)
	return hostErr, ok
}

// IsConfig checks if the error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType)
}

// IsScan checks if the error belongs to the scan taxonomy
func IsScan(err error) bool {
	return Is(err, ErrInputUnavailable) ||
		Is(err, ErrMalformedParam) ||
		Is(err, ErrUnrecognizedCmd)
}

// IsStore checks if the error is a store error
func IsStore(err error) bool {
	return Is(err, ErrStoreOpen) ||
		Is(err, ErrStoreDecode) ||
		Is(err, ErrStoreSave)
}
