// Package errdef defines the error kinds raised while resolving configuration.
// Every kind is a registered errcode.LayeredError; match with errors.Is.
package errdef

import "github.com/KOMKZ/go-yogan-confres/errcode"

// ModuleCode is the errcode module code reserved for confres
const ModuleCode = 11

// Module is the errcode module name
const Module = "confres"

var (
	// ErrSourceDiscovery source list could not be produced
	ErrSourceDiscovery = errcode.Register(errcode.New(ModuleCode, 1, Module,
		"error.confres.source_discovery", "source discovery failed"))

	// ErrParse a source could not be read or decoded
	ErrParse = errcode.Register(errcode.New(ModuleCode, 2, Module,
		"error.confres.parse", "source parse failed"))

	// ErrValidation a matched value cannot be coerced to its member type
	ErrValidation = errcode.Register(errcode.New(ModuleCode, 3, Module,
		"error.confres.validation", "property validation failed"))

	// ErrConstruction the target object cannot be built from the resolved set
	ErrConstruction = errcode.Register(errcode.New(ModuleCode, 4, Module,
		"error.confres.construction", "object construction failed"))

	// ErrResolution top-level failure of a resolution request
	ErrResolution = errcode.Register(errcode.New(ModuleCode, 5, Module,
		"error.confres.resolution", "configuration resolution failed"))

	// ErrInvalidMember the eligible member set of a type is malformed
	ErrInvalidMember = errcode.Register(errcode.New(ModuleCode, 6, Module,
		"error.confres.invalid_member", "invalid member descriptor"))
)
