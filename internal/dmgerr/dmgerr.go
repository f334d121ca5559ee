// Package dmgerr holds the error categories shared by the emulator core.
//
// Failures wrap one of the sentinels below with enough context (address,
// opcode, bank, size code) to reproduce them. Callers test the category
// with errors.Is.
package dmgerr

import "errors"

var (
	// ErrInvalid marks malformed input: a bad cartridge header or a bad save
	// file. The caller rejects the load and keeps its prior state.
	ErrInvalid = errors.New("invalid")

	// ErrUnsupported marks a recognised but unimplemented mapper, ROM size or
	// RAM size.
	ErrUnsupported = errors.New("unsupported")

	// ErrFatal marks an execution fault, such as an invalid opcode. Execution
	// must not continue past it.
	ErrFatal = errors.New("fatal")
)
