// Package etlerr defines the error taxonomy of the retail pipeline.
//
// Ingestion raises LoadError, structural input checks raise SchemaError,
// undecodable rows are described by RowError,
// arg-max reports raise EmptyGroupError, and duplicate reference keys are
// described by JoinAmbiguity. The orchestrator wraps whichever of these ends
// a run in a single PipelineError.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyGroup is matched by every EmptyGroupError via errors.Is.
var ErrEmptyGroup = errors.New("empty group")

// ErrJoinAmbiguity is matched by every JoinAmbiguity via errors.Is.
var ErrJoinAmbiguity = errors.New("ambiguous reference key")

// LoadError reports that an input could not be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError reports columns that are structurally absent from an input.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: missing column(s) %s", e.Table, strings.Join(e.Missing, ", "))
}

// RowError reports a single input row that could not be decoded. Row is the
// 1-based data row number within Table.
type RowError struct {
	Table  string
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s: %v", e.Table, e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// EmptyGroupError reports an arg-max over zero rows.
type EmptyGroupError struct {
	Report string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("%s: no rows to select from", e.Report)
}

func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// JoinAmbiguity describes a reference key that appears more than once and
// therefore expands every matching input row.
type JoinAmbiguity struct {
	Reference string
	Key       string
	Count     int
}

func (e *JoinAmbiguity) Error() string {
	return fmt.Sprintf("%s: key %q appears %d times", e.Reference, e.Key, e.Count)
}

func (e *JoinAmbiguity) Is(target error) bool { return target == ErrJoinAmbiguity }

// PipelineError is the single terminal error of a failed run.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
