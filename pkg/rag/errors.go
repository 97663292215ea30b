package rag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidName       = errors.New("assistant name must contain only lowercase letters, digits or '-'")
	ErrInvalidFilename   = errors.New("invalid document filename")
	ErrUnsupportedType   = errors.New("unsupported document type")
	ErrNoDocuments       = errors.New("at least one document is required")
	ErrDuplicateFilename = errors.New("duplicate document filename")
	ErrAssistantNotFound = errors.New("assistant not found")
	ErrAssistantExists   = errors.New("assistant already exists")
	ErrAssistantNotReady = errors.New("assistant is not indexed yet")
	ErrDocumentNotFound  = errors.New("document not found")
)

// IngestionError reports that the engine did not index a file set. Files already written to
// the corpus are left in place so the caller can retry.
type IngestionError struct {
	Assistant string
	Files     []string
	Err       error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for assistant %q (%d files): %v", e.Assistant, len(e.Files), e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Delete steps, in the order the registry runs them. Index and storage are the two halves
// that decide between a partial and a total failure.
const (
	StepIndex   = "index"
	StepStorage = "storage"
	StepCatalog = "catalog"
)

// StepFailure pairs a delete step with the error it produced.
type StepFailure struct {
	Step string `json:"step"`
	Err  error  `json:"-"`
}

// PartialDeleteError means some removal steps succeeded and some did not. Retrying the
// same delete finishes the remaining steps.
type PartialDeleteError struct {
	Assistant string
	Filename  string
	Completed []string
	Failed    []StepFailure
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("partial delete of %s: completed [%s], failed [%s]",
		target(e.Assistant, e.Filename), strings.Join(e.Completed, ","), joinFailures(e.Failed))
}

// FailedSteps lists the names of the steps that still need to be retried.
func (e *PartialDeleteError) FailedSteps() []string {
	steps := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		steps[i] = f.Step
	}
	return steps
}

// DeleteError means neither the index nor the storage removal succeeded. Completed may still
// name the catalog step.
type DeleteError struct {
	Assistant string
	Filename  string
	Completed []string
	Failed    []StepFailure
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete of %s failed: %s", target(e.Assistant, e.Filename), joinFailures(e.Failed))
}

func (e *DeleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

func target(assistant, filename string) string {
	if filename == "" {
		return fmt.Sprintf("assistant %q", assistant)
	}
	return fmt.Sprintf("document %q of assistant %q", filename, assistant)
}

func joinFailures(failed []StepFailure) string {
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = fmt.Sprintf("%s: %v", f.Step, f.Err)
	}
	return strings.Join(parts, "; ")
}
