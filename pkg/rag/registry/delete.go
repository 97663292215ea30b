package registry

import (
	"context"

	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/rag"
)

type deleteStep struct {
	name string
	run  func() error
}

// runSteps executes every step even when an earlier one fails. The result is partial when at
// least one of the index and storage halves went through, and total otherwise.
func runSteps(assistant, filename string, steps []deleteStep) error {
	var completed []string
	var failed []rag.StepFailure
	halfDone := false
	for _, s := range steps {
		if err := s.run(); err != nil {
			failed = append(failed, rag.StepFailure{Step: s.name, Err: err})
			continue
		}
		completed = append(completed, s.name)
		if s.name == rag.StepIndex || s.name == rag.StepStorage {
			halfDone = true
		}
	}

	switch {
	case len(failed) == 0:
		return nil
	case !halfDone:
		return &rag.DeleteError{Assistant: assistant, Filename: filename, Completed: completed, Failed: failed}
	default:
		return &rag.PartialDeleteError{Assistant: assistant, Filename: filename, Completed: completed, Failed: failed}
	}
}

// DeleteAssistant removes the assistant from the index, the corpus store and the catalog,
// then drops cached listings and its open conversations whatever the outcome. Deleting an
// unknown assistant succeeds.
func (r *Registry) DeleteAssistant(ctx context.Context, name string) error {
	if err := rag.ValidateAssistantName(name); err != nil {
		return err
	}

	err := runSteps(name, "", []deleteStep{
		{rag.StepIndex, func() error { return r.engine.DeleteAssistant(ctx, name) }},
		{rag.StepStorage, func() error { return r.store.DeleteAll(name) }},
		{rag.StepCatalog, func() error { return r.catalog.DeleteAssistant(ctx, name) }},
	})
	r.invalidate(ctx, name)

	dropped := 0
	if r.conversations != nil {
		dropped = r.conversations.DropAssistant(name)
	}
	r.reportDelete(ctx, name, "", err, map[string]interface{}{"conversations": dropped})
	return err
}

// DeleteDocument removes one document from the index, the corpus store and the catalog.
func (r *Registry) DeleteDocument(ctx context.Context, name, filename string) error {
	if err := rag.ValidateAssistantName(name); err != nil {
		return err
	}
	if err := rag.ValidateFilename(filename); err != nil {
		return err
	}

	err := runSteps(name, filename, []deleteStep{
		{rag.StepIndex, func() error { return r.engine.DeleteDocument(ctx, name, filename) }},
		{rag.StepStorage, func() error { return r.store.DeleteFile(name, filename) }},
		{rag.StepCatalog, func() error { return r.catalog.DeleteDocument(ctx, name, filename) }},
	})
	r.invalidate(ctx, name)
	r.reportDelete(ctx, name, filename, err, nil)
	return err
}

func (r *Registry) reportDelete(ctx context.Context, name, filename string, err error, extra map[string]interface{}) {
	details := map[string]interface{}{"assistant": name}
	if filename != "" {
		details["filename"] = filename
	}
	for k, v := range extra {
		details[k] = v
	}

	if err == nil {
		r.logger.Info("REGISTRY", "Delete completed", details)
		eventType := events.TypeAssistantDeleted
		if filename != "" {
			eventType = events.TypeDocumentDeleted
		}
		r.publish(ctx, eventType, details)
		return
	}

	var failed []rag.StepFailure
	switch e := err.(type) {
	case *rag.PartialDeleteError:
		failed = e.Failed
		details["completed"] = e.Completed
	case *rag.DeleteError:
		failed = e.Failed
		details["completed"] = e.Completed
	}
	details["failed"] = stepNames(failed)
	details["error"] = err.Error()
	r.logger.Error("REGISTRY", "Delete incomplete", details)
	r.publish(ctx, events.TypeDeleteIncomplete, details)
}
