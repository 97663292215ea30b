// Package command turns user intents into explicit values that the dispatcher applies to the
// registry and to a session's conversations.
package command

import (
	"errors"
	"strings"

	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/registry"
)

var ErrNoWorkspace = errors.New("conversation commands need a session workspace")

type Kind string

const (
	KindCreateAssistant   Kind = "create_assistant"
	KindAddDocuments      Kind = "add_documents"
	KindDeleteDocument    Kind = "delete_document"
	KindDeleteAssistant   Kind = "delete_assistant"
	KindSubmitQuery       Kind = "submit_query"
	KindResetConversation Kind = "reset_conversation"
	KindShowFragments     Kind = "show_fragments"
	KindCloseDisplay      Kind = "close_display"
)

type Command interface {
	Kind() Kind
	// Validate checks the command without touching any state.
	Validate() error
}

type CreateAssistant struct {
	Name  string
	Files []registry.File
}

type AddDocuments struct {
	Assistant string
	Files     []registry.File
}

type DeleteDocument struct {
	Assistant string
	Filename  string
}

type DeleteAssistant struct {
	Name string
}

type SubmitQuery struct {
	Assistant string
	Query     string
}

type ResetConversation struct {
	Assistant string
}

// ShowFragments opens the fragments a file contributed to one turn, or to the whole
// conversation when Turn is conversation.AllTurns.
type ShowFragments struct {
	Assistant string
	Turn      int
	Filename  string
}

type CloseDisplay struct {
	Assistant string
}

func (CreateAssistant) Kind() Kind   { return KindCreateAssistant }
func (AddDocuments) Kind() Kind      { return KindAddDocuments }
func (DeleteDocument) Kind() Kind    { return KindDeleteDocument }
func (DeleteAssistant) Kind() Kind   { return KindDeleteAssistant }
func (SubmitQuery) Kind() Kind       { return KindSubmitQuery }
func (ResetConversation) Kind() Kind { return KindResetConversation }
func (ShowFragments) Kind() Kind     { return KindShowFragments }
func (CloseDisplay) Kind() Kind      { return KindCloseDisplay }

func (c CreateAssistant) Validate() error {
	return validateFiles(c.Name, c.Files)
}

func (c AddDocuments) Validate() error {
	return validateFiles(c.Assistant, c.Files)
}

func (c DeleteDocument) Validate() error {
	if err := rag.ValidateAssistantName(c.Assistant); err != nil {
		return err
	}
	return rag.ValidateFilename(c.Filename)
}

func (c DeleteAssistant) Validate() error {
	return rag.ValidateAssistantName(c.Name)
}

// Validate accepts blank queries; the conversation reports them as an outcome.
func (c SubmitQuery) Validate() error {
	return rag.ValidateAssistantName(c.Assistant)
}

func (c ResetConversation) Validate() error {
	return rag.ValidateAssistantName(c.Assistant)
}

func (c ShowFragments) Validate() error {
	if err := rag.ValidateAssistantName(c.Assistant); err != nil {
		return err
	}
	if strings.TrimSpace(c.Filename) == "" {
		return rag.ErrInvalidFilename
	}
	return nil
}

func (c CloseDisplay) Validate() error {
	return rag.ValidateAssistantName(c.Assistant)
}

func validateFiles(name string, files []registry.File) error {
	if err := rag.ValidateAssistantName(name); err != nil {
		return err
	}
	if len(files) == 0 {
		return rag.ErrNoDocuments
	}
	for _, f := range files {
		if err := rag.ValidateFilename(f.Filename); err != nil {
			return err
		}
	}
	return nil
}
