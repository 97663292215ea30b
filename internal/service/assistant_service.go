package service

import (
	"context"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/mapper"
	"study-assistant-be/pkg/rag/command"
	"study-assistant-be/pkg/rag/registry"
)

type IAssistantService interface {
	GetAll(ctx context.Context) ([]*dto.AssistantResponse, error)
	Create(ctx context.Context, req *dto.CreateAssistantRequest, files []dto.UploadedFile) (*dto.AssistantResponse, error)
	Delete(ctx context.Context, sessionID, name string) error
	GetDocuments(ctx context.Context, name string) (*dto.DocumentListResponse, error)
	AddDocuments(ctx context.Context, name string, files []dto.UploadedFile) (*dto.AddDocumentsResponse, error)
	DeleteDocument(ctx context.Context, name, filename string) error
	Download(ctx context.Context, name, filename string) (*dto.DownloadResponse, error)
}

type assistantService struct {
	registry   *registry.Registry
	dispatcher *command.Dispatcher
	workspaces IWorkspaceStore
	mapper     *mapper.ListingMapper
}

func NewAssistantService(reg *registry.Registry, dispatcher *command.Dispatcher, workspaces IWorkspaceStore) IAssistantService {
	return &assistantService{
		registry:   reg,
		dispatcher: dispatcher,
		workspaces: workspaces,
		mapper:     mapper.NewListingMapper(),
	}
}

func toFiles(files []dto.UploadedFile) []registry.File {
	out := make([]registry.File, len(files))
	for i, f := range files {
		out[i] = registry.File{Filename: f.Filename, Content: f.Content}
	}
	return out
}

func (s *assistantService) GetAll(ctx context.Context) ([]*dto.AssistantResponse, error) {
	list, err := s.registry.ListAssistants(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToAssistantResponses(list), nil
}

func (s *assistantService) Create(ctx context.Context, req *dto.CreateAssistantRequest, files []dto.UploadedFile) (*dto.AssistantResponse, error) {
	if _, err := s.dispatcher.Dispatch(ctx, nil, command.CreateAssistant{Name: req.Name, Files: toFiles(files)}); err != nil {
		return nil, err
	}
	rec, err := s.registry.Lookup(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return &dto.AssistantResponse{Name: rec.Name, Status: string(rec.Status), Documents: rec.Documents}, nil
}

// Delete removes the assistant everywhere. The caller's own workspace is passed so its
// conversation is dropped even when the registry runs without a conversation hook.
func (s *assistantService) Delete(ctx context.Context, sessionID, name string) error {
	ws, _ := s.workspaces.Get(sessionID)
	_, err := s.dispatcher.Dispatch(ctx, ws, command.DeleteAssistant{Name: name})
	return err
}

func (s *assistantService) GetDocuments(ctx context.Context, name string) (*dto.DocumentListResponse, error) {
	listing, err := s.registry.ListDocuments(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDocumentListResponse(name, listing), nil
}

func (s *assistantService) AddDocuments(ctx context.Context, name string, files []dto.UploadedFile) (*dto.AddDocumentsResponse, error) {
	res, err := s.dispatcher.Dispatch(ctx, nil, command.AddDocuments{Assistant: name, Files: toFiles(files)})
	if err != nil {
		return nil, err
	}
	return &dto.AddDocumentsResponse{Assistant: name, Added: res.Added.Added, Duplicates: res.Added.Duplicates}, nil
}

func (s *assistantService) DeleteDocument(ctx context.Context, name, filename string) error {
	_, err := s.dispatcher.Dispatch(ctx, nil, command.DeleteDocument{Assistant: name, Filename: filename})
	return err
}

func (s *assistantService) Download(ctx context.Context, name, filename string) (*dto.DownloadResponse, error) {
	dl, err := s.registry.ReadDocument(ctx, name, filename)
	if err != nil {
		return nil, err
	}
	return &dto.DownloadResponse{Filename: dl.Filename, MIME: dl.MIME, Content: dl.Content}, nil
}
