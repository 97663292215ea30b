package service

import (
	"time"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/pkg/serverutils"
	"study-assistant-be/pkg/rag/workspace"

	"github.com/google/uuid"
)

// IWorkspaceStore is satisfied by memory.WorkspaceRepository.
type IWorkspaceStore interface {
	Create(sessionID string) *workspace.Workspace
	Get(sessionID string) (*workspace.Workspace, bool)
	Delete(sessionID string)
}

type ISessionService interface {
	Start() (*dto.SessionResponse, error)
	Info(sessionID string) (*dto.SessionInfoResponse, error)
	End(sessionID string)
}

type sessionService struct {
	workspaces IWorkspaceStore
	secret     string
	tokenTTL   time.Duration
	logger     logger.ILogger
}

func NewSessionService(workspaces IWorkspaceStore, secret string, tokenTTL time.Duration, log logger.ILogger) ISessionService {
	return &sessionService{workspaces: workspaces, secret: secret, tokenTTL: tokenTTL, logger: log}
}

// Start creates a fresh workspace and the token that addresses it.
func (s *sessionService) Start() (*dto.SessionResponse, error) {
	id := uuid.NewString()
	token, err := serverutils.IssueToken(s.secret, id, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	s.workspaces.Create(id)
	s.logger.Info("SESSION", "Session started", map[string]interface{}{"session_id": id})
	return &dto.SessionResponse{SessionID: id, Token: token, ExpiresAt: time.Now().Add(s.tokenTTL)}, nil
}

func (s *sessionService) Info(sessionID string) (*dto.SessionInfoResponse, error) {
	ws, ok := s.workspaces.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}
	return &dto.SessionInfoResponse{SessionID: ws.ID, CreatedAt: ws.CreatedAt, Assistants: ws.Assistants()}, nil
}

func (s *sessionService) End(sessionID string) {
	s.workspaces.Delete(sessionID)
	s.logger.Info("SESSION", "Session ended", map[string]interface{}{"session_id": sessionID})
}
