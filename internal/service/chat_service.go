package service

import (
	"context"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/mapper"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag/command"
	"study-assistant-be/pkg/rag/conversation"
	"study-assistant-be/pkg/rag/ledger"
	"study-assistant-be/pkg/rag/workspace"

	"github.com/gofiber/fiber/v2"
)

var ErrSessionExpired = fiber.NewError(fiber.StatusUnauthorized, "session expired, start a new one")

type IChatService interface {
	Send(ctx context.Context, sessionID, assistant string, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	History(ctx context.Context, sessionID, assistant string) (*dto.ChatHistoryResponse, error)
	Reset(ctx context.Context, sessionID, assistant string) error
	Sources(ctx context.Context, sessionID, assistant string) (*dto.SourcesResponse, error)
	TurnSources(ctx context.Context, sessionID, assistant string, turn int) (*dto.SourcesResponse, error)
	ShowFragments(ctx context.Context, sessionID, assistant string, turn int, filename string) (*dto.DisplayResponse, error)
	Display(ctx context.Context, sessionID, assistant string) (*dto.DisplayResponse, error)
	CloseDisplay(ctx context.Context, sessionID, assistant string) error
}

type chatService struct {
	dispatcher *command.Dispatcher
	workspaces IWorkspaceStore
	mapper     *mapper.ChatMapper
}

func NewChatService(dispatcher *command.Dispatcher, workspaces IWorkspaceStore) IChatService {
	return &chatService{dispatcher: dispatcher, workspaces: workspaces, mapper: mapper.NewChatMapper()}
}

func (s *chatService) workspace(sessionID string) (*workspace.Workspace, error) {
	ws, ok := s.workspaces.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}
	return ws, nil
}

// conversation returns the session's conversation with the assistant for reading. An assistant
// the session never talked to gets an empty, unregistered conversation once the registry
// confirms it exists.
func (s *chatService) conversation(ctx context.Context, sessionID, assistant string) (*conversation.Conversation, error) {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}
	if conv, ok := ws.Lookup(assistant); ok {
		return conv, nil
	}
	if _, err := s.dispatcher.Lookup(ctx, assistant); err != nil {
		return nil, err
	}
	return conversation.New(assistant, logger.NewNopLogger()), nil
}

func (s *chatService) Send(ctx context.Context, sessionID, assistant string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}
	res, err := s.dispatcher.Dispatch(ctx, ws, command.SubmitQuery{Assistant: assistant, Query: req.Query})
	if err != nil {
		return nil, err
	}

	out := &dto.SendChatResponse{Assistant: assistant, Outcome: string(res.Outcome)}
	if res.Turn != nil {
		out.Turn = s.mapper.ToTurnResponse(*res.Turn, ledger.GroupByFile(res.Fragments))
	}
	return out, nil
}

func (s *chatService) History(ctx context.Context, sessionID, assistant string) (*dto.ChatHistoryResponse, error) {
	conv, err := s.conversation(ctx, sessionID, assistant)
	if err != nil {
		return nil, err
	}
	turns := conv.Turns()
	out := &dto.ChatHistoryResponse{
		Assistant: assistant,
		State:     string(conv.State()),
		Pending:   conv.Pending(),
		Turns:     make([]*dto.TurnResponse, len(turns)),
	}
	for i, t := range turns {
		out.Turns[i] = s.mapper.ToTurnResponse(t, conv.TurnGroupedByFile(t.Index))
	}
	return out, nil
}

func (s *chatService) Reset(ctx context.Context, sessionID, assistant string) error {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return err
	}
	_, err = s.dispatcher.Dispatch(ctx, ws, command.ResetConversation{Assistant: assistant})
	return err
}

func (s *chatService) Sources(ctx context.Context, sessionID, assistant string) (*dto.SourcesResponse, error) {
	conv, err := s.conversation(ctx, sessionID, assistant)
	if err != nil {
		return nil, err
	}
	return &dto.SourcesResponse{Assistant: assistant, Sources: s.mapper.ToSourceGroups(conv.GroupedByFile())}, nil
}

func (s *chatService) TurnSources(ctx context.Context, sessionID, assistant string, turn int) (*dto.SourcesResponse, error) {
	conv, err := s.conversation(ctx, sessionID, assistant)
	if err != nil {
		return nil, err
	}
	if turn < 0 || turn >= len(conv.Turns()) {
		return nil, conversation.ErrTurnNotFound
	}
	return &dto.SourcesResponse{
		Assistant: assistant,
		Turn:      &turn,
		Sources:   s.mapper.ToSourceGroups(conv.TurnGroupedByFile(turn)),
	}, nil
}

func (s *chatService) ShowFragments(ctx context.Context, sessionID, assistant string, turn int, filename string) (*dto.DisplayResponse, error) {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}
	res, err := s.dispatcher.Dispatch(ctx, ws, command.ShowFragments{Assistant: assistant, Turn: turn, Filename: filename})
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDisplayResponse(res.Display), nil
}

func (s *chatService) Display(ctx context.Context, sessionID, assistant string) (*dto.DisplayResponse, error) {
	conv, err := s.conversation(ctx, sessionID, assistant)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDisplayResponse(conv.Display()), nil
}

func (s *chatService) CloseDisplay(ctx context.Context, sessionID, assistant string) error {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return err
	}
	_, err = s.dispatcher.Dispatch(ctx, ws, command.CloseDisplay{Assistant: assistant})
	return err
}
