package mapper

import (
	"study-assistant-be/internal/dto"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/conversation"
	"study-assistant-be/pkg/rag/ledger"
	"study-assistant-be/pkg/rag/registry"
)

// ChatMapper converts conversation state into response DTOs.
type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ToFragmentResponse(f rag.Fragment) *dto.FragmentResponse {
	return &dto.FragmentResponse{
		Filename: f.SourceFile(),
		Content:  f.Content,
		Page:     f.Page,
		Metadata: f.Metadata,
	}
}

func (m *ChatMapper) ToFragmentResponses(fragments []rag.Fragment) []*dto.FragmentResponse {
	out := make([]*dto.FragmentResponse, len(fragments))
	for i, f := range fragments {
		out[i] = m.ToFragmentResponse(f)
	}
	return out
}

func (m *ChatMapper) ToSourceGroups(groups []ledger.FileGroup) []*dto.SourceGroupResponse {
	out := make([]*dto.SourceGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = &dto.SourceGroupResponse{
			Filename:  g.Filename,
			Fragments: m.ToFragmentResponses(g.Fragments),
		}
	}
	return out
}

func (m *ChatMapper) ToTurnResponse(turn conversation.Turn, groups []ledger.FileGroup) *dto.TurnResponse {
	return &dto.TurnResponse{
		Index:   turn.Index,
		Query:   turn.Query,
		Answer:  turn.Answer,
		Sources: m.ToSourceGroups(groups),
	}
}

// ToDisplayResponse flattens the display request variant.
func (m *ChatMapper) ToDisplayResponse(req conversation.DisplayRequest) *dto.DisplayResponse {
	show, ok := req.(conversation.ShowFragments)
	if !ok {
		return &dto.DisplayResponse{Open: false}
	}
	res := &dto.DisplayResponse{
		Open:      true,
		Filename:  show.Filename,
		Fragments: m.ToFragmentResponses(show.Fragments),
	}
	if show.Turn != conversation.AllTurns {
		turn := show.Turn
		res.Turn = &turn
	}
	return res
}

// ListingMapper converts registry listings into response DTOs.
type ListingMapper struct{}

func NewListingMapper() *ListingMapper {
	return &ListingMapper{}
}

func (m *ListingMapper) ToAssistantResponses(list []registry.AssistantSummary) []*dto.AssistantResponse {
	out := make([]*dto.AssistantResponse, len(list))
	for i, a := range list {
		out[i] = &dto.AssistantResponse{
			Name:      a.Name,
			Status:    string(a.Status),
			Documents: a.Documents,
			Chunks:    a.Chunks,
		}
	}
	return out
}

func (m *ListingMapper) ToDocumentListResponse(assistant string, listing *registry.DocumentListing) *dto.DocumentListResponse {
	docs := make([]*dto.DocumentResponse, len(listing.Documents))
	for i, d := range listing.Documents {
		docs[i] = &dto.DocumentResponse{
			Filename:  d.Filename,
			FileType:  d.FileType,
			Chunks:    d.Chunks,
			Indexed:   d.Indexed,
			SizeBytes: d.SizeBytes,
		}
	}
	return &dto.DocumentListResponse{Assistant: assistant, Documents: docs, Truncated: listing.Truncated}
}
