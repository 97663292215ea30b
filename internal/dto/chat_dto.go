package dto

type SendChatRequest struct {
	Query string `json:"query" validate:"max=4000"`
}

type FragmentResponse struct {
	Filename string                 `json:"filename"`
	Content  string                 `json:"content"`
	Page     *int                   `json:"page,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type SourceGroupResponse struct {
	Filename  string              `json:"filename"`
	Fragments []*FragmentResponse `json:"fragments"`
}

type TurnResponse struct {
	Index   int                    `json:"index"`
	Query   string                 `json:"query"`
	Answer  string                 `json:"answer"`
	Sources []*SourceGroupResponse `json:"sources"`
}

type SendChatResponse struct {
	Assistant string        `json:"assistant"`
	Outcome   string        `json:"outcome"`
	Turn      *TurnResponse `json:"turn,omitempty"`
}

type ChatHistoryResponse struct {
	Assistant string          `json:"assistant"`
	State     string          `json:"state"`
	Pending   string          `json:"pending,omitempty"`
	Turns     []*TurnResponse `json:"turns"`
}

type SourcesResponse struct {
	Assistant string                 `json:"assistant"`
	Turn      *int                   `json:"turn,omitempty"`
	Sources   []*SourceGroupResponse `json:"sources"`
}

type DisplayResponse struct {
	Open      bool                `json:"open"`
	Turn      *int                `json:"turn,omitempty"`
	Filename  string              `json:"filename,omitempty"`
	Fragments []*FragmentResponse `json:"fragments,omitempty"`
}
