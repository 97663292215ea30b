package dto

type CreateAssistantRequest struct {
	Name string `form:"name" validate:"required,assistant_name"`
}

type UploadedFile struct {
	Filename string
	Content  []byte
}

type AssistantResponse struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

type DocumentResponse struct {
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	Chunks    int    `json:"chunks"`
	Indexed   bool   `json:"indexed"`
	SizeBytes int64  `json:"size_bytes"`
}

type DocumentListResponse struct {
	Assistant string              `json:"assistant"`
	Documents []*DocumentResponse `json:"documents"`
	Truncated bool                `json:"truncated"`
}

type AddDocumentsResponse struct {
	Assistant  string   `json:"assistant"`
	Added      []string `json:"added"`
	Duplicates []string `json:"duplicates"`
}

type DownloadResponse struct {
	Filename string
	MIME     string
	Content  []byte
}
