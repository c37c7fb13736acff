package chi

// SessionResponse is returned by POST /sessions.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// UploadItem is the outcome of one uploaded file.
type UploadItem struct {
	ID         string         `json:"id,omitempty"`
	SourceName string         `json:"source_name"`
	Status     string         `json:"status"`
	Chunks     int            `json:"chunks"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// UploadResponse is returned by POST /sessions/{session}/documents.
type UploadResponse struct {
	Items   []UploadItem `json:"items"`
	Indexed int          `json:"indexed"`
	Failed  int          `json:"failed"`
}

// DocumentResponse describes one indexed document.
type DocumentResponse struct {
	ID         string `json:"id"`
	SourceName string `json:"source_name"`
	Chunks     int    `json:"chunks"`
	ByteSize   int64  `json:"byte_size"`
	UploadedAt string `json:"uploaded_at"`
}

// DocumentListResponse lists a session's documents, newest first.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int                `json:"total"`
}

// DeletedResponse reports how many records a delete removed.
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// StatsResponse summarizes one session.
type StatsResponse struct {
	Session    string `json:"session"`
	Chunks     int    `json:"chunks"`
	Dimensions int    `json:"dimensions"`
	Documents  int    `json:"documents"`
}

// ChatRequest is the body of POST /sessions/{session}/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// SourceResponse is one retrieved chunk backing an answer.
type SourceResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocID      string  `json:"doc_id"`
	SourceName string  `json:"source_name"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// ChatResponse is the answer to one chat turn.
type ChatResponse struct {
	Message            string           `json:"message"`
	Path               string           `json:"path"`
	Query              string           `json:"query"`
	RAGUsed            bool             `json:"rag_used"`
	DocumentsRetrieved int              `json:"documents_retrieved"`
	Degraded           bool             `json:"degraded"`
	Sources            []SourceResponse `json:"sources"`
}

// TurnResponse is one stored conversation turn.
type TurnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse lists turns oldest first.
type HistoryResponse struct {
	Items []TurnResponse `json:"items"`
}

// UsageResponse reports embedding token consumption for a window.
// Limit and remaining are -1 when the window is unlimited.
type UsageResponse struct {
	Period          string `json:"period"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
