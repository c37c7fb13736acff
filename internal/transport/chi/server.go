package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/batch"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	usageuc "github.com/kailas-cloud/ragdex/internal/usecase/usage"
)

const (
	// DefaultMaxUploadBytes caps one multipart upload request.
	DefaultMaxUploadBytes = 32 << 20
	maxChatBodyBytes      = 64 << 10
	multipartMemory       = 8 << 20
	uploadField           = "files"
)

// Server holds the HTTP handlers of the ragdex API.
type Server struct {
	ingest         Ingester
	sessions       Sessions
	chat           Chatter
	health         HealthChecker
	usage          UsageReporter
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. usage may be nil.
func NewServer(
	ingest Ingester,
	sessions Sessions,
	chat Chatter,
	health HealthChecker,
	usage UsageReporter,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if usage == nil {
		usage = usageuc.New(nil)
	}
	return &Server{
		ingest:         ingest,
		sessions:       sessions,
		chat:           chat,
		health:         health,
		usage:          usage,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logger,
		errorHandlers:  defaultErrorHandlers(),
	}
}

// WithMaxUploadBytes overrides the upload request limit.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: uuid.NewString()})
}

// UploadDocuments handles POST /sessions/{session}/documents.
// Files are indexed independently; per-file failures are reported in the items.
func (s *Server) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !uploadTooLargeHandler(w, err) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart body: "+err.Error())
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("no files in field %q", uploadField))
		return
	}

	files := make([]ingestuc.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("read %q: %v", fh.Filename, err))
			return
		}
		files = append(files, ingestuc.File{Name: fh.Filename, Data: data})
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.ingest.Upload(ctx, session, files)

	resp := UploadResponse{Items: make([]UploadItem, len(results))}
	for i, res := range results {
		resp.Items[i] = uploadItemFromResult(res)
		if res.Status() == batch.StatusOK {
			resp.Indexed++
		} else {
			resp.Failed++
		}
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part: %w", err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read part: %w", err)
	}
	return data, nil
}

// ListDocuments handles GET /sessions/{session}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	docs, err := s.sessions.Documents(r.Context(), session)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		items[i] = DocumentResponse{
			ID:         d.ID(),
			SourceName: d.SourceName(),
			Chunks:     d.ChunkCount(),
			ByteSize:   d.ByteSize(),
			UploadedAt: d.UploadedAt().UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Total: len(items)})
}

// ClearDocuments handles DELETE /sessions/{session}/documents.
func (s *Server) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.sessions.Clear(r.Context(), session)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// DeleteDocument handles DELETE /sessions/{session}/documents/{docID}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	docID, err := pathParam(r, "docID")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if _, err := s.sessions.DeleteDocument(r.Context(), session, docID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /sessions/{session}/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	st, err := s.sessions.Stats(r.Context(), session)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Session:    st.Scope,
		Chunks:     st.ChunkCount,
		Dimensions: st.Dimensions,
		Documents:  st.DocumentCount,
	})
}

// Chat handles POST /sessions/{session}/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply, err := s.chat.Ask(ctx, session, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sources := make([]SourceResponse, len(reply.Hits))
	for i, h := range reply.Hits {
		sources[i] = SourceResponse{
			ChunkID:    h.ChunkID(),
			DocID:      h.DocID(),
			SourceName: h.SourceName(),
			ChunkIndex: h.ChunkIndex(),
			Score:      h.Score(),
		}
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, ChatResponse{
		Message:            reply.Answer,
		Path:               string(reply.Path),
		Query:              reply.Query,
		RAGUsed:            reply.RAGUsed,
		DocumentsRetrieved: len(reply.Hits),
		Degraded:           reply.Degraded,
		Sources:            sources,
	})
}

// GetHistory handles GET /sessions/{session}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	turns, err := s.sessions.History(r.Context(), session, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]TurnResponse, len(turns))
	for i, t := range turns {
		items[i] = TurnResponse{Role: t.Role(), Content: t.Content()}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: items})
}

// ClearHistory handles DELETE /sessions/{session}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.sessions.ClearHistory(r.Context(), session)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	raw, err := stringQueryParam(r, "period")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	period, err := usageuc.ParsePeriod(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rep := s.usage.Report(r.Context(), period)
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:          string(rep.Period),
		PeriodStart:     rep.Start.Format(time.RFC3339),
		PeriodEnd:       rep.End.Format(time.RFC3339),
		TokensUsed:      rep.Used,
		TokensLimit:     rep.Limit,
		TokensRemaining: rep.Remaining,
		Exhausted:       rep.Exhausted,
	})
}

// HealthCheck handles GET /health. Degraded still serves traffic.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.CompletionTokens > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
	}
}

func uploadItemFromResult(r batch.Result) UploadItem {
	item := UploadItem{
		ID:         r.ID(),
		SourceName: r.SourceName(),
		Status:     string(r.Status()),
		Chunks:     r.Chunks(),
	}
	if r.Err() != nil {
		code, msg := errorCode(r.Err())
		item.Error = &ErrorResponse{Code: code, Message: msg}
	}
	return item
}
