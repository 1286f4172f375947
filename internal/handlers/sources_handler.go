package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/ternarybob/remix/internal/queue"
	"github.com/ternarybob/remix/internal/services/export"
)

// URL classification. Schemes that can reach local files or arbitrary
// protocols are rejected outright.
var (
	youtubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w\-]{11}`)
	webURLPattern     = regexp.MustCompile(`^https?://`)
	blockedSchemes    = []string{"file:", "ftp:", "gopher:", "data:", "javascript:"}
)

// SourceHandler serves the source job API
type SourceHandler struct {
	stores         interfaces.StorageManager
	processor      *queue.Processor
	exporter       *export.Service
	tmpDir         string
	maxUploadBytes int64
	logger         arbor.ILogger
}

// NewSourceHandler creates the source API handler
func NewSourceHandler(stores interfaces.StorageManager, processor *queue.Processor, exporter *export.Service, cfg *common.PipelineConfig, logger arbor.ILogger) *SourceHandler {
	return &SourceHandler{
		stores:         stores,
		processor:      processor,
		exporter:       exporter,
		tmpDir:         cfg.TmpDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
	}
}

type createSourceRequest struct {
	URL        string `json:"url"`
	SourceType string `json:"source_type"`
}

// CreateSourceHandler accepts a URL and queues it for processing. When
// the request declares a source_type, the URL must match it.
func (h *SourceHandler) CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}

	kind, err := classifyURL(req.URL)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "invalid_url", err.Error())
		return
	}

	if req.SourceType != "" {
		if req.SourceType != models.SourceKindYouTube && req.SourceType != models.SourceKindWeb {
			WriteError(w, http.StatusUnprocessableEntity, "invalid_source_type", "source_type must be youtube or web")
			return
		}
		if req.SourceType != kind {
			WriteError(w, http.StatusUnprocessableEntity, "invalid_url",
				fmt.Sprintf("URL does not match source_type %q", req.SourceType))
			return
		}
	}

	source := &models.Source{
		ID:     common.NewSourceID(),
		Kind:   kind,
		URL:    strings.TrimSpace(req.URL),
		Status: models.StatusQueued,
	}

	if err := h.stores.Sources().Store(r.Context(), source); err != nil {
		h.logger.Error().Err(err).Msg("Failed to store source")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to store source")
		return
	}

	if err := h.processor.Enqueue(queue.Task{SourceID: source.ID}); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "queue_full", "Processing queue is full, retry later")
		return
	}

	h.logger.Info().Str("source_id", source.ID).Str("kind", kind).Msg("Source queued")
	WriteJSON(w, http.StatusCreated, h.sourceResponse(r, source))
}

// UploadSourceHandler accepts a PDF or EPUB file and queues it
func (h *SourceHandler) UploadSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Sprintf("Upload exceeds the %d byte limit", h.maxUploadBytes))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read uploaded file")
		return
	}

	filename := sanitizeFilename(header.Filename)
	kind, err := uploadKindForExt(filename)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "unsupported_file", err.Error())
		return
	}
	if !magicMatches(data, kind) {
		WriteError(w, http.StatusUnprocessableEntity, "file_type_mismatch",
			fmt.Sprintf("File content does not look like %s", kind))
		return
	}

	sourceID := common.NewSourceID()
	workDir := filepath.Join(h.tmpDir, sourceID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create work dir")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to store upload")
		return
	}

	storedPath := filepath.Join(workDir, filename)
	if err := os.WriteFile(storedPath, data, 0644); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write upload")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to store upload")
		return
	}

	source := &models.Source{
		ID:       sourceID,
		Kind:     kind,
		Filename: filename,
		FilePath: storedPath,
		Status:   models.StatusQueued,
	}

	if err := h.stores.Sources().Store(r.Context(), source); err != nil {
		h.logger.Error().Err(err).Msg("Failed to store source")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to store source")
		return
	}

	if err := h.processor.Enqueue(queue.Task{SourceID: source.ID}); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "queue_full", "Processing queue is full, retry later")
		return
	}

	h.logger.Info().Str("source_id", source.ID).Str("kind", kind).Str("filename", filename).Msg("Upload queued")
	WriteJSON(w, http.StatusCreated, h.sourceResponse(r, source))
}

// ListSourcesHandler returns sources newest first
func (h *SourceHandler) ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetListParams(r)

	sources, err := h.stores.Sources().List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list sources")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list sources")
		return
	}

	total, err := h.stores.Sources().Count(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count sources")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list sources")
		return
	}

	items := make([]map[string]interface{}, 0, len(sources))
	for _, source := range sources {
		items = append(items, h.sourceResponse(r, source))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
	})
}

// GetSourceHandler returns one source with its gated artifacts
func (h *SourceHandler) GetSourceHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	source, err := h.stores.Sources().Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Source not found")
		return
	}

	WriteJSON(w, http.StatusOK, h.sourceResponse(r, source))
}

// DeleteSourceHandler removes a source and everything derived from it
func (h *SourceHandler) DeleteSourceHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	ctx := r.Context()
	source, err := h.stores.Sources().Get(ctx, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Source not found")
		return
	}

	if err := h.stores.Transcripts().DeleteBySourceID(ctx, id); err != nil {
		h.logger.Warn().Err(err).Str("source_id", id).Msg("Failed to delete transcripts")
	}
	if err := h.stores.Content().DeleteBySourceID(ctx, id); err != nil {
		h.logger.Warn().Err(err).Str("source_id", id).Msg("Failed to delete content")
	}
	if err := h.stores.Validations().DeleteBySourceID(ctx, id); err != nil {
		h.logger.Warn().Err(err).Str("source_id", id).Msg("Failed to delete validations")
	}
	if source.FilePath != "" {
		if err := os.Remove(source.FilePath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn().Err(err).Str("source_id", id).Msg("Failed to delete uploaded file")
		}
	}

	if err := h.stores.Sources().Delete(ctx, id); err != nil {
		h.logger.Error().Err(err).Str("source_id", id).Msg("Failed to delete source")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to delete source")
		return
	}

	h.logger.Info().Str("source_id", id).Msg("Source deleted")
	WriteSuccess(w, "Source deleted")
}

// RegenerateHandler re-queues a reviewed source for another reduce pass
func (h *SourceHandler) RegenerateHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	outcome, err := h.stores.Sources().TryStartRegeneration(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("source_id", id).Msg("Regeneration request failed")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to start regeneration")
		return
	}

	switch outcome {
	case interfaces.RegenNotFound:
		WriteError(w, http.StatusNotFound, "not_found", "Source not found")
		return
	case interfaces.RegenStatusConflict:
		WriteError(w, http.StatusConflict, "status_conflict", "Source is not awaiting review")
		return
	case interfaces.RegenLimitReached:
		WriteError(w, http.StatusConflict, "regenerate_limit",
			fmt.Sprintf("Regeneration limit of %d reached", models.MaxRegenerations))
		return
	}

	if err := h.processor.Enqueue(queue.Task{SourceID: id, Regen: true}); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "queue_full", "Processing queue is full, retry later")
		return
	}

	h.logger.Info().Str("source_id", id).Msg("Regeneration queued")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"source_id": id,
		"status":    string(models.StatusReducing),
	})
}

// ExportHandler streams the approved payload as a downloadable file
func (h *SourceHandler) ExportHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	source, err := h.stores.Sources().Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Source not found")
		return
	}

	if source.Status != models.StatusApproved {
		WriteError(w, http.StatusConflict, "not_approved", "Only approved sources can be exported")
		return
	}

	content, err := h.stores.Content().GetBySourceID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "No generated content for source")
		return
	}

	payload := content.Payload
	if channel := r.URL.Query().Get("channel"); channel != "" {
		ch, ok := models.ChannelByPayloadKey(channel)
		if !ok {
			ch, ok = models.ChannelByPlatform(channel)
		}
		if !ok {
			WriteError(w, http.StatusBadRequest, "invalid_channel", fmt.Sprintf("Unknown channel %q", channel))
			return
		}
		text, ok := payload[ch.PayloadKey]
		if !ok || text == "" {
			WriteError(w, http.StatusNotFound, "not_found", "No content for channel")
			return
		}
		payload = map[string]string{ch.PayloadKey: text}
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatMarkdown
	}

	artifact, err := h.exporter.Render(source, payload, format)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// sourceResponse builds the API view of a source. The content payload
// is exposed only once approved; the validation report only while the
// source awaits review.
func (h *SourceHandler) sourceResponse(r *http.Request, source *models.Source) map[string]interface{} {
	progress := source.ProgressView()

	resp := map[string]interface{}{
		"source_id":   source.ID,
		"source_type": source.Kind,
		"status":      source.Status,
		"progress":    progress,
		"regen_count": source.RegenCount,
		"created_at":  source.CreatedAt,
		"updated_at":  source.UpdatedAt,
	}

	if source.URL != "" {
		resp["url"] = source.URL
	}
	if source.Filename != "" {
		resp["filename"] = source.Filename
	}
	if source.Title != "" {
		resp["title"] = source.Title
	}
	if source.ErrorCode != "" {
		resp["error"] = map[string]string{
			"code":    source.ErrorCode,
			"message": source.ErrorMsg,
		}
	}

	switch source.Status {
	case models.StatusApproved:
		if content, err := h.stores.Content().GetBySourceID(r.Context(), source.ID); err == nil {
			resp["content_payload"] = payloadView(content.Payload)
		}
	case models.StatusNeedsReview:
		if validation, err := h.stores.Validations().GetLatestBySourceID(r.Context(), source.ID); err == nil {
			resp["validation_report"] = validation.Report
		}
	}

	return resp
}

// payloadView renders the stored payload for the API. Channels that
// emit JSON are embedded as objects rather than escaped strings.
func payloadView(payload map[string]string) map[string]interface{} {
	view := make(map[string]interface{}, len(payload))
	for key, text := range payload {
		if ch, ok := models.ChannelByPayloadKey(key); ok && ch.EmitsJSON && json.Valid([]byte(text)) {
			view[key] = json.RawMessage(text)
			continue
		}
		view[key] = text
	}
	return view
}

// classifyURL decides the source kind for a submitted URL
func classifyURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("url is required")
	}

	lower := strings.ToLower(trimmed)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", fmt.Errorf("url scheme is not allowed")
		}
	}

	if youtubeURLPattern.MatchString(trimmed) {
		return models.SourceKindYouTube, nil
	}
	if webURLPattern.MatchString(trimmed) {
		return models.SourceKindWeb, nil
	}
	return "", fmt.Errorf("url must be a YouTube video or an http(s) article link")
}

// uploadKindForExt decides the upload type from the file extension
func uploadKindForExt(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.SourceKindPDF, nil
	case ".epub":
		return models.SourceKindEPUB, nil
	default:
		return "", fmt.Errorf("file must have a .pdf or .epub extension")
	}
}

// magicMatches reports whether the file header agrees with the
// declared type.
func magicMatches(data []byte, kind string) bool {
	switch kind {
	case models.SourceKindPDF:
		return bytes.HasPrefix(data, []byte("%PDF"))
	case models.SourceKindEPUB:
		return bytes.HasPrefix(data, []byte("PK\x03\x04"))
	}
	return false
}

// sanitizeFilename strips path components and control bytes from the
// client-supplied name.
func sanitizeFilename(name string) string {
	cleaned := filepath.Base(strings.ReplaceAll(name, "\x00", ""))
	if cleaned == "." || cleaned == string(filepath.Separator) || cleaned == "" {
		cleaned = "upload"
	}
	return cleaned
}
