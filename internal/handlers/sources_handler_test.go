package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/ternarybob/remix/internal/queue"
	"github.com/ternarybob/remix/internal/services/export"
)

// In-memory stores for handler tests

type testStores struct {
	sources      map[string]*models.Source
	content      map[string]*models.GeneratedContent
	validations  map[string]*models.Validation
	regenOutcome interfaces.RegenOutcome
}

func newTestStores() *testStores {
	return &testStores{
		sources:     make(map[string]*models.Source),
		content:     make(map[string]*models.GeneratedContent),
		validations: make(map[string]*models.Validation),
	}
}

func (s *testStores) Sources() interfaces.SourceStorage         { return (*testSourceStore)(s) }
func (s *testStores) Transcripts() interfaces.TranscriptStorage { return (*testTranscriptStore)(s) }
func (s *testStores) Content() interfaces.ContentStorage        { return (*testContentStore)(s) }
func (s *testStores) Validations() interfaces.ValidationStorage { return (*testValidationStore)(s) }
func (s *testStores) Close() error                              { return nil }

type testSourceStore testStores

func (s *testSourceStore) Store(ctx context.Context, source *models.Source) error {
	source.CreatedAt = time.Now()
	source.UpdatedAt = time.Now()
	s.sources[source.ID] = source
	return nil
}

func (s *testSourceStore) Get(ctx context.Context, id string) (*models.Source, error) {
	source, ok := s.sources[id]
	if !ok {
		return nil, fmt.Errorf("source not found: %s", id)
	}
	return source, nil
}

func (s *testSourceStore) List(ctx context.Context, limit, offset int) ([]*models.Source, error) {
	var out []*models.Source
	for _, source := range s.sources {
		out = append(out, source)
	}
	return out, nil
}

func (s *testSourceStore) Count(ctx context.Context) (int, error) { return len(s.sources), nil }

func (s *testSourceStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("source not found: %s", id)
	}
	delete(s.sources, id)
	return nil
}

func (s *testSourceStore) UpdateProgress(ctx context.Context, id string, status models.SourceStatus, stage string, percent int) error {
	return nil
}

func (s *testSourceStore) SetTitle(ctx context.Context, id, title string) error { return nil }

func (s *testSourceStore) SetRegenCount(ctx context.Context, id string, count int) error { return nil }

func (s *testSourceStore) MarkFailed(ctx context.Context, id, code, message string) error { return nil }

func (s *testSourceStore) TryStartRegeneration(ctx context.Context, id string) (interfaces.RegenOutcome, error) {
	if s.regenOutcome == interfaces.RegenStarted {
		if source, ok := s.sources[id]; ok {
			source.RegenCount++
			source.Status = models.StatusReducing
		}
	}
	return s.regenOutcome, nil
}

func (s *testSourceStore) ListByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error) {
	return nil, nil
}

type testTranscriptStore testStores

func (s *testTranscriptStore) Store(ctx context.Context, transcript *models.Transcript) error {
	return nil
}

func (s *testTranscriptStore) GetBySourceID(ctx context.Context, sourceID string) (*models.Transcript, error) {
	return nil, fmt.Errorf("not found")
}

func (s *testTranscriptStore) FindLatestByURL(ctx context.Context, url, excludeSourceID string) (*models.Transcript, error) {
	return nil, fmt.Errorf("not found")
}

func (s *testTranscriptStore) DeleteBySourceID(ctx context.Context, sourceID string) error {
	return nil
}

type testContentStore testStores

func (s *testContentStore) Upsert(ctx context.Context, content *models.GeneratedContent) error {
	s.content[content.SourceID] = content
	return nil
}

func (s *testContentStore) GetBySourceID(ctx context.Context, sourceID string) (*models.GeneratedContent, error) {
	content, ok := s.content[sourceID]
	if !ok {
		return nil, fmt.Errorf("content not found")
	}
	return content, nil
}

func (s *testContentStore) DeleteBySourceID(ctx context.Context, sourceID string) error {
	delete(s.content, sourceID)
	return nil
}

type testValidationStore testStores

func (s *testValidationStore) Append(ctx context.Context, validation *models.Validation) error {
	s.validations[validation.SourceID] = validation
	return nil
}

func (s *testValidationStore) GetLatestBySourceID(ctx context.Context, sourceID string) (*models.Validation, error) {
	validation, ok := s.validations[sourceID]
	if !ok {
		return nil, fmt.Errorf("validation not found")
	}
	return validation, nil
}

func (s *testValidationStore) DeleteBySourceID(ctx context.Context, sourceID string) error {
	delete(s.validations, sourceID)
	return nil
}

type noopPipeline struct{}

func (noopPipeline) Process(ctx context.Context, sourceID string)    {}
func (noopPipeline) Regenerate(ctx context.Context, sourceID string) {}

func newTestHandler(t *testing.T, stores *testStores) *SourceHandler {
	t.Helper()

	cfg := &common.PipelineConfig{
		TmpDir:         t.TempDir(),
		MaxUploadBytes: 10 * 1024 * 1024,
	}
	processor := queue.NewProcessor(noopPipeline{}, stores.Sources(), &common.WorkersConfig{Count: 1, QueueSize: 16}, arbor.NewLogger())

	return NewSourceHandler(stores, processor, export.NewService(arbor.NewLogger()), cfg, arbor.NewLogger())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	detail, ok := body["detail"].(map[string]interface{})
	require.True(t, ok, "missing detail envelope")
	errObj, ok := detail["error"].(map[string]interface{})
	require.True(t, ok, "missing error object")
	code, _ := errObj["code"].(string)
	return code
}

func TestCreateSourceClassifiesURLs(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantKind   string
	}{
		{name: "youtube watch url", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantStatus: http.StatusCreated, wantKind: "youtube"},
		{name: "youtu.be short url", url: "https://youtu.be/dQw4w9WgXcQ", wantStatus: http.StatusCreated, wantKind: "youtube"},
		{name: "article url", url: "https://habr.com/ru/articles/12345/", wantStatus: http.StatusCreated, wantKind: "web"},
		{name: "file scheme blocked", url: "file:///etc/passwd", wantStatus: http.StatusUnprocessableEntity},
		{name: "data scheme blocked", url: "DATA:text/html,hi", wantStatus: http.StatusUnprocessableEntity},
		{name: "javascript blocked", url: "javascript:alert(1)", wantStatus: http.StatusUnprocessableEntity},
		{name: "no scheme", url: "example.com/page", wantStatus: http.StatusUnprocessableEntity},
		{name: "empty", url: "", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores()
			h := newTestHandler(t, stores)

			body, _ := json.Marshal(map[string]string{"url": tt.url})
			req := httptest.NewRequest("POST", "/api/sources", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			h.CreateSourceHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				resp := decodeBody(t, rec)
				assert.NotEmpty(t, resp["source_id"])
				assert.Equal(t, tt.wantKind, resp["source_type"])
				assert.Equal(t, "queued", resp["status"])
			} else {
				assert.Equal(t, "invalid_url", errorCode(t, rec))
			}
		})
	}
}

func TestCreateSourceValidatesDeclaredType(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		sourceType string
		wantStatus int
		wantCode   string
	}{
		{name: "declared youtube matches", url: "https://youtu.be/dQw4w9WgXcQ", sourceType: "youtube", wantStatus: http.StatusCreated},
		{name: "declared web matches", url: "https://habr.com/ru/articles/12345/", sourceType: "web", wantStatus: http.StatusCreated},
		{name: "article declared youtube", url: "https://habr.com/ru/articles/12345/", sourceType: "youtube", wantStatus: http.StatusUnprocessableEntity, wantCode: "invalid_url"},
		{name: "video declared web", url: "https://youtu.be/dQw4w9WgXcQ", sourceType: "web", wantStatus: http.StatusUnprocessableEntity, wantCode: "invalid_url"},
		{name: "unknown type", url: "https://habr.com/ru/articles/12345/", sourceType: "podcast", wantStatus: http.StatusUnprocessableEntity, wantCode: "invalid_source_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores()
			h := newTestHandler(t, stores)

			body, _ := json.Marshal(map[string]string{"url": tt.url, "source_type": tt.sourceType})
			req := httptest.NewRequest("POST", "/api/sources", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			h.CreateSourceHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestCreateSourceReportsQueuedProgress(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	body, _ := json.Marshal(map[string]string{"url": "https://example.com/post"})
	req := httptest.NewRequest("POST", "/api/sources", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateSourceHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	progress, ok := resp["progress"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "queued", progress["stage"])
	assert.Equal(t, float64(0), progress["percent"])
	assert.Len(t, stores.sources, 1)
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadSourceChecksExtensionAndMagic(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantStatus int
		wantKind   string
		wantCode   string
	}{
		{name: "pdf", filename: "paper.pdf", data: []byte("%PDF-1.7 rest"), wantStatus: http.StatusCreated, wantKind: "pdf"},
		{name: "epub", filename: "book.epub", data: []byte("PK\x03\x04zipdata"), wantStatus: http.StatusCreated, wantKind: "epub"},
		{name: "unknown extension", filename: "notes.txt", data: []byte("hello"), wantStatus: http.StatusUnprocessableEntity, wantCode: "unsupported_file"},
		{name: "pdf bytes named epub", filename: "paper.epub", data: []byte("%PDF-1.7 rest"), wantStatus: http.StatusUnprocessableEntity, wantCode: "file_type_mismatch"},
		{name: "epub bytes named pdf", filename: "book.pdf", data: []byte("PK\x03\x04zipdata"), wantStatus: http.StatusUnprocessableEntity, wantCode: "file_type_mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores()
			h := newTestHandler(t, stores)

			body, contentType := multipartUpload(t, tt.filename, tt.data)
			req := httptest.NewRequest("POST", "/api/sources/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.UploadSourceHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				resp := decodeBody(t, rec)
				assert.Equal(t, tt.wantKind, resp["source_type"])
				assert.Equal(t, tt.filename, resp["filename"])
			} else {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestUploadSourceStoresUnderJobDir(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	body, contentType := multipartUpload(t, "../../etc/evil.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest("POST", "/api/sources/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadSourceHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "evil.pdf", resp["filename"])

	sourceID, _ := resp["source_id"].(string)
	require.NotEmpty(t, sourceID)

	// The sanitized basename lands inside the job's own work dir
	source := stores.sources[sourceID]
	require.NotNil(t, source)
	assert.Equal(t, "evil.pdf", filepath.Base(source.FilePath))
	assert.Equal(t, sourceID, filepath.Base(filepath.Dir(source.FilePath)))
	assert.FileExists(t, source.FilePath)
}

func TestGetSourceGatesArtifacts(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-approved"] = &models.Source{ID: "src-approved", Kind: "web", Status: models.StatusApproved}
	stores.content["src-approved"] = &models.GeneratedContent{
		SourceID: "src-approved",
		Payload:  map[string]string{"medium_text": "ok"},
	}
	stores.validations["src-approved"] = &models.Validation{SourceID: "src-approved", Verdict: models.VerdictApproved}

	stores.sources["src-review"] = &models.Source{ID: "src-review", Kind: "web", Status: models.StatusNeedsReview}
	stores.content["src-review"] = &models.GeneratedContent{
		SourceID: "src-review",
		Payload:  map[string]string{"medium_text": "draft"},
	}
	stores.validations["src-review"] = &models.Validation{
		SourceID: "src-review",
		Verdict:  models.VerdictNeedsRevision,
		Report:   map[string]models.ChannelReport{"medium": {}},
	}

	stores.sources["src-running"] = &models.Source{ID: "src-running", Kind: "web", Status: models.StatusMapping, Stage: "mapping", Percent: 35}

	t.Run("approved exposes payload only", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/src-approved", nil), "src-approved")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.Contains(t, resp, "content_payload")
		assert.NotContains(t, resp, "validation_report")
	})

	t.Run("needs review exposes report only", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/src-review", nil), "src-review")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.NotContains(t, resp, "content_payload")
		assert.Contains(t, resp, "validation_report")
	})

	t.Run("running exposes neither", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/src-running", nil), "src-running")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.NotContains(t, resp, "content_payload")
		assert.NotContains(t, resp, "validation_report")

		progress := resp["progress"].(map[string]interface{})
		assert.Equal(t, "mapping", progress["stage"])
		assert.Equal(t, float64(35), progress["percent"])
	})

	t.Run("missing source is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/nope", nil), "nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRegenerateOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		outcome    interfaces.RegenOutcome
		wantStatus int
		wantCode   string
	}{
		{name: "started", outcome: interfaces.RegenStarted, wantStatus: http.StatusOK},
		{name: "not found", outcome: interfaces.RegenNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "wrong status", outcome: interfaces.RegenStatusConflict, wantStatus: http.StatusConflict, wantCode: "status_conflict"},
		{name: "limit reached", outcome: interfaces.RegenLimitReached, wantStatus: http.StatusConflict, wantCode: "regenerate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores()
			stores.regenOutcome = tt.outcome
			stores.sources["src-1"] = &models.Source{ID: "src-1", Kind: "web", Status: models.StatusNeedsReview}
			h := newTestHandler(t, stores)

			rec := httptest.NewRecorder()
			h.RegenerateHandler(rec, httptest.NewRequest("POST", "/api/sources/src-1/regenerate", nil), "src-1")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			} else {
				resp := decodeBody(t, rec)
				assert.Equal(t, "src-1", resp["source_id"])
				assert.Equal(t, "reducing", resp["status"])
			}
		})
	}
}

func TestExportRequiresApproval(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-1"] = &models.Source{ID: "src-1", Kind: "web", Title: "Talk", Status: models.StatusApproved}
	stores.content["src-1"] = &models.GeneratedContent{
		SourceID: "src-1",
		Payload:  map[string]string{"medium_text": "Текст"},
	}
	stores.sources["src-2"] = &models.Source{ID: "src-2", Kind: "web", Status: models.StatusNeedsReview}

	t.Run("approved source downloads markdown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ExportHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1/export?format=md", nil), "src-1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, rec.Body.String(), "## Medium")
	})

	t.Run("unreviewed source is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ExportHandler(rec, httptest.NewRequest("GET", "/api/sources/src-2/export", nil), "src-2")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "not_approved", errorCode(t, rec))
	})

	t.Run("single channel export", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ExportHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1/export?channel=medium", nil), "src-1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "## Medium")
		assert.NotContains(t, rec.Body.String(), "## Habr")
	})

	t.Run("unknown channel is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ExportHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1/export?channel=tiktok", nil), "src-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_channel", errorCode(t, rec))
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ExportHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1/export?format=docx", nil), "src-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteSourceCascades(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-1"] = &models.Source{ID: "src-1", Kind: "pdf", Status: models.StatusApproved}
	stores.content["src-1"] = &models.GeneratedContent{SourceID: "src-1", Payload: map[string]string{}}
	stores.validations["src-1"] = &models.Validation{SourceID: "src-1"}

	rec := httptest.NewRecorder()
	h.DeleteSourceHandler(rec, httptest.NewRequest("DELETE", "/api/sources/src-1", nil), "src-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, stores.sources)
	assert.Empty(t, stores.content)
	assert.Empty(t, stores.validations)
}

func TestListSourcesEnvelope(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-1"] = &models.Source{ID: "src-1", Kind: "web", Status: models.StatusQueued}
	stores.sources["src-2"] = &models.Source{ID: "src-2", Kind: "pdf", Status: models.StatusFailed, ErrorCode: "transcript_unavailable"}

	rec := httptest.NewRecorder()
	h.ListSourcesHandler(rec, httptest.NewRequest("GET", "/api/sources", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, float64(2), resp["total"])
	items, ok := resp["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestFailedSourceCarriesErrorObject(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-1"] = &models.Source{
		ID:        "src-1",
		Kind:      "youtube",
		Status:    models.StatusFailed,
		ErrorCode: "video_too_long",
		ErrorMsg:  "video runs 3 hours, limit is 2",
	}

	rec := httptest.NewRecorder()
	h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1", nil), "src-1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	errObj, ok := resp["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "video_too_long", errObj["code"])
	assert.Equal(t, "video runs 3 hours, limit is 2", errObj["message"])
}

func TestContentPayloadEmbedsJSONChannels(t *testing.T) {
	stores := newTestStores()
	h := newTestHandler(t, stores)

	stores.sources["src-1"] = &models.Source{ID: "src-1", Kind: "web", Status: models.StatusApproved}
	stores.content["src-1"] = &models.GeneratedContent{
		SourceID: "src-1",
		Payload: map[string]string{
			"medium_text":         "Текст статьи",
			"banana_video_prompt": `{"scenes":[{"shot":"intro"}]}`,
		},
	}

	rec := httptest.NewRecorder()
	h.GetSourceHandler(rec, httptest.NewRequest("GET", "/api/sources/src-1", nil), "src-1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	payload, ok := resp["content_payload"].(map[string]interface{})
	require.True(t, ok)

	// The video prompt comes through as an object, the text as a string
	assert.Equal(t, "Текст статьи", payload["medium_text"])
	prompt, ok := payload["banana_video_prompt"].(map[string]interface{})
	require.True(t, ok, "banana_video_prompt must be a JSON object")
	assert.Contains(t, prompt, "scenes")
}

func TestGetListParams(t *testing.T) {
	limit, offset := GetListParams(httptest.NewRequest("GET", "/api/sources", nil))
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = GetListParams(httptest.NewRequest("GET", "/api/sources?limit=100&offset=5", nil))
	assert.Equal(t, 100, limit)
	assert.Equal(t, 5, offset)

	limit, _ = GetListParams(httptest.NewRequest("GET", "/api/sources?limit=250", nil))
	assert.Equal(t, 20, limit)

	limit, _ = GetListParams(httptest.NewRequest("GET", "/api/sources?limit=0", nil))
	assert.Equal(t, 20, limit)
}

func TestUploadKindForExt(t *testing.T) {
	kind, err := uploadKindForExt("paper.PDF")
	require.NoError(t, err)
	assert.Equal(t, models.SourceKindPDF, kind)

	kind, err = uploadKindForExt("book.epub")
	require.NoError(t, err)
	assert.Equal(t, models.SourceKindEPUB, kind)

	_, err = uploadKindForExt("notes.txt")
	assert.Error(t, err)

	assert.True(t, magicMatches([]byte("%PDF-1.4"), models.SourceKindPDF))
	assert.False(t, magicMatches([]byte("GIF89a"), models.SourceKindPDF))
	assert.True(t, magicMatches([]byte("PK\x03\x04"), models.SourceKindEPUB))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "evil.pdf", sanitizeFilename("../../etc/evil.pdf"))
	assert.Equal(t, "book.epub", sanitizeFilename("book\x00.epub"))
	assert.Equal(t, "upload", sanitizeFilename(""))
}
