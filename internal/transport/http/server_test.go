package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/bootstrap"
	"gopherai-training/internal/config"
	"gopherai-training/internal/pkg/jwtutil"
	httptransport "gopherai-training/internal/transport/http"
)

const misfireSOP = `MISFIRE PROCEDURES
A misfire is a failure to fire after the firing mechanism is actuated. After a misfire the
crew waits two minutes before opening the breech and reports the misfire to the FDC.`

const doctrineExcerpt = "Indirect fire is delivered on a target that cannot be seen by the gunner. " +
	"The fire direction center converts observer corrections into firing data."

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.App.GinMode = gin.TestMode
	cfg.LLM.Provider = "mock"
	cfg.LLM.RequestsPerSecond = 0
	cfg.Knowledge.SeedFile = ""
	cfg.Knowledge.WatchDir = ""
	cfg.MySQL.Enabled = false
	cfg.Redis.Enabled = false
	cfg.RabbitMQ.Enabled = false
	cfg.Archive.Type = "none"
	for _, m := range mutate {
		m(cfg)
	}

	a, err := bootstrap.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return httptransport.NewRouter(a)
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, header ...string) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func ingest(t *testing.T, router *gin.Engine, name, category, content string) string {
	t.Helper()
	code, body := do(t, router, http.MethodPost, "/api/v1/knowledge/documents", gin.H{
		"documentName": name,
		"category":     category,
		"content":      content,
	})
	require.Equal(t, http.StatusOK, code, body)
	id, _ := body["documentId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthz(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "gopherai-training", body["app"])

	store, ok := body["store"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, store["documents"])
}

func TestProviderHealth_Mock(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodGet, "/api/v1/ai/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, "mock", body["provider"])
}

func TestProviderHealth_UnreachableDegrades(t *testing.T) {
	router := newTestServer(t, func(cfg *config.Config) {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.BaseURL = "http://127.0.0.1:1"
		cfg.LLM.HealthTimeoutSeconds = 1
	})

	start := time.Now()
	code, body := do(t, router, http.MethodGet, "/api/v1/ai/health", nil)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["available"])
	assert.NotEmpty(t, body["error"])

	code, body = do(t, router, http.MethodGet, "/api/v1/ai/health?strict=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["available"])
}

func TestKnowledgeLifecycle(t *testing.T) {
	router := newTestServer(t)

	sopID := ingest(t, router, "FT-155-SOP", "sop", misfireSOP)
	ingest(t, router, "Doctrine", "doctrine", doctrineExcerpt)

	code, body := do(t, router, http.MethodGet, "/api/v1/knowledge/documents?query=misfire", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "search", body["mode"])
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, results)
	top := results[0].(map[string]interface{})
	assert.Equal(t, sopID, top["chunk"].(map[string]interface{})["documentId"])
	assert.Greater(t, top["score"].(float64), 0.0)

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/documents?category=sop", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "filter", body["mode"])

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/documents", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "all", body["mode"])
	assert.EqualValues(t, 2, body["total"])

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/documents/"+sopID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["chunks"])

	code, body = do(t, router, http.MethodDelete, "/api/v1/knowledge/documents/"+sopID, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["removed"])

	code, body = do(t, router, http.MethodDelete, "/api/v1/knowledge/documents/"+sopID, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["removed"])

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/documents/"+sopID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/documents?query=misfire", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])

	code, body = do(t, router, http.MethodGet, "/api/v1/knowledge/stats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["documents"])
}

func TestKnowledgeIngest_Validation(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodPost, "/api/v1/knowledge/documents", gin.H{
		"documentName": "short",
		"content":      strings.Repeat("a", 49),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	code, _ = do(t, router, http.MethodPost, "/api/v1/knowledge/documents", gin.H{
		"documentName": "exact",
		"content":      strings.Repeat("a", 50),
	})
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/knowledge/documents", gin.H{
		"documentName": "bad category",
		"category":     "poetry",
		"content":      doctrineExcerpt,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, router, http.MethodPost, "/api/v1/knowledge/documents", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid request payload", body["error"])
}

func TestKnowledgeSource_WithoutArchiveIsNotFound(t *testing.T) {
	router := newTestServer(t)
	id := ingest(t, router, "Doctrine", "doctrine", doctrineExcerpt)

	code, _ := do(t, router, http.MethodGet, "/api/v1/knowledge/documents/"+id+"/source", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestKnowledgeSource_LocalArchive(t *testing.T) {
	dir := t.TempDir()
	router := newTestServer(t, func(cfg *config.Config) {
		cfg.Archive.Type = "local"
		cfg.Archive.LocalPath = dir
	})
	id := ingest(t, router, "Doctrine", "doctrine", doctrineExcerpt)

	code, body := do(t, router, http.MethodGet, "/api/v1/knowledge/documents/"+id+"/source", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, doctrineExcerpt, body["content"])
}

func TestGenerateQuestions(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodPost, "/api/v1/ai/questions", gin.H{
		"content":  doctrineExcerpt,
		"category": "gunnery-theory",
		"count":    5,
	})
	require.Equal(t, http.StatusOK, code, body)
	questions, ok := body["questions"].([]interface{})
	require.True(t, ok)
	require.Len(t, questions, 5)
	for _, q := range questions {
		item := q.(map[string]interface{})
		assert.Len(t, item["options"], 4)
		idx := item["correctIndex"].(float64)
		assert.GreaterOrEqual(t, idx, 0.0)
		assert.LessOrEqual(t, idx, 3.0)
	}
	assert.Equal(t, "mock", body["provider"])

	code, _ = do(t, router, http.MethodPost, "/api/v1/ai/questions", gin.H{
		"content":  doctrineExcerpt,
		"category": "gunnery-theory",
		"count":    21,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChat(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodPost, "/api/v1/ai/chat", gin.H{"messages": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, body = do(t, router, http.MethodPost, "/api/v1/ai/chat", gin.H{
		"messages": []gin.H{{"role": "user", "content": "What is a fire direction center?"}},
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["content"])
	assert.Equal(t, "mock", body["provider"])
}

func TestAnalyze(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodPost, "/api/v1/ai/analyze", gin.H{"content": doctrineExcerpt})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "extract-topics", body["analysisType"])

	code, _ = do(t, router, http.MethodPost, "/api/v1/ai/analyze", gin.H{"content": "too short"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAsk_UsesKnowledgeBase(t *testing.T) {
	router := newTestServer(t)
	id := ingest(t, router, "FT-155-SOP", "sop", misfireSOP)

	code, body := do(t, router, http.MethodPost, "/api/v1/ai/ask", gin.H{"question": "What do I do after a misfire?"})
	require.Equal(t, http.StatusOK, code)
	assert.Greater(t, body["confidence"].(float64), 0.0)
	sources := body["sources"].([]interface{})
	require.NotEmpty(t, sources)
	assert.Equal(t, id, sources[0].(map[string]interface{})["documentId"])
}

func TestBriefingEndpoints(t *testing.T) {
	router := newTestServer(t)

	code, body := do(t, router, http.MethodPost, "/api/v1/ai/air-support", gin.H{
		"targetDescription": "dug-in armor platoon",
		"targetLocation":    "NK 123 456",
		"friendlyLocation":  "NK 120 440",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CAS", body["supportType"])
	assert.Equal(t, "priority", body["priority"])

	code, body = do(t, router, http.MethodPost, "/api/v1/ai/fire-plan", gin.H{
		"operationType": "deliberate attack",
		"terrain":       "wooded hills",
		"objectives":    "seize OBJ IRON",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "clear", body["weather"])

	code, _ = do(t, router, http.MethodPost, "/api/v1/ai/mission-debrief", gin.H{"missionName": "IRON"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, router, http.MethodPost, "/api/v1/ai/mission-debrief", gin.H{
		"missionId":   "M-7",
		"missionName": "IRON",
		"timeline":    []gin.H{{"time": "0600", "event": "first round"}},
	})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["timelineEvents"])

	code, body = do(t, router, http.MethodPost, "/api/v1/ai/safety-review", gin.H{"plan": "Fire mission at minimum safe distance."})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["riskLevel"])

	code, body = do(t, router, http.MethodPost, "/api/v1/ai/explain", gin.H{"topic": "danger close"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "basic", body["level"])
}

func TestRoleContext(t *testing.T) {
	const secret = "test-secret"
	router := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.JWTSecret = secret
	})

	token, err := jwtutil.GenerateToken(secret, "u-1", jwtutil.RoleInstructor, time.Minute)
	require.NoError(t, err)

	code, body := do(t, router, http.MethodGet, "/api/v1/ai/health", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, jwtutil.RoleInstructor, body["role"])

	code, body = do(t, router, http.MethodGet, "/api/v1/ai/health", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, "role")

	code, _ = do(t, router, http.MethodGet, "/api/v1/ai/health", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUploadPDF_Rejections(t *testing.T) {
	router := newTestServer(t)

	upload := func(filename string, content []byte) (int, map[string]interface{}) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if filename != "" {
			part, err := w.CreateFormFile("file", filename)
			require.NoError(t, err)
			_, err = part.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.WriteField("category", "sop"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/documents/upload", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := upload("", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing file", body["error"])

	code, body = upload("notes.txt", []byte(misfireSOP))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "only PDF files are allowed", body["error"])

	code, body = upload("broken.pdf", []byte("not a pdf"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}
