package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/errs"
)

func record(t *testing.T, write func(c *gin.Context)) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	write(c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errs.Validation("content is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("ingest failed: %w", errs.Validation("x")), http.StatusBadRequest},
		{"not found", errs.NotFound("document %s not found", "d1"), http.StatusNotFound},
		{"provider", errs.Provider(errs.ReasonTimeout, "provider call timed out", nil), http.StatusInternalServerError},
		{"ingestion", errs.Ingestion("chunking failed", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestFail_ProviderErrorCarriesReason(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		Fail(c, errs.Provider(errs.ReasonUnavailable, "provider unavailable", errors.New("connection refused")))
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "provider unavailable: connection refused", body["error"])
	assert.Equal(t, "unavailable", body["reason"])
}

func TestFail_HidesUnclassifiedErrors(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		Fail(c, errors.New("dial tcp 10.0.0.1:3306: secret detail"))
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body["error"])
}

func TestData_FlattensIntoEnvelope(t *testing.T) {
	type result struct {
		DocumentID string `json:"documentId"`
		ChunkCount int    `json:"chunkCount"`
	}
	code, body := record(t, func(c *gin.Context) {
		Data(c, result{DocumentID: "d1", ChunkCount: 3})
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "d1", body["documentId"])
	assert.EqualValues(t, 3, body["chunkCount"])
}

func TestOK_CannotOverrideSuccess(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		OK(c, gin.H{"success": false, "n": 1})
	})
	assert.Equal(t, true, body["success"])
}
