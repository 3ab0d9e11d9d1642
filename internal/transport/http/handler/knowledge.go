package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-training/internal/app"
	"gopherai-training/internal/pkg/pdfextract"
	"gopherai-training/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type KnowledgeHandler struct {
	knowledge *app.KnowledgeService
}

type IngestDocumentRequest struct {
	DocumentName  string   `json:"documentName"`
	Content       string   `json:"content"`
	Category      string   `json:"category"`
	WeaponSystems []string `json:"weaponSystems"`
	CourseTypes   []string `json:"courseTypes"`
	Topics        []string `json:"topics"`
	PageCount     int      `json:"pageCount"`
}

func NewKnowledgeHandler(knowledge *app.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	var req IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	result, err := h.knowledge.Ingest(c.Request.Context(), app.IngestInput{
		Name:          req.DocumentName,
		Content:       req.Content,
		Category:      req.Category,
		WeaponSystems: req.WeaponSystems,
		CourseTypes:   req.CourseTypes,
		Topics:        req.Topics,
		PageCount:     req.PageCount,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Data(c, result)
}

// UploadPDF accepts a multipart form with "file" (PDF) and optional "name", "category",
// "weaponSystems", "courseTypes" and "topics" (comma separated), extracts text and ingests.
func (h *KnowledgeHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	extracted, err := pdfextract.Extract(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	if strings.TrimSpace(extracted.Text) == "" {
		response.Error(c, http.StatusBadRequest, "PDF contains no extractable text")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
		if name == "" {
			name = "Untitled"
		}
	}

	result, err := h.knowledge.Ingest(c.Request.Context(), app.IngestInput{
		Name:          name,
		Content:       extracted.Text,
		Category:      c.PostForm("category"),
		WeaponSystems: splitForm(c.PostForm("weaponSystems")),
		CourseTypes:   splitForm(c.PostForm("courseTypes")),
		Topics:        splitForm(c.PostForm("topics")),
		PageCount:     extracted.Pages,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Data(c, result)
}

// List serves search, filter and list-all through the same route; query wins over the
// metadata filters.
func (h *KnowledgeHandler) List(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	result, err := h.knowledge.List(app.ListInput{
		Query:        c.Query("query"),
		Category:     c.Query("category"),
		WeaponSystem: c.Query("weaponSystem"),
		Limit:        limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Data(c, result)
}

func (h *KnowledgeHandler) Get(c *gin.Context) {
	detail, err := h.knowledge.Get(c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Data(c, detail)
}

func (h *KnowledgeHandler) Source(c *gin.Context) {
	id := c.Param("id")
	content, err := h.knowledge.Source(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"documentId": id, "content": content})
}

// Remove is idempotent: an unknown id still answers 200 with removed=false.
func (h *KnowledgeHandler) Remove(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, http.StatusBadRequest, "documentId is required")
		return
	}
	removed := h.knowledge.Remove(c.Request.Context(), id)
	response.OK(c, gin.H{"documentId": id, "removed": removed})
}

func (h *KnowledgeHandler) Stats(c *gin.Context) {
	response.Data(c, h.knowledge.Stats())
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func splitForm(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
