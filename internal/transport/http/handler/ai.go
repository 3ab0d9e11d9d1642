package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/app"
	"gopherai-training/internal/transport/http/response"
)

// AIHandler exposes one endpoint per task orchestrator.
type AIHandler struct {
	questions *app.QuestionService
	analysis  *app.AnalysisService
	chat      *app.ChatService
	ask       *app.AskService
	briefing  *app.BriefingService
}

type GenerateQuestionsRequest struct {
	Content          string   `json:"content"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	QuestionTypes    []string `json:"questionTypes"`
	Count            int      `json:"count"`
	WeaponSystem     string   `json:"weaponSystem"`
	CourseType       string   `json:"courseType"`
	UseKnowledgeBase bool     `json:"useKnowledgeBase"`
}

type AnalyzeContentRequest struct {
	Content      string `json:"content"`
	AnalysisType string `json:"analysisType"`
}

type ChatRequest struct {
	Messages []ai.ChatMessage `json:"messages"`
}

type AskRequest struct {
	Question     string `json:"question"`
	Category     string `json:"category"`
	WeaponSystem string `json:"weaponSystem"`
	Limit        int    `json:"limit"`
}

type MissionDebriefRequest struct {
	MissionID    string              `json:"missionId"`
	MissionName  string              `json:"missionName"`
	Participants []string            `json:"participants"`
	Timeline     []app.TimelineEvent `json:"timeline"`
	Objectives   string              `json:"objectives"`
}

type FirePlanRequest struct {
	OperationType string   `json:"operationType"`
	Terrain       string   `json:"terrain"`
	Objectives    string   `json:"objectives"`
	Weather       string   `json:"weather"`
	Units         []string `json:"units"`
	Assets        []string `json:"assets"`
}

type AirSupportRequest struct {
	TargetDescription string `json:"targetDescription"`
	TargetLocation    string `json:"targetLocation"`
	FriendlyLocation  string `json:"friendlyLocation"`
	SupportType       string `json:"supportType"`
	Priority          string `json:"priority"`
	Remarks           string `json:"remarks"`
}

type SafetyReviewRequest struct {
	Plan         string `json:"plan"`
	WeaponSystem string `json:"weaponSystem"`
}

type ExplainConceptRequest struct {
	Topic        string `json:"topic"`
	Level        string `json:"level"`
	WeaponSystem string `json:"weaponSystem"`
}

func NewAIHandler(
	questions *app.QuestionService,
	analysis *app.AnalysisService,
	chat *app.ChatService,
	ask *app.AskService,
	briefing *app.BriefingService,
) *AIHandler {
	return &AIHandler{
		questions: questions,
		analysis:  analysis,
		chat:      chat,
		ask:       ask,
		briefing:  briefing,
	}
}

func (h *AIHandler) GenerateQuestions(c *gin.Context) {
	var req GenerateQuestionsRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.questions.Generate(c.Request.Context(), app.QuestionInput{
		Content:          req.Content,
		Category:         req.Category,
		Difficulty:       req.Difficulty,
		QuestionTypes:    req.QuestionTypes,
		Count:            req.Count,
		WeaponSystem:     req.WeaponSystem,
		CourseType:       req.CourseType,
		UseKnowledgeBase: req.UseKnowledgeBase,
	})
	reply(c, result, err)
}

func (h *AIHandler) Analyze(c *gin.Context) {
	var req AnalyzeContentRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.analysis.Analyze(c.Request.Context(), app.AnalysisInput{
		Content:      req.Content,
		AnalysisType: req.AnalysisType,
	})
	reply(c, result, err)
}

func (h *AIHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.chat.Chat(c.Request.Context(), req.Messages)
	reply(c, result, err)
}

func (h *AIHandler) Ask(c *gin.Context) {
	var req AskRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.ask.Ask(c.Request.Context(), app.AskInput{
		Question:     req.Question,
		Category:     req.Category,
		WeaponSystem: req.WeaponSystem,
		Limit:        req.Limit,
	})
	reply(c, result, err)
}

func (h *AIHandler) MissionDebrief(c *gin.Context) {
	var req MissionDebriefRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.briefing.Debrief(c.Request.Context(), app.DebriefInput{
		MissionID:    req.MissionID,
		MissionName:  req.MissionName,
		Participants: req.Participants,
		Timeline:     req.Timeline,
		Objectives:   req.Objectives,
	})
	reply(c, result, err)
}

func (h *AIHandler) FirePlan(c *gin.Context) {
	var req FirePlanRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.briefing.FirePlan(c.Request.Context(), app.FirePlanInput{
		OperationType: req.OperationType,
		Terrain:       req.Terrain,
		Objectives:    req.Objectives,
		Weather:       req.Weather,
		Units:         req.Units,
		Assets:        req.Assets,
	})
	reply(c, result, err)
}

func (h *AIHandler) AirSupport(c *gin.Context) {
	var req AirSupportRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.briefing.AirSupport(c.Request.Context(), app.AirSupportInput{
		TargetDescription: req.TargetDescription,
		TargetLocation:    req.TargetLocation,
		FriendlyLocation:  req.FriendlyLocation,
		SupportType:       req.SupportType,
		Priority:          req.Priority,
		Remarks:           req.Remarks,
	})
	reply(c, result, err)
}

func (h *AIHandler) SafetyReview(c *gin.Context) {
	var req SafetyReviewRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.briefing.SafetyReview(c.Request.Context(), app.SafetyReviewInput{
		Plan:         req.Plan,
		WeaponSystem: req.WeaponSystem,
	})
	reply(c, result, err)
}

func (h *AIHandler) ExplainConcept(c *gin.Context) {
	var req ExplainConceptRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.briefing.ExplainConcept(c.Request.Context(), app.ExplainInput{
		Topic:        req.Topic,
		Level:        req.Level,
		WeaponSystem: req.WeaponSystem,
	})
	reply(c, result, err)
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func reply(c *gin.Context, result interface{}, err error) {
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Data(c, result)
}
