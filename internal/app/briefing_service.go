package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/retrieval"
)

const (
	DefaultWeather      = "clear"
	DefaultSupportType  = "CAS"
	DefaultPriority     = "priority"
	DefaultExplainLevel = "basic"
	RiskUnknown         = "UNKNOWN"
)

var (
	priorities   = []string{"routine", "priority", "immediate"}
	explainLevel = []string{"basic", "intermediate", "advanced"}
	riskPattern  = regexp.MustCompile(`(?i)risk\s+level\s*[:\-]\s*\**\s*(extremely\s+high|low|moderate|medium|high|extreme)`)
)

// BriefingService builds the mission planning and review documents: debriefs, joint fire
// plans, air support requests, safety reviews and concept explanations.
type BriefingService struct {
	orchestrator
}

func NewBriefingService(gateway ChatGateway, retriever Retriever) *BriefingService {
	return &BriefingService{orchestrator: orchestrator{gateway: gateway, retriever: retriever}}
}

type TimelineEvent struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

type DebriefInput struct {
	MissionID    string
	MissionName  string
	Participants []string
	Timeline     []TimelineEvent
	Objectives   string
}

type DebriefResult struct {
	MissionID        string `json:"missionId"`
	MissionName      string `json:"missionName"`
	Debrief          string `json:"debrief"`
	ParticipantCount int    `json:"participantCount"`
	TimelineEvents   int    `json:"timelineEvents"`
	Provider         string `json:"provider"`
	Model            string `json:"model,omitempty"`
}

func (s *BriefingService) Debrief(ctx context.Context, input DebriefInput) (*DebriefResult, error) {
	if err := required("missionId", input.MissionID); err != nil {
		return nil, err
	}
	if err := required("missionName", input.MissionName); err != nil {
		return nil, err
	}

	timeline := make([]string, 0, len(input.Timeline))
	for _, e := range input.Timeline {
		if strings.TrimSpace(e.Event) == "" {
			continue
		}
		timeline = append(timeline, strings.TrimSpace(e.Time+" "+e.Event))
	}
	objectives := strings.TrimSpace(input.Objectives)
	if objectives == "" {
		objectives = "not stated"
	}

	details := fmt.Sprintf("Mission %s: %s\nObjectives: %s\nParticipants:\n%s\nTimeline:\n%s",
		input.MissionID, input.MissionName, objectives, bulletList(input.Participants), bulletList(timeline))
	prompt := ai.TaskDirective(ai.TaskMissionDebrief, 0) +
		"\nWrite an after-action debrief with sections: Summary, What Went Well, Areas for Improvement, Lessons Learned.\n\n" +
		ai.ContentSection(details)

	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return &DebriefResult{
		MissionID:        input.MissionID,
		MissionName:      input.MissionName,
		Debrief:          strings.TrimSpace(res.Content),
		ParticipantCount: len(input.Participants),
		TimelineEvents:   len(timeline),
		Provider:         res.Provider,
		Model:            res.Model,
	}, nil
}

type FirePlanInput struct {
	OperationType string
	Terrain       string
	Objectives    string
	Weather       string
	Units         []string
	Assets        []string
}

type FirePlanResult struct {
	OperationType string   `json:"operationType"`
	Terrain       string   `json:"terrain"`
	Weather       string   `json:"weather"`
	Units         []string `json:"units"`
	Assets        []string `json:"assets"`
	Plan          string   `json:"plan"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model,omitempty"`
}

func (s *BriefingService) FirePlan(ctx context.Context, input FirePlanInput) (*FirePlanResult, error) {
	for _, f := range []struct{ name, value string }{
		{"operationType", input.OperationType},
		{"terrain", input.Terrain},
		{"objectives", input.Objectives},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}
	weather := strings.TrimSpace(input.Weather)
	if weather == "" {
		weather = DefaultWeather
	}
	units := cleanList(input.Units)
	assets := cleanList(input.Assets)

	details := fmt.Sprintf("Operation type: %s\nTerrain: %s\nWeather: %s\nObjectives: %s\nUnits:\n%s\nAssets:\n%s",
		input.OperationType, input.Terrain, weather, input.Objectives, bulletList(units), bulletList(assets))
	prompt := ai.TaskDirective(ai.TaskJointFirePlan, 0) +
		"\nDraft a joint fire support plan covering: concept of fires, fire support tasks, target priorities, " +
		"fire support coordination measures, airspace deconfliction and clearance of fires.\n\n" +
		ai.ContentSection(details)

	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return &FirePlanResult{
		OperationType: input.OperationType,
		Terrain:       input.Terrain,
		Weather:       weather,
		Units:         units,
		Assets:        assets,
		Plan:          strings.TrimSpace(res.Content),
		Provider:      res.Provider,
		Model:         res.Model,
	}, nil
}

type AirSupportInput struct {
	TargetDescription string
	TargetLocation    string
	FriendlyLocation  string
	SupportType       string
	Priority          string
	Remarks           string
}

type AirSupportResult struct {
	SupportType      string `json:"supportType"`
	Priority         string `json:"priority"`
	TargetLocation   string `json:"targetLocation"`
	FriendlyLocation string `json:"friendlyLocation"`
	Request          string `json:"request"`
	Provider         string `json:"provider"`
	Model            string `json:"model,omitempty"`
}

func (s *BriefingService) AirSupport(ctx context.Context, input AirSupportInput) (*AirSupportResult, error) {
	for _, f := range []struct{ name, value string }{
		{"targetDescription", input.TargetDescription},
		{"targetLocation", input.TargetLocation},
		{"friendlyLocation", input.FriendlyLocation},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}
	supportType := strings.ToUpper(strings.TrimSpace(input.SupportType))
	if supportType == "" {
		supportType = DefaultSupportType
	}
	priority, err := oneOf("priority", input.Priority, DefaultPriority, priorities...)
	if err != nil {
		return nil, err
	}
	remarks := strings.TrimSpace(input.Remarks)
	if remarks == "" {
		remarks = "none"
	}

	details := fmt.Sprintf("Support type: %s\nPriority: %s\nTarget: %s\nTarget location: %s\nFriendly location: %s\nRemarks: %s",
		supportType, priority, input.TargetDescription, input.TargetLocation, input.FriendlyLocation, remarks)
	prompt := ai.TaskDirective(ai.TaskAirSupportRequest, 0) +
		"\nFormat a joint tactical air strike request with numbered lines, followed by a 9-line brief " +
		"and any danger-close considerations.\n\n" +
		ai.ContentSection(details)

	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return &AirSupportResult{
		SupportType:      supportType,
		Priority:         priority,
		TargetLocation:   input.TargetLocation,
		FriendlyLocation: input.FriendlyLocation,
		Request:          strings.TrimSpace(res.Content),
		Provider:         res.Provider,
		Model:            res.Model,
	}, nil
}

type SafetyReviewInput struct {
	Plan         string
	WeaponSystem string
}

type SafetyReviewResult struct {
	Review    string   `json:"review"`
	RiskLevel string   `json:"riskLevel"`
	Sources   []Source `json:"sources,omitempty"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model,omitempty"`
}

// SafetyReview checks a plan against the relevant safety material in the knowledge
// base and extracts the overall risk level from the review text.
func (s *BriefingService) SafetyReview(ctx context.Context, input SafetyReviewInput) (*SafetyReviewResult, error) {
	if err := required("plan", input.Plan); err != nil {
		return nil, err
	}
	refs := s.references(input.Plan, retrieval.Filter{WeaponSystem: input.WeaponSystem}, referenceLimit)

	prompt := ai.TaskDirective(ai.TaskSafetyReview, 0) +
		"\nReview the plan for safety hazards: surface danger zones, minimum safe distances, misfire handling, " +
		"communications and clearance of fires. End with a line \"RISK LEVEL: <LOW|MODERATE|HIGH|EXTREMELY HIGH>\".\n\n" +
		ai.ContentSection(input.Plan)
	if section := referenceSection(refs); section != "" {
		prompt += "\n\n" + section
	}

	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}
	out := &SafetyReviewResult{
		Review:    strings.TrimSpace(res.Content),
		RiskLevel: parseRiskLevel(res.Content),
		Provider:  res.Provider,
		Model:     res.Model,
	}
	if len(refs) > 0 {
		out.Sources = toSources(refs)
	}
	return out, nil
}

func parseRiskLevel(text string) string {
	m := riskPattern.FindStringSubmatch(text)
	if m == nil {
		return RiskUnknown
	}
	level := strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
	switch level {
	case "MEDIUM":
		return "MODERATE"
	case "EXTREME":
		return "EXTREMELY HIGH"
	}
	return level
}

type ExplainInput struct {
	Topic        string
	Level        string
	WeaponSystem string
}

type ExplainResult struct {
	Topic       string   `json:"topic"`
	Level       string   `json:"level"`
	Explanation string   `json:"explanation"`
	Sources     []Source `json:"sources,omitempty"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model,omitempty"`
}

func (s *BriefingService) ExplainConcept(ctx context.Context, input ExplainInput) (*ExplainResult, error) {
	if err := required("topic", input.Topic); err != nil {
		return nil, err
	}
	level, err := oneOf("level", input.Level, DefaultExplainLevel, explainLevel...)
	if err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(input.Topic)
	refs := s.references(topic, retrieval.Filter{WeaponSystem: input.WeaponSystem}, referenceLimit)

	prompt := ai.TaskDirective(ai.TaskConceptExplanation, 0) +
		fmt.Sprintf("\nExplain the concept for a %s-level student. Use a worked example where it helps.\n\n", level) +
		ai.ContentSection(topic)
	if section := referenceSection(refs); section != "" {
		prompt += "\n\n" + section
	}

	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}
	out := &ExplainResult{
		Topic:       topic,
		Level:       level,
		Explanation: strings.TrimSpace(res.Content),
		Provider:    res.Provider,
		Model:       res.Model,
	}
	if len(refs) > 0 {
		out.Sources = toSources(refs)
	}
	return out, nil
}
