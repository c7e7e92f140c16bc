package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const generatorSystemPrompt = `You are helping write LinkedIn messages for a tech professional based in Seattle.

Your messages should be:
- Warm and authentic, not salesy or generic
- Concise (2-4 sentences for initial outreach, can be longer for follow-ups)
- Personal - reference specific details about the person when available
- Action-oriented - include a clear but soft call to action
- Professional but friendly

Never use:
- Generic openers like "I hope this message finds you well"
- Overly formal language
- Excessive exclamation points
- Buzzwords or corporate jargon
- Phrases like "I'd love to pick your brain"

Always write in first person.`

var segmentContexts = map[string]string{
	models.SegmentLATAM: `Context: This contact is part of a community of women entrepreneurs and tech professionals in Latin America that the sender runs to connect and support Latinas in tech.

Tone: Warm, supportive, community-focused. Can use Spanish phrases naturally if appropriate. Focus on mutual support and community connection.`,

	models.SegmentCascadia: `Context: This contact is part of a community of AI/ML professionals in the Pacific Northwest (Seattle, Portland, Vancouver) that the sender is building to connect local AI practitioners.

Tone: Professional but friendly, tech-savvy. Focus on local AI community, knowledge sharing, and professional connection.`,

	models.SegmentJobTarget: `Context: This contact works at a company where the sender is interested in opportunities. This is a networking message, not a job application.

Tone: Professional, curious about their work. Focus on learning about their experience at the company, not asking for referrals directly.`,
}

var purposeTemplates = map[string]string{
	"reconnect":        "Goal: Reconnect with this contact after a period of no communication. Reference your shared history if available.",
	"introduce":        "Goal: Make a first meaningful connection. Find common ground and express genuine interest.",
	"follow_up":        "Goal: Follow up on a previous conversation or commitment. Be specific about what was discussed.",
	"invite_community": "Goal: Invite them to join a community or event. Explain the value without being pushy.",
	"ask_advice":       "Goal: Ask for their perspective or advice on something specific. Be clear about what you're asking.",
	"congratulate":     "Goal: Congratulate them on a recent achievement (new job, promotion, milestone). Be genuine and brief.",
	"share_resource":   "Goal: Share something valuable with them (article, opportunity, connection). Explain why you thought of them.",
}

// Anthropic Messages API request/response shapes.

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerationResult holds the generated message variations for a contact.
type GenerationResult struct {
	Contact    GenerationContact `json:"contact"`
	Purpose    string            `json:"purpose"`
	Segment    string            `json:"segment"`
	Variations []string          `json:"variations"`
	TokensUsed int               `json:"tokens_used"`
}

type GenerationContact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Headline    string `json:"headline"`
	WarmthScore *int   `json:"warmth_score"`
}

// MessageGenerator drafts personalized outreach messages using the Anthropic
// Messages API, grounded on the contact's profile, history, and active hooks.
type MessageGenerator struct {
	DB         *gorm.DB
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewMessageGenerator(db *gorm.DB, apiKey, model string) *MessageGenerator {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &MessageGenerator{
		DB:     db,
		APIKey: apiKey,
		Model:  model,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// buildContactContext renders the contact's profile and relationship stats
// as prompt lines.
func (g *MessageGenerator) buildContactContext(contact *models.Contact) string {
	parts := []string{"Name: " + contact.Name}

	if contact.Headline != "" {
		parts = append(parts, "Headline: "+contact.Headline)
	}
	if contact.Company != "" {
		parts = append(parts, "Company: "+contact.Company)
	}
	if contact.Position != "" {
		parts = append(parts, "Position: "+contact.Position)
	}
	if contact.Location != "" {
		parts = append(parts, "Location: "+contact.Location)
	}
	if contact.About != "" {
		about := contact.About
		if len(about) > 500 {
			about = about[:500] + "..."
		}
		parts = append(parts, "About: "+about)
	}
	if contact.WarmthScore != nil {
		parts = append(parts, fmt.Sprintf("Relationship warmth: %d/100", *contact.WarmthScore))
	}
	if contact.TotalMessages > 0 {
		parts = append(parts, fmt.Sprintf("Total messages exchanged: %d", contact.TotalMessages))
	}
	if contact.LastMessageDate != nil {
		daysSince := int(time.Since(*contact.LastMessageDate).Hours() / 24)
		parts = append(parts, fmt.Sprintf("Last message: %d days ago", daysSince))
	}
	if contact.ConnectionDate != nil {
		parts = append(parts, "Connected since: "+contact.ConnectionDate.Format("2006-01-02"))
	}

	return strings.Join(parts, "\n")
}

// recentMessageHistory renders the last few messages in chronological order.
func (g *MessageGenerator) recentMessageHistory(contactID uint, limit int) (string, error) {
	var messages []models.Message
	if err := g.DB.Where("contact_id = ?", contactID).
		Order("date DESC").Limit(limit).Find(&messages).Error; err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "No previous messages.", nil
	}

	parts := []string{"Recent conversation:"}
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		who := "Them"
		if msg.Direction == models.DirectionSent {
			who = "You"
		}
		content := msg.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		if content == "" {
			content = "(no content)"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", msg.Date.Format("2006-01-02"), who, content))
	}
	return strings.Join(parts, "\n"), nil
}

// hookContext renders the contact's active resurrection hooks, if any.
func (g *MessageGenerator) hookContext(contactID uint) (string, error) {
	var opportunities []models.ResurrectionOpportunity
	if err := g.DB.Where("contact_id = ? AND is_active = ?", contactID, true).
		Find(&opportunities).Error; err != nil {
		return "", err
	}
	if len(opportunities) == 0 {
		return "", nil
	}

	parts := []string{"Outreach hooks:"}
	for _, opp := range opportunities {
		parts = append(parts, fmt.Sprintf("- %s\n  Detail: %s", hookDescriptions[opp.HookType], opp.HookDetail))
	}
	return strings.Join(parts, "\n"), nil
}

// Generate produces numbered message variations for a contact. segment
// overrides the contact's own tags when set; numVariations is clamped to 1-3.
func (g *MessageGenerator) Generate(ctx context.Context, contactID uint, purpose, segment, customContext string, numVariations int) (*GenerationResult, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key not configured")
	}
	if numVariations < 1 {
		numVariations = 1
	}
	if numVariations > 3 {
		numVariations = 3
	}

	var contact models.Contact
	if err := g.DB.First(&contact, contactID).Error; err != nil {
		return nil, err
	}

	if segment == "" && len(contact.SegmentTags) > 0 {
		segment = contact.SegmentTags[0]
	}

	history, err := g.recentMessageHistory(contact.ID, 5)
	if err != nil {
		return nil, err
	}
	hooks, err := g.hookContext(contact.ID)
	if err != nil {
		return nil, err
	}

	promptParts := []string{
		"## Contact Information",
		g.buildContactContext(&contact),
		"",
		"## Message History",
		history,
	}
	if hooks != "" {
		promptParts = append(promptParts, "", "## Outreach Opportunity", hooks)
	}
	if ctxText, ok := segmentContexts[segment]; ok {
		promptParts = append(promptParts, "", "## Segment Context", ctxText)
	}
	if tmpl, ok := purposeTemplates[purpose]; ok {
		promptParts = append(promptParts, "", "## Purpose", tmpl)
	}
	if customContext != "" {
		promptParts = append(promptParts, "", "## Additional Context", customContext)
	}
	promptParts = append(promptParts,
		"",
		"## Task",
		fmt.Sprintf("Write %d different LinkedIn message variation(s) for this contact.", numVariations),
		"Each variation should take a slightly different angle or tone.",
		"Format: Number each variation (1, 2, etc.) and separate with blank lines.",
		"Keep messages concise - aim for 2-4 sentences for initial outreach.",
	)

	response, err := g.callAnthropic(ctx, strings.Join(promptParts, "\n"))
	if err != nil {
		return nil, err
	}

	raw := ""
	for _, block := range response.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}

	variations := ParseVariations(raw)

	return &GenerationResult{
		Contact: GenerationContact{
			ID:          contact.ID,
			Name:        contact.Name,
			Company:     contact.Company,
			Headline:    contact.Headline,
			WarmthScore: contact.WarmthScore,
		},
		Purpose:    purpose,
		Segment:    segment,
		Variations: variations,
		TokensUsed: response.Usage.InputTokens + response.Usage.OutputTokens,
	}, nil
}

func (g *MessageGenerator) callAnthropic(ctx context.Context, userPrompt string) (*anthropicResponse, error) {
	request := anthropicRequest{
		Model:     g.Model,
		MaxTokens: 1024,
		System:    generatorSystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: userPrompt}},
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", anthropicAPIURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w (body: %s)", err, string(body))
	}
	if response.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}
	return &response, nil
}

// ParseVariations splits a numbered-list model response into individual
// message variations. Falls back to the whole response if no numbering is
// found.
func ParseVariations(raw string) []string {
	var variations []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			if v := strings.TrimSpace(strings.Join(current, "\n")); v != "" {
				variations = append(variations, v)
			}
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		stripped := strings.TrimSpace(line)
		isNumbered := len(stripped) > 1 && stripped[0] >= '0' && stripped[0] <= '9' &&
			(stripped[1] == '.' || stripped[1] == ')')
		if isNumbered || strings.HasPrefix(stripped, "Variation") {
			flush()
			if isNumbered {
				current = append(current, strings.TrimSpace(stripped[2:]))
			} else if idx := strings.Index(stripped, ":"); idx >= 0 {
				current = append(current, strings.TrimSpace(stripped[idx+1:]))
			}
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(variations) == 0 {
		if v := strings.TrimSpace(raw); v != "" {
			variations = []string{v}
		}
	}
	return variations
}
