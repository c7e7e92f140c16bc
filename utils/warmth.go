package utils

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

// Warmth scoring constants. The five components cap at 30/20/25/15/10 and
// sum to a 0-100 score.
const (
	RecencyCap        = 30
	FrequencyCap      = 20
	DepthCap          = 25
	ResponsivenessCap = 15
	InitiationCap     = 10

	// Full recency points at or under this many days since last message
	RecencyFullDays = 7
	// Zero recency points at or over this many days
	RecencyZeroDays = 180

	// Message count at which frequency saturates
	FrequencyFullCount = 20

	// Average length at which the depth length component saturates
	DepthFullAvgLength = 500
	// Substantive ratio at which the depth ratio component saturates
	DepthFullSubstantiveRatio = 0.5

	// Minimum length for a substantive message
	MinSubstantiveLength = 100

	// A gap longer than this between consecutive messages starts a new
	// conversation thread for the initiation component.
	ThreadGapDays = 7
)

// Shallow message patterns - these never count as substantive regardless
// of length.
var shallowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^thanks?!*$`),
	regexp.MustCompile(`^thank you!*$`),
	regexp.MustCompile(`^congrats!*$`),
	regexp.MustCompile(`^congratulations!*$`),
	regexp.MustCompile(`^happy birthday!*$`),
	regexp.MustCompile(`^welcome!*$`),
	regexp.MustCompile(`^great!*$`),
	regexp.MustCompile(`^awesome!*$`),
	regexp.MustCompile(`^nice!*$`),
	regexp.MustCompile(`^cool!*$`),
	regexp.MustCompile(`^ok!*$`),
	regexp.MustCompile(`^okay!*$`),
	regexp.MustCompile(`^sure!*$`),
	regexp.MustCompile(`^yes!*$`),
	regexp.MustCompile(`^no!*$`),
}

// IsMessageSubstantive reports whether a message carries meaningful content:
// at least MinSubstantiveLength characters and not a shallow throwaway phrase.
func IsMessageSubstantive(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if len(trimmed) < MinSubstantiveLength {
		return false
	}
	for _, pattern := range shallowPatterns {
		if pattern.MatchString(trimmed) {
			return false
		}
	}
	return true
}

// RecencyScore decays linearly from full points at RecencyFullDays to zero
// at RecencyZeroDays.
func RecencyScore(daysSinceLast int) int {
	if daysSinceLast <= RecencyFullDays {
		return RecencyCap
	}
	if daysSinceLast >= RecencyZeroDays {
		return 0
	}
	span := RecencyZeroDays - RecencyFullDays
	score := RecencyCap - (daysSinceLast-RecencyFullDays)*RecencyCap/span
	if score < 0 {
		return 0
	}
	return score
}

// FrequencyScore saturates at FrequencyFullCount messages.
func FrequencyScore(totalMessages int) int {
	if totalMessages >= FrequencyFullCount {
		return FrequencyCap
	}
	if totalMessages < 0 {
		return 0
	}
	return totalMessages * FrequencyCap / FrequencyFullCount
}

// DepthScore blends average message length (0-15) with the fraction of
// substantive messages (0-10).
func DepthScore(avgMessageLength float64, substantiveRatio float64) int {
	lengthScore := 15
	if avgMessageLength < DepthFullAvgLength {
		lengthScore = int(avgMessageLength * 15 / DepthFullAvgLength)
	}

	substantiveScore := 10
	if substantiveRatio < DepthFullSubstantiveRatio {
		substantiveScore = int(substantiveRatio * 10 / DepthFullSubstantiveRatio)
	}

	return lengthScore + substantiveScore
}

// ResponsivenessScore gives full points at a 1:1 sent/received balance and
// degrades to zero as the conversation becomes one-sided.
func ResponsivenessScore(sent, received int) int {
	total := sent + received
	if total == 0 {
		return 0
	}
	sentRatio := float64(sent) / float64(total)
	balance := 1 - abs(sentRatio-0.5)*2
	return int(balance * ResponsivenessCap)
}

// InitiationScore rewards the contact opening conversation threads. Messages
// must be in chronological order; a gap over ThreadGapDays starts a new thread.
func InitiationScore(ordered []models.Message) int {
	if len(ordered) == 0 {
		return 0
	}

	threads := 0
	contactInitiated := 0
	var prev time.Time

	for i, msg := range ordered {
		newThread := i == 0 || msg.Date.Sub(prev) > ThreadGapDays*24*time.Hour
		if newThread {
			threads++
			if msg.Direction == models.DirectionReceived {
				contactInitiated++
			}
		}
		prev = msg.Date
	}

	return contactInitiated * InitiationCap / threads
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// ComputeWarmth calculates the warmth score and breakdown for one contact's
// full message history. Pure: same messages and clock give the same result.
// An empty history scores 0 with a zeroed breakdown.
func ComputeWarmth(messages []models.Message, now time.Time) (int, models.WarmthBreakdown) {
	if len(messages) == 0 {
		return 0, models.WarmthBreakdown{}
	}

	ordered := make([]models.Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	last := ordered[len(ordered)-1].Date
	daysSinceLast := int(now.Sub(last).Hours() / 24)

	sent := 0
	received := 0
	substantive := 0
	contentTotal := 0
	contentCount := 0
	for _, msg := range ordered {
		switch msg.Direction {
		case models.DirectionSent:
			sent++
		case models.DirectionReceived:
			received++
		}
		if msg.Content != "" {
			contentTotal += len(msg.Content)
			contentCount++
		}
		if IsMessageSubstantive(msg.Content) {
			substantive++
		}
	}

	avgLength := 0.0
	if contentCount > 0 {
		avgLength = float64(contentTotal) / float64(contentCount)
	}
	substantiveRatio := float64(substantive) / float64(len(ordered))

	breakdown := models.WarmthBreakdown{
		Recency:        RecencyScore(daysSinceLast),
		Frequency:      FrequencyScore(len(ordered)),
		Depth:          DepthScore(avgLength, substantiveRatio),
		Responsiveness: ResponsivenessScore(sent, received),
		Initiation:     InitiationScore(ordered),
	}

	return breakdown.Total(), breakdown
}

// ValidateMessages rejects malformed message records before they reach the
// scorers: every message needs a valid direction and a timestamp.
func ValidateMessages(messages []models.Message) error {
	for _, msg := range messages {
		if msg.Direction != models.DirectionSent && msg.Direction != models.DirectionReceived {
			return fmt.Errorf("message %d has invalid direction %q", msg.ID, msg.Direction)
		}
		if msg.Date.IsZero() {
			return fmt.Errorf("message %d has no timestamp", msg.ID)
		}
	}
	return nil
}

// WarmthScorer loads message history and persists computed scores.
type WarmthScorer struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewWarmthScorer(db *gorm.DB, logger *log.Logger) *WarmthScorer {
	return &WarmthScorer{DB: db, Logger: logger}
}

// UpdateContactWarmth recomputes and stores the warmth score for one contact.
func (ws *WarmthScorer) UpdateContactWarmth(contact *models.Contact) error {
	var messages []models.Message
	if err := ws.DB.Where("contact_id = ?", contact.ID).Order("date asc").Find(&messages).Error; err != nil {
		return fmt.Errorf("failed to load messages for contact %d: %w", contact.ID, err)
	}

	if err := ValidateMessages(messages); err != nil {
		return fmt.Errorf("contact %d: %w", contact.ID, err)
	}

	now := time.Now().UTC()
	score, breakdown := ComputeWarmth(messages, now)

	contact.WarmthScore = &score
	contact.WarmthBreakdown = breakdown
	contact.WarmthCalculatedAt = &now

	return ws.DB.Model(contact).Updates(map[string]interface{}{
		"warmth_score":          score,
		"warmth_recency":        breakdown.Recency,
		"warmth_frequency":      breakdown.Frequency,
		"warmth_depth":          breakdown.Depth,
		"warmth_responsiveness": breakdown.Responsiveness,
		"warmth_initiation":     breakdown.Initiation,
		"warmth_calculated_at":  now,
	}).Error
}

// BatchResult reports what a full recompute pass touched. Per-record failures
// are collected rather than aborting the batch.
type BatchResult struct {
	ContactsProcessed int      `json:"contacts_processed"`
	ContactsScored    int      `json:"contacts_scored"`
	ContactsZero      int      `json:"contacts_zero"`
	Errors            []string `json:"errors,omitempty"`
}

// RecalculateAll recomputes warmth for every contact. One corrupt contact
// is reported and skipped, not allowed to block the rest of the batch.
func (ws *WarmthScorer) RecalculateAll() (*BatchResult, error) {
	var contacts []models.Contact
	if err := ws.DB.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	result := &BatchResult{}
	for i := range contacts {
		if err := ws.UpdateContactWarmth(&contacts[i]); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ContactsProcessed++
		if contacts[i].WarmthScore != nil && *contacts[i].WarmthScore > 0 {
			result.ContactsScored++
		} else {
			result.ContactsZero++
		}
	}
	return result, nil
}

// UpdateSubstantiveFlags classifies every message that has not been flagged
// yet. Returns the number of messages updated.
func (ws *WarmthScorer) UpdateSubstantiveFlags() (int, error) {
	var messages []models.Message
	if err := ws.DB.Where("is_substantive IS NULL").Find(&messages).Error; err != nil {
		return 0, err
	}

	count := 0
	for i := range messages {
		flag := IsMessageSubstantive(messages[i].Content)
		if err := ws.DB.Model(&messages[i]).Update("is_substantive", flag).Error; err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
