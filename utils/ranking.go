package utils

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

// Weights for the composite priority score
const (
	WarmthWeight  = 0.40
	SegmentWeight = 0.25
	UrgencyWeight = 0.35
)

// ErrContactNotScored is returned when ranking is requested for a contact the
// warmth scorer has never run on. Unscored contacts are excluded, never
// treated as warmth zero.
var ErrContactNotScored = errors.New("contact has no warmth score; run the warmth scorer first")

// Urgency contribution per active hook. Hooks where the operator is the
// blocking party (they_waiting, question_unanswered, promise_made) outrank
// a merely dormant relationship.
var urgencyScores = map[string]int{
	models.HookTheyWaiting:         100,
	models.HookQuestionUnanswered:  90,
	models.HookPromiseMade:         70,
	models.HookDormant:             40,
}

var hookDescriptions = map[string]string{
	models.HookTheyWaiting:        "They're waiting for your reply",
	models.HookQuestionUnanswered: "They asked a question you haven't answered",
	models.HookPromiseMade:        "You made a promise you haven't fulfilled",
	models.HookDormant:            "Warm relationship gone quiet, good time to reconnect",
}

var segmentDescriptions = map[string]string{
	models.SegmentLATAM:     "Part of the LATAM founders network",
	models.SegmentCascadia:  "In the Cascadia AI community",
	models.SegmentJobTarget: "Works at a target company",
}

// SegmentScore gives 30 points per matched segment capped at 90, with a
// 10-point bonus for job_target, capped at 100 overall.
func SegmentScore(tags []string) int {
	if len(tags) == 0 {
		return 0
	}
	score := len(tags) * 30
	if score > 90 {
		score = 90
	}
	for _, tag := range tags {
		if tag == models.SegmentJobTarget {
			score += 10
			break
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// UrgencyScore returns the highest urgency among the active hooks.
func UrgencyScore(hookTypes []string) int {
	max := 0
	for _, hook := range hookTypes {
		if s := urgencyScores[hook]; s > max {
			max = s
		}
	}
	return max
}

// PriorityScore is the weighted composite, rounded to one decimal. It is
// monotonically non-decreasing in each component.
func PriorityScore(warmth, segmentScore, urgencyScore int) float64 {
	return round1(float64(warmth)*WarmthWeight +
		float64(segmentScore)*SegmentWeight +
		float64(urgencyScore)*UrgencyWeight)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// HookRef is the hook summary attached to a recommendation.
type HookRef struct {
	HookType   string `json:"hook_type"`
	HookDetail string `json:"hook_detail"`
}

// BuildReasons maps the score breakdown to deterministic human-readable
// reason strings: hooks first (most actionable), then segments, then warmth.
func BuildReasons(warmth int, tags []string, hooks []HookRef) []string {
	var reasons []string
	for _, hook := range hooks {
		if desc, ok := hookDescriptions[hook.HookType]; ok {
			reasons = append(reasons, desc)
		}
	}
	for _, tag := range tags {
		if desc, ok := segmentDescriptions[tag]; ok {
			reasons = append(reasons, desc)
		}
	}
	if warmth >= 70 {
		reasons = append(reasons, "Strong relationship")
	} else if warmth >= 40 {
		reasons = append(reasons, "Warm relationship")
	}
	return reasons
}

// PriorityBreakdown carries the three weighted components.
type PriorityBreakdown struct {
	WarmthComponent  float64 `json:"warmth_component"`
	SegmentComponent float64 `json:"segment_component"`
	UrgencyComponent float64 `json:"urgency_component"`
}

// Recommendation is one ranked outreach suggestion.
type Recommendation struct {
	ContactID     uint              `json:"contact_id"`
	ContactName   string            `json:"contact_name"`
	Company       string            `json:"contact_company"`
	Headline      string            `json:"contact_headline"`
	LinkedInURL   string            `json:"contact_linkedin_url"`
	WarmthScore   int               `json:"warmth_score"`
	SegmentTags   []string          `json:"segment_tags"`
	PriorityScore float64           `json:"priority_score"`
	Breakdown     PriorityBreakdown `json:"priority_breakdown"`
	Reasons       []string          `json:"reasons"`
	Hooks         []HookRef         `json:"resurrection_hooks"`
	InQueue       bool              `json:"in_queue,omitempty"`
}

// RecommendationSet is a ranked slice plus metadata.
type RecommendationSet struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalEligible   int              `json:"total_eligible"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Ranker composes warmth, segments, and active hooks into priorities.
type Ranker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewRanker(db *gorm.DB, logger *log.Logger) *Ranker {
	return &Ranker{DB: db, Logger: logger}
}

func scoreContact(contact *models.Contact, hooks []HookRef) Recommendation {
	warmth := 0
	if contact.WarmthScore != nil {
		warmth = *contact.WarmthScore
	}
	tags := contact.AllTags()

	segmentScore := SegmentScore(tags)
	urgencyScore := UrgencyScore(hookTypes(hooks))
	priority := PriorityScore(warmth, segmentScore, urgencyScore)

	return Recommendation{
		ContactID:     contact.ID,
		ContactName:   contact.Name,
		Company:       contact.Company,
		Headline:      contact.Headline,
		LinkedInURL:   contact.LinkedInURL,
		WarmthScore:   warmth,
		SegmentTags:   contact.SegmentTags,
		PriorityScore: priority,
		Breakdown: PriorityBreakdown{
			WarmthComponent:  round1(float64(warmth) * WarmthWeight),
			SegmentComponent: round1(float64(segmentScore) * SegmentWeight),
			UrgencyComponent: round1(float64(urgencyScore) * UrgencyWeight),
		},
		Reasons: BuildReasons(warmth, contact.SegmentTags, hooks),
		Hooks:   hooks,
	}
}

func hookTypes(hooks []HookRef) []string {
	types := make([]string, 0, len(hooks))
	for _, h := range hooks {
		types = append(types, h.HookType)
	}
	return types
}

// DailyRecommendations returns the ranked "who to contact today" list.
// Only contacts the warmth scorer has run on are eligible; contacts with an
// active queue item are excluded to prevent duplicate outreach.
func (r *Ranker) DailyRecommendations(limit int, segment string) (*RecommendationSet, error) {
	// Contact IDs already in the active queue
	var queuedIDs []uint
	if err := r.DB.Model(&models.OutreachQueueItem{}).
		Where("status IN ?", models.ActiveQueueStatuses).
		Pluck("contact_id", &queuedIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load queued contacts: %w", err)
	}
	queued := make(map[uint]struct{}, len(queuedIDs))
	for _, id := range queuedIDs {
		queued[id] = struct{}{}
	}

	var contacts []models.Contact
	if err := r.DB.Where("warmth_score IS NOT NULL").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	// Active hooks grouped by contact
	var opportunities []models.ResurrectionOpportunity
	if err := r.DB.Where("is_active = ?", true).Find(&opportunities).Error; err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	hooksByContact := make(map[uint][]HookRef)
	for _, opp := range opportunities {
		hooksByContact[opp.ContactID] = append(hooksByContact[opp.ContactID], HookRef{
			HookType:   opp.HookType,
			HookDetail: opp.HookDetail,
		})
	}

	set := &RecommendationSet{GeneratedAt: time.Now().UTC()}
	for i := range contacts {
		contact := &contacts[i]
		if _, inQueue := queued[contact.ID]; inQueue {
			continue
		}
		if segment != "" && !contact.HasTag(segment) {
			continue
		}
		set.TotalEligible++
		set.Recommendations = append(set.Recommendations, scoreContact(contact, hooksByContact[contact.ID]))
	}

	// Deterministic order: priority desc, then warmth desc, then contact ID
	// asc so equal-priority contacts always list the same way.
	sort.SliceStable(set.Recommendations, func(i, j int) bool {
		a, b := set.Recommendations[i], set.Recommendations[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.WarmthScore != b.WarmthScore {
			return a.WarmthScore > b.WarmthScore
		}
		return a.ContactID < b.ContactID
	})

	if limit > 0 && len(set.Recommendations) > limit {
		set.Recommendations = set.Recommendations[:limit]
	}
	return set, nil
}

// ContactPriority returns the breakdown for a single contact. Fails with
// ErrContactNotScored when the warmth scorer has not run for the contact.
func (r *Ranker) ContactPriority(contactID uint) (*Recommendation, error) {
	var contact models.Contact
	if err := r.DB.First(&contact, contactID).Error; err != nil {
		return nil, err
	}
	if contact.WarmthScore == nil {
		return nil, ErrContactNotScored
	}

	var opportunities []models.ResurrectionOpportunity
	if err := r.DB.Where("contact_id = ? AND is_active = ?", contactID, true).
		Find(&opportunities).Error; err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	hooks := make([]HookRef, 0, len(opportunities))
	for _, opp := range opportunities {
		hooks = append(hooks, HookRef{HookType: opp.HookType, HookDetail: opp.HookDetail})
	}

	var activeItems int64
	if err := r.DB.Model(&models.OutreachQueueItem{}).
		Where("contact_id = ? AND status IN ?", contactID, models.ActiveQueueStatuses).
		Count(&activeItems).Error; err != nil {
		return nil, fmt.Errorf("failed to check queue: %w", err)
	}

	rec := scoreContact(&contact, hooks)
	rec.InQueue = activeItems > 0
	return &rec, nil
}
