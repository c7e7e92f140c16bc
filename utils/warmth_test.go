package utils

import (
	"strings"
	"testing"
	"time"

	"linkedcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMessageSubstantive(t *testing.T) {
	assert.False(t, IsMessageSubstantive(""))
	assert.False(t, IsMessageSubstantive("Thanks!"))
	assert.False(t, IsMessageSubstantive("congrats"))
	assert.False(t, IsMessageSubstantive(strings.Repeat("a", MinSubstantiveLength-1)))
	assert.True(t, IsMessageSubstantive(strings.Repeat("a", MinSubstantiveLength)))
	assert.True(t, IsMessageSubstantive("I read your post on distributed tracing and it changed how we instrument our ingestion pipeline at work."))
}

func TestRecencyScore(t *testing.T) {
	assert.Equal(t, RecencyCap, RecencyScore(0))
	assert.Equal(t, RecencyCap, RecencyScore(RecencyFullDays))
	assert.Equal(t, 0, RecencyScore(RecencyZeroDays))
	assert.Equal(t, 0, RecencyScore(365))

	// Roughly halfway through the decay window
	mid := RecencyScore(93)
	assert.Greater(t, mid, 0)
	assert.Less(t, mid, RecencyCap)
	assert.Equal(t, 16, mid)
}

func TestFrequencyScore(t *testing.T) {
	assert.Equal(t, 0, FrequencyScore(0))
	assert.Equal(t, 0, FrequencyScore(-3))
	assert.Equal(t, 10, FrequencyScore(10))
	assert.Equal(t, FrequencyCap, FrequencyScore(FrequencyFullCount))
	assert.Equal(t, FrequencyCap, FrequencyScore(500))
}

func TestDepthScore(t *testing.T) {
	assert.Equal(t, 0, DepthScore(0, 0))
	assert.Equal(t, DepthCap, DepthScore(DepthFullAvgLength, DepthFullSubstantiveRatio))
	assert.Equal(t, DepthCap, DepthScore(2000, 1))
	assert.Equal(t, 12, DepthScore(250, 0.25))
}

func TestResponsivenessScore(t *testing.T) {
	assert.Equal(t, 0, ResponsivenessScore(0, 0))
	assert.Equal(t, ResponsivenessCap, ResponsivenessScore(5, 5))
	assert.Equal(t, 0, ResponsivenessScore(10, 0))
	assert.Equal(t, 0, ResponsivenessScore(0, 10))
	assert.Equal(t, 7, ResponsivenessScore(3, 1))
}

func TestInitiationScore(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, InitiationScore(nil))

	// Single thread opened by the contact
	assert.Equal(t, InitiationCap, InitiationScore([]models.Message{
		{Direction: models.DirectionReceived, Date: base},
		{Direction: models.DirectionSent, Date: base.Add(time.Hour)},
	}))

	// Single thread opened by the operator
	assert.Equal(t, 0, InitiationScore([]models.Message{
		{Direction: models.DirectionSent, Date: base},
		{Direction: models.DirectionReceived, Date: base.Add(time.Hour)},
	}))

	// Two threads split by the gap, one contact-initiated
	assert.Equal(t, 5, InitiationScore([]models.Message{
		{Direction: models.DirectionSent, Date: base},
		{Direction: models.DirectionReceived, Date: base.AddDate(0, 0, ThreadGapDays+1)},
	}))
}

func TestComputeWarmthEmptyHistory(t *testing.T) {
	score, breakdown := ComputeWarmth(nil, time.Now().UTC())
	assert.Equal(t, 0, score)
	assert.Equal(t, models.WarmthBreakdown{}, breakdown)
}

func TestComputeWarmthRecentActiveThread(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	content := "Here is a longer update about the project we discussed, including the rollout plan and the open questions on pricing."

	var messages []models.Message
	for i := 0; i < 25; i++ {
		direction := models.DirectionSent
		if i%2 == 0 {
			direction = models.DirectionReceived
		}
		messages = append(messages, models.Message{
			Direction: direction,
			Date:      now.AddDate(0, 0, -5-i),
			Content:   content,
		})
	}

	score, breakdown := ComputeWarmth(messages, now)

	assert.Equal(t, RecencyCap, breakdown.Recency, "5 days since last message is full recency")
	assert.Equal(t, FrequencyCap, breakdown.Frequency, "25 messages saturates frequency")
	assert.Greater(t, breakdown.Responsiveness, 10, "near-balanced thread")
	assert.Equal(t, breakdown.Total(), score, "score must equal the sum of components")
	assert.LessOrEqual(t, score, 100)
}

func TestComputeWarmthOrderIndependent(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -3), Content: "See you then!"},
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -40), Content: "Want to grab coffee next month?"},
		{Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -10), Content: "That sounds great, I have been meaning to catch up on everything since the conference last fall."},
	}
	reversed := []models.Message{messages[2], messages[1], messages[0]}

	scoreA, breakdownA := ComputeWarmth(messages, now)
	scoreB, breakdownB := ComputeWarmth(reversed, now)
	assert.Equal(t, scoreA, scoreB)
	assert.Equal(t, breakdownA, breakdownB)
}

func TestValidateMessages(t *testing.T) {
	now := time.Now().UTC()
	assert.NoError(t, ValidateMessages([]models.Message{
		{Direction: models.DirectionSent, Date: now},
		{Direction: models.DirectionReceived, Date: now},
	}))
	assert.Error(t, ValidateMessages([]models.Message{{Direction: "forwarded", Date: now}}))
	assert.Error(t, ValidateMessages([]models.Message{{Direction: models.DirectionSent}}))
}

func TestUpdateContactWarmthPersistsScore(t *testing.T) {
	db := newTestDB(t)
	scorer := NewWarmthScorer(db, testLogger())

	contact := models.Contact{LinkedInURL: "https://www.linkedin.com/in/ada", Name: "Ada Nguyen"}
	require.NoError(t, db.Create(&contact).Error)

	now := time.Now().UTC()
	messages := []models.Message{
		{ContactID: contact.ID, Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -2),
			Content: "I finally got around to trying the approach you suggested and the latency numbers look a lot better now."},
		{ContactID: contact.ID, Direction: models.DirectionSent, Date: now.AddDate(0, 0, -1),
			Content: "That is great to hear, would love to see the before and after graphs sometime."},
	}
	for i := range messages {
		require.NoError(t, db.Create(&messages[i]).Error)
	}

	require.NoError(t, scorer.UpdateContactWarmth(&contact))
	require.NotNil(t, contact.WarmthScore)
	assert.Greater(t, *contact.WarmthScore, 0)

	var stored models.Contact
	require.NoError(t, db.First(&stored, contact.ID).Error)
	require.NotNil(t, stored.WarmthScore)
	assert.Equal(t, *contact.WarmthScore, *stored.WarmthScore)
	assert.Equal(t, stored.WarmthBreakdown.Total(), *stored.WarmthScore)
	assert.NotNil(t, stored.WarmthCalculatedAt)
}

func TestRecalculateAll(t *testing.T) {
	db := newTestDB(t)
	scorer := NewWarmthScorer(db, testLogger())

	withHistory := models.Contact{LinkedInURL: "https://www.linkedin.com/in/with-history", Name: "With History"}
	noHistory := models.Contact{LinkedInURL: "https://www.linkedin.com/in/no-history", Name: "No History"}
	require.NoError(t, db.Create(&withHistory).Error)
	require.NoError(t, db.Create(&noHistory).Error)

	require.NoError(t, db.Create(&models.Message{
		ContactID: withHistory.ID,
		Direction: models.DirectionReceived,
		Date:      time.Now().UTC().AddDate(0, 0, -3),
		Content:   "Saw the launch announcement today, congratulations to the whole team, that must have been a huge push to land.",
	}).Error)

	result, err := scorer.RecalculateAll()
	require.NoError(t, err)
	assert.Equal(t, 2, result.ContactsProcessed)
	assert.Equal(t, 1, result.ContactsScored)
	assert.Equal(t, 1, result.ContactsZero)
	assert.Empty(t, result.Errors)
}

func TestUpdateSubstantiveFlags(t *testing.T) {
	db := newTestDB(t)
	scorer := NewWarmthScorer(db, testLogger())

	contact := models.Contact{LinkedInURL: "https://www.linkedin.com/in/flags", Name: "Flag Test"}
	require.NoError(t, db.Create(&contact).Error)

	now := time.Now().UTC()
	long := models.Message{ContactID: contact.ID, Direction: models.DirectionSent, Date: now,
		Content: strings.Repeat("substantive content ", 10)}
	short := models.Message{ContactID: contact.ID, Direction: models.DirectionReceived, Date: now,
		Content: "Thanks!"}
	flagged := models.Message{ContactID: contact.ID, Direction: models.DirectionSent, Date: now,
		Content: "ok", IsSubstantive: Pointer(false)}
	require.NoError(t, db.Create(&long).Error)
	require.NoError(t, db.Create(&short).Error)
	require.NoError(t, db.Create(&flagged).Error)

	count, err := scorer.UpdateSubstantiveFlags()
	require.NoError(t, err)
	assert.Equal(t, 2, count, "already-flagged messages are left alone")

	// Fresh destination per lookup: a reused struct would feed its stale
	// primary key back into the query conditions.
	var storedLong models.Message
	require.NoError(t, db.First(&storedLong, long.ID).Error)
	require.NotNil(t, storedLong.IsSubstantive)
	assert.True(t, *storedLong.IsSubstantive)

	var storedShort models.Message
	require.NoError(t, db.First(&storedShort, short.ID).Error)
	require.NotNil(t, storedShort.IsSubstantive)
	assert.False(t, *storedShort.IsSubstantive)
}
