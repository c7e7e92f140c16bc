package utils

import (
	"testing"
	"time"

	"linkedcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func hookTypesOf(detections []HookDetection) []string {
	types := make([]string, 0, len(detections))
	for _, d := range detections {
		types = append(types, d.HookType)
	}
	return types
}

func TestExtractPromiseContext(t *testing.T) {
	assert.Equal(t, "", ExtractPromiseContext(""))
	assert.Equal(t, "", ExtractPromiseContext("Great catching up yesterday."))

	got := ExtractPromiseContext("Great catching up. I'll send you the deck tomorrow. Talk soon.")
	assert.Equal(t, "I'll send you the deck tomorrow.", got)
}

func TestHasQuestion(t *testing.T) {
	assert.False(t, HasQuestion(""))
	assert.False(t, HasQuestion("Sounds good, talk soon."))
	assert.False(t, HasQuestion("How are you?"), "small talk is not a real question")
	assert.True(t, HasQuestion("What did you think about the proposal I sent over?"))
}

func TestExtractQuestionContext(t *testing.T) {
	got := ExtractQuestionContext("Thanks for the intro! Are you free next week? Also, did you see the announcement?")
	assert.Equal(t, "Also, did you see the announcement?", got)
}

func TestDetectHooksEmptyThread(t *testing.T) {
	contact := &models.Contact{WarmthScore: Pointer(50)}
	assert.Empty(t, DetectHooks(contact, nil, time.Now().UTC()))
}

func TestDetectHooksDormant(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(55)}
	thread := []models.Message{
		{Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -95), Content: "Great seeing you at the meetup."},
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -90), Content: "Likewise, it was a really fun crowd this time."},
	}

	detections := DetectHooks(contact, thread, now)
	assert.Equal(t, []string{models.HookDormant}, hookTypesOf(detections))
	assert.Contains(t, detections[0].Detail, "90 days ago")
}

func TestDetectHooksDormantNeedsWarmth(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(DormantMinWarmth - 1)}
	thread := []models.Message{
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -100), Content: "Nice running into you."},
	}
	assert.Empty(t, DetectHooks(contact, thread, now))
}

func TestDetectHooksPromiseMade(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(20)}
	thread := []models.Message{
		{Model: gormModel(1), Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -12), Content: "No rush at all."},
		{Model: gormModel(2), Direction: models.DirectionSent, Date: now.AddDate(0, 0, -10), Content: "I'll send you the deck once it's cleaned up."},
	}

	detections := DetectHooks(contact, thread, now)
	require.Equal(t, []string{models.HookPromiseMade}, hookTypesOf(detections))
	require.NotNil(t, detections[0].SourceMessageID)
	assert.Equal(t, uint(2), *detections[0].SourceMessageID)
	assert.Contains(t, detections[0].Detail, "I'll send you the deck")
}

func TestDetectHooksPromiseExpires(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(20)}
	thread := []models.Message{
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -(PromiseLookbackDays + 10)),
			Content: "I'll send you the deck once it's cleaned up."},
	}
	assert.Empty(t, DetectHooks(contact, thread, now))
}

func TestDetectHooksQuestionSuppressesWaiting(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(50)}
	thread := []models.Message{
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -8), Content: "Here is the summary you wanted."},
		{Model: gormModel(7), Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -5),
			Content: "This is helpful. What did you think about the pricing section?"},
	}

	detections := DetectHooks(contact, thread, now)
	types := hookTypesOf(detections)
	assert.Contains(t, types, models.HookQuestionUnanswered)
	assert.NotContains(t, types, models.HookTheyWaiting, "the question hook is the more specific signal")
}

func TestDetectHooksTheyWaiting(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(15)}
	thread := []models.Message{
		{Direction: models.DirectionSent, Date: now.AddDate(0, 0, -9), Content: "Let's sync after the holidays."},
		{Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -5), Content: "Sounds good, talk soon."},
	}

	detections := DetectHooks(contact, thread, now)
	types := hookTypesOf(detections)
	assert.Contains(t, types, models.HookTheyWaiting)
}

func TestDetectHooksWaitingNeedsWarmth(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact := &models.Contact{WarmthScore: Pointer(WaitingMinWarmth - 1)}
	thread := []models.Message{
		{Direction: models.DirectionReceived, Date: now.AddDate(0, 0, -5), Content: "Sounds good, talk soon."},
	}
	assert.Empty(t, DetectHooks(contact, thread, now))
}

func seedDormantContact(t *testing.T, db *gorm.DB, url string) *models.Contact {
	t.Helper()
	contact := models.Contact{
		LinkedInURL:   url,
		Name:          "Dormant Contact",
		WarmthScore:   Pointer(60),
		TotalMessages: 1,
	}
	require.NoError(t, db.Create(&contact).Error)
	require.NoError(t, db.Create(&models.Message{
		ContactID: contact.ID,
		Direction: models.DirectionSent,
		Date:      time.Now().UTC().AddDate(0, 0, -90),
		Content:   "Great seeing you at the conference last quarter.",
	}).Error)
	return &contact
}

func TestScanContactNoDuplicateRows(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	contact := seedDormantContact(t, db, "https://www.linkedin.com/in/dormant")

	stats := &ScanStats{ByType: map[string]int{}}
	require.NoError(t, scanner.ScanContact(contact, stats))
	assert.Equal(t, 1, stats.Created)

	stats = &ScanStats{ByType: map[string]int{}}
	require.NoError(t, scanner.ScanContact(contact, stats))
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.Updated)

	var count int64
	require.NoError(t, db.Model(&models.ResurrectionOpportunity{}).
		Where("contact_id = ?", contact.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDismissIsStickyAcrossRescans(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	contact := seedDormantContact(t, db, "https://www.linkedin.com/in/sticky")

	require.NoError(t, scanner.ScanContact(contact, nil))

	var opp models.ResurrectionOpportunity
	require.NoError(t, db.Where("contact_id = ?", contact.ID).First(&opp).Error)
	require.NoError(t, scanner.Dismiss(opp.ID))

	// Condition still holds on rescan; dismissal must survive
	require.NoError(t, scanner.ScanContact(contact, nil))

	require.NoError(t, db.First(&opp, opp.ID).Error)
	assert.False(t, opp.IsActive)
	assert.NotNil(t, opp.DismissedAt)
}

func TestDeactivationClearsDismissalAndReArms(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	contact := seedDormantContact(t, db, "https://www.linkedin.com/in/rearm")

	require.NoError(t, scanner.ScanContact(contact, nil))

	var opp models.ResurrectionOpportunity
	require.NoError(t, db.Where("contact_id = ?", contact.ID).First(&opp).Error)
	require.NoError(t, scanner.Dismiss(opp.ID))

	// Warmth drops below the dormant threshold: condition goes false,
	// the row deactivates and the dismissal is cleared.
	contact.WarmthScore = Pointer(10)
	require.NoError(t, db.Model(contact).Update("warmth_score", 10).Error)
	require.NoError(t, scanner.ScanContact(contact, nil))

	require.NoError(t, db.First(&opp, opp.ID).Error)
	assert.False(t, opp.IsActive)
	assert.Nil(t, opp.DismissedAt)

	// Condition returns: the hook re-arms instead of staying dismissed
	contact.WarmthScore = Pointer(60)
	require.NoError(t, db.Model(contact).Update("warmth_score", 60).Error)
	require.NoError(t, scanner.ScanContact(contact, nil))

	require.NoError(t, db.First(&opp, opp.ID).Error)
	assert.True(t, opp.IsActive)
	assert.Nil(t, opp.DismissedAt)
}

func TestDismissForContact(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	contact := seedDormantContact(t, db, "https://www.linkedin.com/in/dismiss-all")

	require.NoError(t, scanner.ScanContact(contact, nil))

	dismissed, err := scanner.DismissForContact(contact.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dismissed)

	dismissed, err = scanner.DismissForContact(contact.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), dismissed)
}

func TestActiveOpportunities(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	contact := seedDormantContact(t, db, "https://www.linkedin.com/in/listing")

	require.NoError(t, scanner.ScanContact(contact, nil))

	listed, err := scanner.ActiveOpportunities("", 50)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, contact.ID, listed[0].ContactID)
	assert.Equal(t, "Dormant Contact", listed[0].ContactName)
	assert.Equal(t, models.HookDormant, listed[0].HookType)

	listed, err = scanner.ActiveOpportunities(models.HookPromiseMade, 50)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestScanAll(t *testing.T) {
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	seedDormantContact(t, db, "https://www.linkedin.com/in/scan-all")

	// No message history: skipped by the scan entirely
	require.NoError(t, db.Create(&models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/quiet",
		Name:        "No Messages",
	}).Error)

	stats, err := scanner.ScanAll()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ContactsScanned)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.ByType[models.HookDormant])
	assert.Empty(t, stats.Errors)
}
