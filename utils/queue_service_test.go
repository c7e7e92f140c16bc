package utils

import (
	"testing"
	"time"

	"linkedcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQueueFixture(t *testing.T) (*gorm.DB, *QueueService, *models.Contact) {
	t.Helper()
	db := newTestDB(t)
	scanner := NewResurrectionScanner(db, testLogger())
	service := NewQueueService(db, scanner, testLogger())

	contact := models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/queue-contact",
		Name:        "Queue Contact",
		WarmthScore: Pointer(55),
	}
	require.NoError(t, db.Create(&contact).Error)
	return db, service, &contact
}

func TestEnqueueCreatesDraft(t *testing.T) {
	_, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "Hola! Ha pasado demasiado tiempo.")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, item.Status)
	assert.Equal(t, contact.ID, item.ContactID)
	assert.Equal(t, "reconnect", item.Purpose)
}

func TestEnqueueUnknownContact(t *testing.T) {
	_, service, _ := newQueueFixture(t)
	_, err := service.Enqueue(999999, "latam", "warm", "reconnect", "hello")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEnqueueOneActivePerContact(t *testing.T) {
	_, service, contact := newQueueFixture(t)

	first, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "draft one")
	require.NoError(t, err)

	_, err = service.Enqueue(contact.ID, "latam", "warm", "follow_up", "draft two")
	assert.ErrorIs(t, err, ErrDuplicateQueueItem)

	// Approved still counts as active
	_, err = service.Transition(first.ID, models.StatusApproved)
	require.NoError(t, err)
	_, err = service.Enqueue(contact.ID, "latam", "warm", "follow_up", "draft two")
	assert.ErrorIs(t, err, ErrDuplicateQueueItem)

	// Once sent, a new outreach cycle may start
	_, err = service.Transition(first.ID, models.StatusSent)
	require.NoError(t, err)
	_, err = service.Enqueue(contact.ID, "latam", "warm", "follow_up", "draft two")
	assert.NoError(t, err)
}

func TestEnqueueAutoDismissesHooks(t *testing.T) {
	db, service, contact := newQueueFixture(t)

	require.NoError(t, db.Create(&models.ResurrectionOpportunity{
		ContactID:  contact.ID,
		HookType:   models.HookDormant,
		HookDetail: "Last message was 80 days ago. Warmth score: 55",
		DetectedAt: time.Now().UTC(),
		IsActive:   true,
	}).Error)

	_, err := service.Enqueue(contact.ID, "cascadia", "resurrection", "reconnect", "Been a while!")
	require.NoError(t, err)

	var opp models.ResurrectionOpportunity
	require.NoError(t, db.Where("contact_id = ?", contact.ID).First(&opp).Error)
	assert.False(t, opp.IsActive)
	assert.NotNil(t, opp.DismissedAt)
}

func TestTransitionLifecycle(t *testing.T) {
	db, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "job_search", "cold", "ask_advice", "draft")
	require.NoError(t, err)

	_, err = service.Transition(item.ID, models.StatusApproved)
	require.NoError(t, err)
	var stored models.OutreachQueueItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.NotNil(t, stored.ApprovedAt)
	assert.Nil(t, stored.SentAt)

	_, err = service.Transition(item.ID, models.StatusSent)
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.NotNil(t, stored.SentAt)

	_, err = service.Transition(item.ID, models.StatusResponded)
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, models.StatusResponded, stored.Status)
	assert.NotNil(t, stored.RepliedAt)

	// Terminal state
	_, err = service.Transition(item.ID, models.StatusDraft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot transition")
}

func TestTransitionRejectsSkips(t *testing.T) {
	_, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "draft")
	require.NoError(t, err)

	_, err = service.Transition(item.ID, models.StatusSent)
	require.Error(t, err, "drafts cannot go straight to sent")
	assert.Contains(t, err.Error(), "cannot transition")

	_, err = service.Transition(item.ID, models.StatusResponded)
	require.Error(t, err)
}

func TestTransitionApprovedBackToDraft(t *testing.T) {
	db, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "draft")
	require.NoError(t, err)
	_, err = service.Transition(item.ID, models.StatusApproved)
	require.NoError(t, err)

	_, err = service.Transition(item.ID, models.StatusDraft)
	require.NoError(t, err)

	var stored models.OutreachQueueItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, models.StatusDraft, stored.Status)
}

func TestUpdateMessageDraftsOnly(t *testing.T) {
	db, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "first draft")
	require.NoError(t, err)

	_, err = service.UpdateMessage(item.ID, "second draft")
	require.NoError(t, err)
	var stored models.OutreachQueueItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, "second draft", stored.GeneratedMessage)

	_, err = service.Transition(item.ID, models.StatusApproved)
	require.NoError(t, err)
	_, err = service.UpdateMessage(item.ID, "third draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only edit drafts")
}

func TestDeleteKeepsOutreachHistory(t *testing.T) {
	_, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "draft")
	require.NoError(t, err)
	_, err = service.Transition(item.ID, models.StatusApproved)
	require.NoError(t, err)
	_, err = service.Transition(item.ID, models.StatusSent)
	require.NoError(t, err)

	err = service.Delete(item.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot delete")
}

func TestDeleteDraft(t *testing.T) {
	_, service, contact := newQueueFixture(t)

	item, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "draft")
	require.NoError(t, err)
	require.NoError(t, service.Delete(item.ID))

	active, err := service.ActiveItem(contact.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestListAndStats(t *testing.T) {
	db, service, contact := newQueueFixture(t)

	other := models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/second-contact",
		Name:        "Second Contact",
	}
	require.NoError(t, db.Create(&other).Error)

	first, err := service.Enqueue(contact.ID, "latam", "warm", "reconnect", "one")
	require.NoError(t, err)
	_, err = service.Enqueue(other.ID, "cascadia", "cold", "introduce", "two")
	require.NoError(t, err)
	_, err = service.Transition(first.ID, models.StatusApproved)
	require.NoError(t, err)

	items, total, err := service.List("", "", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0].ContactName)

	items, total, err = service.List(models.StatusApproved, "", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)

	items, _, err = service.List("", "cascadia", 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, other.ID, items[0].ContactID)

	stats, err := service.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusApproved])
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusDraft])
	assert.Equal(t, int64(1), stats.ByUseCase["latam"])
	assert.Equal(t, int64(1), stats.ByUseCase["cascadia"])
}
