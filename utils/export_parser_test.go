package utils

import (
	"testing"
	"time"

	"linkedcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorURL = "https://www.linkedin.com/in/me"

func TestNormalizeLinkedInURL(t *testing.T) {
	assert.Equal(t, "", NormalizeLinkedInURL(""))
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe",
		NormalizeLinkedInURL("https://www.linkedin.com/in/Jane-Doe/"))
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe",
		NormalizeLinkedInURL("https://www.linkedin.com/in/jane-doe?miniProfileUrn=urn%3Ali"))
}

func TestParseConnectionDate(t *testing.T) {
	parsed := ParseConnectionDate("18 Jun 2025")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), *parsed)

	assert.Nil(t, ParseConnectionDate(""))
	assert.Nil(t, ParseConnectionDate("June 18, 2025"))
}

func TestParseMessageDate(t *testing.T) {
	parsed := ParseMessageDate("2025-06-19 02:27:32 UTC")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 6, 19, 2, 27, 32, 0, time.UTC), *parsed)

	assert.Nil(t, ParseMessageDate(""))
	assert.Nil(t, ParseMessageDate("not a date"))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", StripHTML(""))
	assert.Equal(t, "Hi there", StripHTML("<p>Hi <b>there</b></p>"))
	assert.Equal(t, "one two", StripHTML("one\n\n  two"))
	assert.Equal(t, "plain text", StripHTML("plain text"))
}

func TestIsSponsoredMessage(t *testing.T) {
	assert.True(t, IsSponsoredMessage("LinkedIn Member", "anything"))
	assert.True(t, IsSponsoredMessage("Some Recruiter", "Hi %FIRSTNAME%, exciting opportunity"))
	assert.True(t, IsSponsoredMessage("Brand Team", `<div class="spinmail-quill-editor">offer</div>`))
	assert.False(t, IsSponsoredMessage("Jane Doe", "Hey, long time no talk"))
	assert.False(t, IsSponsoredMessage("Jane Doe", ""))
}

func newParserFixture(t *testing.T) (*ExportParser, *WarmthScorer) {
	t.Helper()
	db := newTestDB(t)
	scorer := NewWarmthScorer(db, testLogger())
	return NewExportParser(db, scorer, operatorURL, testLogger()), scorer
}

func TestParseConnections(t *testing.T) {
	parser, _ := newParserFixture(t)

	// LinkedIn prepends a free-text notes block before the real header
	csvContent := "\uFEFFNotes:\n" +
		"\"When exporting your connection data, you may notice that some of the email addresses are missing.\"\n" +
		"\n" +
		"First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
		"Jane,Doe,https://www.linkedin.com/in/jane-doe/,jane@example.com,Acme,Engineer,18 Jun 2025\n" +
		"Bob,Smith,https://www.linkedin.com/in/bob-smith,,Globex,Designer,02 Mar 2024\n" +
		",,,,,,\n"

	result, err := parser.ParseConnections([]byte(csvContent), "Connections.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordsProcessed)
	assert.Equal(t, 2, result.ContactsCreated)
	assert.Equal(t, 0, result.ContactsUpdated)
	assert.Empty(t, result.Errors)

	var contact models.Contact
	require.NoError(t, parser.DB.Where("linkedin_url = ?", "https://www.linkedin.com/in/jane-doe").
		First(&contact).Error)
	assert.Equal(t, "Jane Doe", contact.Name)
	assert.Equal(t, "Acme", contact.Company)
	assert.Equal(t, "jane@example.com", contact.Email)
	require.NotNil(t, contact.ConnectionDate)
	assert.Equal(t, 2025, contact.ConnectionDate.Year())

	var uploads int64
	require.NoError(t, parser.DB.Model(&models.DataUpload{}).
		Where("file_type = ?", models.UploadConnections).Count(&uploads).Error)
	assert.Equal(t, int64(1), uploads)
}

func TestParseConnectionsUpsert(t *testing.T) {
	parser, _ := newParserFixture(t)

	first := "First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
		"Jane,Doe,https://www.linkedin.com/in/jane-doe,,Acme,Engineer,18 Jun 2025\n"
	_, err := parser.ParseConnections([]byte(first), "Connections.csv")
	require.NoError(t, err)

	// Re-import with fresher profile data for the same URL
	second := "First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
		"Jane,Doe,https://www.linkedin.com/in/jane-doe,jane@example.com,Initech,Staff Engineer,18 Jun 2025\n"
	result, err := parser.ParseConnections([]byte(second), "Connections.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ContactsCreated)
	assert.Equal(t, 1, result.ContactsUpdated)

	var count int64
	require.NoError(t, parser.DB.Model(&models.Contact{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var contact models.Contact
	require.NoError(t, parser.DB.Where("linkedin_url = ?", "https://www.linkedin.com/in/jane-doe").
		First(&contact).Error)
	assert.Equal(t, "Initech", contact.Company)
	assert.Equal(t, "jane@example.com", contact.Email)
}

func TestParseMessages(t *testing.T) {
	parser, _ := newParserFixture(t)

	csvContent := "CONVERSATION ID,FROM,SENDER PROFILE URL,TO,RECIPIENT PROFILE URLS,DATE,SUBJECT,CONTENT\n" +
		"conv-1,Me,https://www.linkedin.com/in/me,Jane Doe,https://www.linkedin.com/in/jane-doe,2025-06-01 10:00:00 UTC,," +
		"\"Hey Jane, I was thinking about the conversation we had about platform migrations and wanted to follow up properly.\"\n" +
		"conv-1,Jane Doe,https://www.linkedin.com/in/jane-doe,Me,https://www.linkedin.com/in/me,2025-06-02 09:30:00 UTC,," +
		"\"<p>Great to hear from you! I have a bunch of notes from our rollout that I think you would find genuinely useful.</p>\"\n" +
		"conv-2,LinkedIn Member,https://www.linkedin.com/in/spam,Me,https://www.linkedin.com/in/me,2025-06-03 08:00:00 UTC,,\"Sponsored pitch\"\n"

	result, err := parser.ParseMessages([]byte(csvContent), "messages.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.MessagesCreated)
	assert.Equal(t, 1, result.SkippedSponsored)
	assert.Equal(t, 1, result.ContactsCreated, "unknown counterpart is created on the fly")
	assert.Empty(t, result.Errors)

	var contact models.Contact
	require.NoError(t, parser.DB.Where("linkedin_url = ?", "https://www.linkedin.com/in/jane-doe").
		First(&contact).Error)
	assert.Equal(t, "Jane Doe", contact.Name)
	assert.Equal(t, 2, contact.TotalMessages)
	assert.Equal(t, models.DirectionReceived, contact.LastMessageDirection)
	require.NotNil(t, contact.WarmthScore, "warmth is recomputed after import")
	assert.Greater(t, *contact.WarmthScore, 0)

	var messages []models.Message
	require.NoError(t, parser.DB.Where("contact_id = ?", contact.ID).Order("date asc").
		Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, models.DirectionSent, messages[0].Direction)
	assert.Equal(t, models.DirectionReceived, messages[1].Direction)
	assert.NotContains(t, messages[1].Content, "<p>", "markup is stripped on import")
	require.NotNil(t, messages[1].IsSubstantive)
	assert.True(t, *messages[1].IsSubstantive)
}

func TestParseMessagesUnattributableRow(t *testing.T) {
	parser, _ := newParserFixture(t)

	csvContent := "CONVERSATION ID,FROM,SENDER PROFILE URL,TO,RECIPIENT PROFILE URLS,DATE,SUBJECT,CONTENT\n" +
		"conv-9,Alice,https://www.linkedin.com/in/alice,Bob,https://www.linkedin.com/in/bob,2025-06-01 10:00:00 UTC,,\"A thread between two other people.\"\n"

	result, err := parser.ParseMessages([]byte(csvContent), "messages.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, result.MessagesCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cannot determine direction")
}

func TestParseMessagesRequiresOperatorURL(t *testing.T) {
	db := newTestDB(t)
	parser := NewExportParser(db, nil, "", testLogger())

	_, err := parser.ParseMessages([]byte("FROM,CONTENT\n"), "messages.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
