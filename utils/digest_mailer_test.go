package utils

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"linkedcrm/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailRequiresSMTPConfig(t *testing.T) {
	saved := config.AppConfig.SMTPHost
	config.AppConfig.SMTPHost = ""
	t.Cleanup(func() { config.AppConfig.SMTPHost = saved })

	err := SendEmail(EmailData{
		Subject:  "Daily outreach picks",
		To:       []string{"operator@example.com"},
		Template: "daily_digest",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSendEmailUnknownTemplate(t *testing.T) {
	saved := config.AppConfig.SMTPHost
	config.AppConfig.SMTPHost = "smtp.example.com"
	t.Cleanup(func() { config.AppConfig.SMTPHost = saved })

	err := SendEmail(EmailData{
		Subject:  "Daily outreach picks",
		To:       []string{"operator@example.com"},
		Template: "no_such_template",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDailyDigestTemplateRenders(t *testing.T) {
	tmpl, err := template.New("email").Parse(emailTemplates["daily_digest"])
	require.NoError(t, err)

	data := struct {
		Subject         string
		Date            string
		Count           int
		Year            int
		Recommendations []digestRow
	}{
		Subject: "Your Daily Outreach Picks",
		Date:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).Format("Monday, January 2, 2006"),
		Count:   1,
		Year:    2026,
		Recommendations: []digestRow{{
			Name:          "Jane Doe",
			Headline:      "Staff Engineer",
			Company:       "Initech",
			PriorityScore: 55.0,
			WarmthScore:   80,
			Reasons:       []string{"They're waiting for your reply"},
		}},
	}

	var body bytes.Buffer
	require.NoError(t, tmpl.Execute(&body, data))
	html := body.String()
	assert.Contains(t, html, "Jane Doe")
	assert.Contains(t, html, "Initech")
	assert.Contains(t, html, "Warmth 80/100")
	assert.Contains(t, html, "They&#39;re waiting for your reply")
}
