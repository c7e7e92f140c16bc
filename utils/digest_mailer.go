package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"linkedcrm/config"

	"gopkg.in/gomail.v2"
)

type EmailData struct {
	Subject   string
	To        []string
	Template  string
	Data      interface{}
	Year      int
	FromName  string
	FromEmail string
}

// Embedded email templates
var emailTemplates = map[string]string{
	"daily_digest": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .contact { margin: 16px 0; padding: 12px; border: 1px solid #eee; border-radius: 6px; }
        .contact h3 { margin: 0 0 4px 0; color: #2c3e50; }
        .meta { font-size: 13px; color: #7f8c8d; }
        .score { font-weight: bold; color: #3498db; }
        .reason { font-size: 14px; margin: 2px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your Daily Outreach Picks</h2>
        <p class="meta">{{.Date}} &middot; {{.Count}} contacts worth reaching out to today</p>
    </div>

    {{range .Recommendations}}
    <div class="contact">
        <h3>{{.Name}}</h3>
        <p class="meta">{{if .Headline}}{{.Headline}}{{end}}{{if .Company}} &middot; {{.Company}}{{end}}</p>
        <p class="meta">Priority <span class="score">{{.PriorityScore}}</span>{{if .WarmthScore}} &middot; Warmth {{.WarmthScore}}/100{{end}}</p>
        {{range .Reasons}}<p class="reason">&bull; {{.}}</p>{{end}}
    </div>
    {{end}}

    {{if not .Recommendations}}
    <p>No recommendations today. Import fresh export data or widen your segments.</p>
    {{end}}

    <div class="footer">
        <p>&copy; {{.Year}} LinkedCRM. Generated automatically from your relationship data.</p>
    </div>
</body>
</html>`,
}

func SendEmail(data EmailData) error {
	if config.AppConfig.SMTPHost == "" {
		return fmt.Errorf("SMTP host is not configured")
	}
	if data.FromEmail == "" {
		data.FromEmail = config.AppConfig.FromEmail
	}
	if data.FromName == "" {
		data.FromName = "LinkedCRM"
	}

	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return fmt.Errorf("template '%s' not found", data.Template)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", data.FromName, data.FromEmail))
	m.SetHeader("To", data.To...)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}

	return nil
}

// digestRow flattens a recommendation for the email template.
type digestRow struct {
	Name          string
	Headline      string
	Company       string
	PriorityScore float64
	WarmthScore   int
	Reasons       []string
}

// SendDailyDigest emails the day's top outreach recommendations.
func SendDailyDigest(recipient string, recs *RecommendationSet) error {
	rows := make([]digestRow, 0, len(recs.Recommendations))
	for _, rec := range recs.Recommendations {
		rows = append(rows, digestRow{
			Name:          rec.ContactName,
			Headline:      rec.Headline,
			Company:       rec.Company,
			PriorityScore: rec.PriorityScore,
			WarmthScore:   rec.WarmthScore,
			Reasons:       rec.Reasons,
		})
	}

	now := time.Now()
	data := EmailData{
		Subject:  fmt.Sprintf("Daily outreach picks - %s", now.Format("Jan 2")),
		To:       []string{recipient},
		Template: "daily_digest",
		Data: struct {
			Subject         string
			Date            string
			Count           int
			Year            int
			Recommendations []digestRow
		}{
			Subject:         "Your Daily Outreach Picks",
			Date:            now.Format("Monday, January 2, 2006"),
			Count:           len(rows),
			Year:            now.Year(),
			Recommendations: rows,
		},
	}

	return SendEmail(data)
}
