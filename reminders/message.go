package reminders

import (
	"fmt"
	"html/template"
	"strings"

	"studytraka/types"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is a fully rendered reminder, ready for every channel.
type Message struct {
	Subject string
	Text    string
	HTML    string

	// Push is the JSON payload handed to the push channel for encryption
	Push []byte
}

// PushPayload is what the service worker receives. The tag lets the browser
// collapse duplicate notifications for the same event.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

var emailTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family:sans-serif;max-width:480px;margin:0 auto;padding:24px;">
  <div style="background:#6366f1;border-radius:12px;padding:20px;color:white;margin-bottom:20px;">
    <p style="margin:0;font-size:13px;opacity:0.85;">Starting in {{.Label}}</p>
    <h2 style="margin:8px 0 0;font-size:22px;">{{.Title}}</h2>
  </div>
  <div style="background:#f9fafb;border-radius:12px;padding:16px;font-size:14px;color:#374151;">
    <p style="margin:0 0 8px;">&#128197; <strong>{{.Date}}</strong></p>
    <p style="margin:0 0 8px;">&#128336; <strong>{{.Time}}</strong></p>
    {{- if .Course}}
    <p style="margin:0 0 8px;">&#128218; <strong>{{.Course}}</strong>{{if .CourseTitle}} &mdash; {{.CourseTitle}}{{end}}</p>
    {{- end}}
    {{- if .Location}}
    <p style="margin:0;">&#128205; <strong>{{.Location}}</strong></p>
    {{- end}}
  </div>
  <p style="font-size:11px;color:#9ca3af;margin-top:20px;text-align:center;">
    You're receiving this because you enabled email reminders.
    <a href="{{.ManageURL}}" style="color:#6366f1;">Manage reminders</a>
  </p>
</div>`))

type emailData struct {
	Label       string
	Title       string
	Date        string
	Time        string
	Course      string
	CourseTitle string
	Location    string
	ManageURL   string
}

// leadLabel humanizes a lead time for email copy ("2 hours", "45 minutes").
func leadLabel(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		hours := minutes / 60

		if hours == 1 {
			return "1 hour"
		}

		return fmt.Sprintf("%d hours", hours)
	}

	if minutes == 1 {
		return "1 minute"
	}

	return fmt.Sprintf("%d minutes", minutes)
}

// pushLabel is the compact form used in push bodies ("2h", "30m").
func pushLabel(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}

	return fmt.Sprintf("%dm", minutes)
}

// RenderMessage builds the subject, plain text, HTML and push payload for one
// due event.
func RenderMessage(ev types.ScheduleEvent, minutesBefore int, appURL string) (Message, error) {
	label := leadLabel(minutesBefore)

	data := emailData{
		Label:     label,
		Title:     ev.Title,
		Date:      ev.StartTime.Format("Monday, January 2"),
		Time:      ev.StartTime.Format("3:04 PM"),
		ManageURL: appURL + "/dashboard/schedule",
	}

	if ev.CourseCode != nil {
		data.Course = *ev.CourseCode
	}

	if ev.CourseTitle != nil {
		data.CourseTitle = *ev.CourseTitle
	}

	if ev.Location != nil {
		data.Location = *ev.Location
	}

	var html strings.Builder

	if err := emailTemplate.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("error rendering reminder email: %w", err)
	}

	textLines := []string{}

	if data.Course != "" {
		textLines = append(textLines, fmt.Sprintf("Your event %q (%s) starts at %s.", ev.Title, data.Course, data.Time))
	} else {
		textLines = append(textLines, fmt.Sprintf("Your event %q starts at %s.", ev.Title, data.Time))
	}

	if data.Location != "" {
		textLines = append(textLines, "Location: "+data.Location)
	}

	pushBody := "Starting in " + pushLabel(minutesBefore)

	if data.Location != "" {
		pushBody += " · " + data.Location
	}

	push, err := json.Marshal(PushPayload{
		Title: "⏰ " + ev.Title,
		Body:  pushBody,
		URL:   "/dashboard/schedule",
		Tag:   "event-" + ev.ID,
	})

	if err != nil {
		return Message{}, fmt.Errorf("error marshalling push payload: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("⏰ Reminder: %s in %s", ev.Title, label),
		Text:    strings.Join(textLines, "\n"),
		HTML:    html.String(),
		Push:    push,
	}, nil
}
