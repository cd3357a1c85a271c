package services

import (
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"

	"tubedigest-backend/internal/models"
)

type EmailService struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	devMode bool
}

func NewEmailService(host, port, user, pass, from string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		devMode: devMode,
	}
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 600px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #dc2626 0%, #f97316 100%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">TubeDigest</h1>
      <p style="color: rgba(255,255,255,0.85); margin: 8px 0 0; font-size: 14px;">{{.TotalVideos}} new video{{if ne .TotalVideos 1}}s{{end}} from your subscriptions</p>
    </div>
    <div style="padding: 32px;">
{{- range .Channels}}
      <h2 style="margin: 0 0 4px; font-size: 18px; color: #1e293b;">
        <a href="{{.ChannelURL}}" style="color: #1e293b; text-decoration: none;">{{.ChannelName}}</a>
      </h2>
      <p style="color: #94a3b8; font-size: 12px; margin: 0 0 16px;">{{len .Results}} new video{{if ne (len .Results) 1}}s{{end}}</p>
{{- range .Results}}
      <div style="border: 1px solid #e2e8f0; border-radius: 8px; padding: 16px; margin: 0 0 16px;">
        <a href="{{.Video.URL}}" style="color: #dc2626; text-decoration: none; font-weight: 600; font-size: 15px;">{{.Video.Title}}</a>
        <p style="color: #94a3b8; font-size: 12px; margin: 4px 0 12px;">
          {{.Video.DurationDisplay}} · {{.Video.PublishedAt.Format "Jan 2, 2006"}}
          {{- if eq .Tier "full-ai"}} · <span style="background: #dcfce7; color: #166534; padding: 2px 8px; border-radius: 9999px; font-size: 11px;">AI summary{{if .UsedTranscript}} · transcript{{end}}</span>
          {{- else}} · <span style="background: #f1f5f9; color: #475569; padding: 2px 8px; border-radius: 9999px; font-size: 11px;">basic info</span>
          {{- end}}
        </p>
        <div style="color: #64748b; font-size: 13px; line-height: 1.6; white-space: pre-wrap;">{{.Summary}}</div>
      </div>
{{- end}}
{{- end}}
      <p style="color: #94a3b8; font-size: 12px; margin: 24px 0 0;">
        Generated {{.GeneratedAt.Format "Jan 2, 2006 15:04 MST"}}. You receive this because you subscribed to these channels on TubeDigest.
      </p>
    </div>
  </div>
</body>
</html>`))

// SendDigest delivers one consolidated notification covering every channel
// with updates for this subscriber. Failure is wrapped as a DeliveryError so
// the scheduler can leave the subscriber's cursors untouched.
func (s *EmailService) SendDigest(batch models.NotificationBatch) error {
	var body strings.Builder
	if err := digestTemplate.Execute(&body, batch); err != nil {
		return &DeliveryError{Email: batch.SubscriberEmail, Err: fmt.Errorf("rendering digest: %w", err)}
	}

	subject := fmt.Sprintf("TubeDigest: %d new video(s) from %d channel(s)", batch.TotalVideos(), len(batch.Channels))

	if err := s.sendHTML(batch.SubscriberEmail, subject, body.String()); err != nil {
		return &DeliveryError{Email: batch.SubscriberEmail, Err: err}
	}
	return nil
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
