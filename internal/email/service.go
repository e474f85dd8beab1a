// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendEmail sends a plain text email
func (s *Service) SendEmail(to []string, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg)
}

// SendHTMLEmail sends an HTML email
func (s *Service) SendHTMLEmail(to []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	// Simple multipart message
	boundary := "boundary-peerconnect"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	// Plain text part (fallback)
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n")
	fmt.Fprintf(&msg, "\r\n")

	// HTML part
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// AnswerVerifiedData holds data for the verified-answer email template
type AnswerVerifiedData struct {
	AppName    string
	UserName   string
	DoubtTitle string
	MentorName string
	DoubtURL   string
}

// AnswerReceivedData holds data for the new-answer email template
type AnswerReceivedData struct {
	AppName      string
	UserName     string
	DoubtTitle   string
	AnswererName string
	DoubtURL     string
}

// SendAnswerVerifiedEmail notifies an answer's author that a mentor approved it.
func (s *Service) SendAnswerVerifiedEmail(to, userName, doubtTitle, mentorName, doubtURL string) error {
	data := AnswerVerifiedData{
		AppName:    "PeerConnect",
		UserName:   userName,
		DoubtTitle: doubtTitle,
		MentorName: mentorName,
		DoubtURL:   doubtURL,
	}

	subject := "Your solution was verified on PeerConnect"
	html, err := renderTemplate(answerVerifiedEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render answer verified template: %w", err)
	}

	return s.SendHTMLEmail([]string{to}, subject, html)
}

// SendAnswerReceivedEmail notifies a doubt's author of a new contribution.
func (s *Service) SendAnswerReceivedEmail(to, userName, doubtTitle, answererName, doubtURL string) error {
	data := AnswerReceivedData{
		AppName:      "PeerConnect",
		UserName:     userName,
		DoubtTitle:   doubtTitle,
		AnswererName: answererName,
		DoubtURL:     doubtURL,
	}

	subject := "New contribution to your doubt on PeerConnect"
	html, err := renderTemplate(answerReceivedEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render answer received template: %w", err)
	}

	return s.SendHTMLEmail([]string{to}, subject, html)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const answerVerifiedEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Your solution was verified</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #0066cc; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
        .badge { background: #e6f4ea; padding: 12px; border-radius: 4px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Excellence Verified!</h2>

    <p>Hi {{.UserName}},</p>

    <p>Mentor {{.MentorName}} approved your solution for &ldquo;{{.DoubtTitle}}&rdquo;.</p>

    <div class="badge">
        <strong>+50 credibility</strong> has been added to your profile.
    </div>

    <p>
        <a href="{{.DoubtURL}}" class="button">View the Discussion</a>
    </p>

    <div class="footer">
        <p>You are receiving this because you contributed a solution on {{.AppName}}.</p>
    </div>
</body>
</html>`

const answerReceivedEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New contribution to your doubt</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #0066cc; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Peer Contribution</h2>

    <p>Hi {{.UserName}},</p>

    <p>{{.AnswererName}} added a micro-explanation to your inquiry &ldquo;{{.DoubtTitle}}&rdquo;.</p>

    <p>
        <a href="{{.DoubtURL}}" class="button">Read the Explanation</a>
    </p>

    <div class="footer">
        <p>You are receiving this because you posted a doubt on {{.AppName}}.</p>
    </div>
</body>
</html>`
