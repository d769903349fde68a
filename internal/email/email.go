package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"jobboard-portal/config"
	"jobboard-portal/internal/application"

	"go.uber.org/zap"
)

type EmailService struct {
	config *config.Config
	logger *zap.Logger
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailData struct {
	To       []string
	Subject  string
	Template string
	Data     interface{}
}

// ApplicationConfirmationData fills the confirmation template.
type ApplicationConfirmationData struct {
	Name         string
	JobTitle     string
	Company      string
	Location     string
	ResumeName   string
	PortfolioURL string
}

func NewEmailService(cfg *config.Config, logger *zap.Logger) *EmailService {
	var auth smtp.Auth
	if cfg.Email.SMTPUser != "" && cfg.Email.SMTPPassword != "" {
		auth = smtp.PlainAuth("", cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.SMTPHost)
	}

	return &EmailService{
		config: cfg,
		logger: logger,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// ApplicationSubmitted sends the applicant a confirmation. It implements
// application.Notifier.
func (e *EmailService) ApplicationSubmitted(ctx context.Context, req application.Request) error {
	return e.SendApplicationConfirmation(req)
}

// SendApplicationConfirmation mails the applicant a summary of what was sent.
func (e *EmailService) SendApplicationConfirmation(req application.Request) error {
	data := ApplicationConfirmationData{
		Name:         req.Draft.FullName,
		JobTitle:     req.Job.Title,
		Company:      req.Job.Company,
		Location:     req.Job.Location,
		PortfolioURL: req.Draft.PortfolioURL,
	}
	if req.Draft.Resume != nil {
		data.ResumeName = req.Draft.Resume.Name
	}

	return e.sendEmail(EmailData{
		To:       []string{req.Draft.Email},
		Subject:  fmt.Sprintf("Application received: %s", req.Job.Label()),
		Template: "application_confirmation",
		Data:     data,
	})
}

func (e *EmailService) sendEmail(emailData EmailData) error {
	// Without SMTP configured the message is only logged.
	if !e.config.Email.Enabled {
		e.logger.Info("Email would be sent",
			zap.Strings("to", emailData.To),
			zap.String("subject", emailData.Subject),
			zap.String("template", emailData.Template))
		return nil
	}

	body, err := e.renderTemplate(emailData.Template, emailData.Data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	message := e.buildMessage(emailData.To, emailData.Subject, body)

	addr := fmt.Sprintf("%s:%d", e.config.Email.SMTPHost, e.config.Email.SMTPPort)
	if err := e.send(addr, e.auth, e.config.Email.From, emailData.To, []byte(message)); err != nil {
		e.logger.Error("Failed to send email",
			zap.Error(err),
			zap.Strings("to", emailData.To),
			zap.String("subject", emailData.Subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info("Email sent successfully",
		zap.Strings("to", emailData.To),
		zap.String("subject", emailData.Subject))

	return nil
}

var templates = map[string]string{
	"application_confirmation": `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Application received</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1 style="color: #2c5aa0;">Application sent!</h1>
        <p>Hi {{.Name}},</p>
        <p>Your application for <strong>{{.JobTitle}}</strong> at <strong>{{.Company}}</strong> has been submitted.</p>
        <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p><strong>Location:</strong> {{.Location}}</p>
            {{if .ResumeName}}<p><strong>Resume:</strong> {{.ResumeName}}</p>{{end}}
            {{if .PortfolioURL}}<p><strong>Portfolio:</strong> <a href="{{.PortfolioURL}}">{{.PortfolioURL}}</a></p>{{end}}
        </div>
        <p>The hiring team will get back to you directly.</p>
    </div>
</body>
</html>`,
}

func (e *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	templateStr, ok := templates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown email template: %s", templateName)
	}

	tmpl, err := template.New(templateName).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// buildMessage builds the email message with headers
func (e *EmailService) buildMessage(to []string, subject, body string) string {
	from := e.config.Email.From
	if e.config.Email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.config.Email.FromName, e.config.Email.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
