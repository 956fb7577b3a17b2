package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// RequestAnswered describes an admin response that is mailed to the student
type RequestAnswered struct {
	ToEmail   string
	ToName    string
	RequestID int64
	Status    string
	Response  string
}

// Notifier sends request notifications to students
type Notifier interface {
	SendRequestAnswered(ctx context.Context, msg RequestAnswered) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// Enabled reports whether enough is configured to actually send mail
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

type sendFunc func(ctx context.Context, to string, message []byte) error

// SMTPNotifier implements Notifier over SMTP
type SMTPNotifier struct {
	config SMTPConfig
	logger zerolog.Logger
	send   sendFunc
}

// NewSMTPNotifier creates a new SMTPNotifier
func NewSMTPNotifier(config SMTPConfig, logger zerolog.Logger) *SMTPNotifier {
	n := &SMTPNotifier{
		config: config,
		logger: logger,
	}
	n.send = n.sendSMTP
	return n
}

// SendRequestAnswered mails the admin response for a request
func (n *SMTPNotifier) SendRequestAnswered(ctx context.Context, msg RequestAnswered) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient email is required")
	}

	// Without credentials the mail is only logged (development)
	if !n.config.Enabled() {
		n.logger.Warn().
			Str("toEmail", msg.ToEmail).
			Int64("requestID", msg.RequestID).
			Str("status", msg.Status).
			Msg("SMTP not configured - request notification not sent")
		return nil
	}

	subject := fmt.Sprintf("Your request #%d was answered - AI Info Center", msg.RequestID)
	message := n.buildMessage(msg.ToEmail, subject, requestAnsweredBody(msg))

	if err := n.send(ctx, msg.ToEmail, message); err != nil {
		n.logger.Error().Err(err).Str("toEmail", msg.ToEmail).Int64("requestID", msg.RequestID).
			Msg("Failed to send request notification")
		return err
	}

	n.logger.Info().Str("toEmail", msg.ToEmail).Int64("requestID", msg.RequestID).Msg("Request notification sent")
	return nil
}

func requestAnsweredBody(msg RequestAnswered) string {
	name := msg.ToName
	if name == "" {
		name = msg.ToEmail
	}
	response := strings.ReplaceAll(html.EscapeString(msg.Response), "\n", "<br>")

	return fmt.Sprintf(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Your request was answered</h2>
		<p>Hello %s,</p>
		<p>An administrator replied to your request <strong>#%d</strong>. Its status is now <strong>%s</strong>.</p>
		<blockquote style="border-left: 3px solid #4a86e8; padding-left: 12px;">%s</blockquote>
		<p>Best regards,<br>The AI Info Center Team</p>
	</div>
</body>
</html>
`, html.EscapeString(name), msg.RequestID, html.EscapeString(msg.Status), response)
}

// buildMessage renders the headers in a fixed order followed by the HTML body
func (n *SMTPNotifier) buildMessage(toEmail, subject, htmlBody string) []byte {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", n.config.FromName, n.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (n *SMTPNotifier) sendSMTP(ctx context.Context, toEmail string, message []byte) error {
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	serverAddress := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))

	if !n.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, n.config.FromEmail, []string{toEmail}, message); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: n.config.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", serverAddress)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(n.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
