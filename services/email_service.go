package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
)

// EmailSender sends notification emails. All sends are best-effort: callers
// log failures and move on, a broken mail transport never fails a request.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPEmailService implements EmailSender over plain SMTP
type SMTPEmailService struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

var emailServiceInstance EmailSender

// InitEmailService initializes the SMTP email service. Returns nil when the
// transport is not configured; the caller is expected to skip sending then.
func InitEmailService(cfg *config.Config) EmailSender {
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		log.Println("Email transport not configured, notifications disabled")
		emailServiceInstance = nil
		return nil
	}

	emailServiceInstance = &SMTPEmailService{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:     cfg.SMTPUser,
		fromName: cfg.FromName,
	}
	return emailServiceInstance
}

// GetEmailService returns the initialized email service instance (may be nil)
func GetEmailService() EmailSender {
	return emailServiceInstance
}

// SetEmailService sets the email service instance (primarily for testing)
func SetEmailService(service EmailSender) {
	emailServiceInstance = service
}

// Send delivers a single HTML email
func (s *SMTPEmailService) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// ClaimAlertEmail renders the notification sent to an item's poster when a
// claim is submitted against their post.
func ClaimAlertEmail(item *models.Item, claimant *models.User, message string) (subject, html string) {
	actionText := "Claiming Your Found Item"
	if item.Kind == models.KindLost {
		actionText = "Found Your Lost Item"
	}

	subject = fmt.Sprintf("CampusFound Alert: %s", actionText)
	html = fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h2 style="color: #4F46E5;">CampusFound Alert</h2>
      <p>Good news! A user has reached out regarding your post: <strong>%s</strong>.</p>
      <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <h3 style="margin-top: 0;">%s</h3>
        <p><strong>Message from %s:</strong></p>
        <p style="font-style: italic;">"%s"</p>
      </div>
      <p>You can contact them directly to arrange a meetup:</p>
      <p><strong>Name:</strong> %s<br/>
         <strong>Email:</strong> %s<br/>
         <strong>Phone:</strong> %s</p>
      <p style="font-size: 14px; color: #64748b;">
        Safety Tip: Always meet in a safe, public location like the campus center or security office.
      </p>
    </div>`,
		item.Title, actionText, claimant.Name, message,
		claimant.Name, claimant.Email, claimant.Phone)
	return subject, html
}

// ContactConfirmationEmail renders the acknowledgement sent back to a
// contact-form submitter.
func ContactConfirmationEmail(contact *models.Contact) (subject, html string) {
	subject = "Contact Form Submission - CampusFound"
	html = fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h2 style="color: #4F46E5;">Thank you for contacting CampusFound</h2>
      <p>Dear %s,</p>
      <p>We have received your message and will get back to you soon.</p>
      <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <h3 style="margin-top: 0;">Your Message:</h3>
        <p><strong>Name:</strong> %s</p>
        <p><strong>Email:</strong> %s</p>
        <p><strong>Phone:</strong> %s</p>
        <p><strong>Message:</strong> %s</p>
      </div>
      <p>Best regards,<br/>CampusFound Team</p>
    </div>`,
		contact.Name, contact.Name, contact.Email, contact.Phone, contact.Message)
	return subject, html
}
