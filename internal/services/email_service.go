package services

import (
	"fmt"
	"log"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/models"
)

// Mailer is the fire-and-forget notification contract. Implementations
// may fail; callers tolerate it.
type Mailer interface {
	Send(to, subject, text, html string) error
}

// EmailService sends mail over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService creates an EmailService. When SMTP is not configured
// the service logs instead of sending, matching local development use.
func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{from: cfg.EmailFrom}
	if cfg.SMTPHost != "" {
		s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return s
}

// Send delivers a message with a plain-text body and an optional HTML
// alternative.
func (s *EmailService) Send(to, subject, text, html string) error {
	if s.dialer == nil {
		log.Printf("[Email] SMTP not configured, skipping mail to %s (%s)", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// OrderConfirmationEmail renders the order confirmation HTML body.
func OrderConfirmationEmail(userName string, order *models.Order) string {
	isBelt := order.IsBelt()

	var custom string
	if isBelt {
		custom = fmt.Sprintf(`
          <li><strong>Belt Color:</strong> %s</li>
          <li><strong>Belt Style:</strong> %s</li>`,
			order.BeltCustomization.Color, order.BeltCustomization.Style)
	}

	var shipping string
	if isBelt {
		shipping = fmt.Sprintf(`
        <p style="color: #5C5C5C;"><strong>Shipping Address:</strong><br/>
        %s, %s,<br/>
        %s - %s</p>
        <p style="color: #1B9AAA; font-weight: bold;">Expected Delivery: 2-3 Business Days</p>`,
			order.ShippingAddress.Street, order.ShippingAddress.City,
			order.ShippingAddress.State, order.ShippingAddress.Zip)
	} else {
		shipping = `
        <p style="color: #22C55E; font-weight: bold;">Your digital QR code is now available in your dashboard for instant download!</p>`
	}

	return fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
      <div style="text-align: center; margin-bottom: 20px;">
        <h1 style="color: #1B9AAA;">Congratulations!</h1>
        <p style="font-size: 16px; color: #555;">Your order has been confirmed.</p>
      </div>

      <div style="background-color: #F5EFE6; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
        <h3 style="color: #2F2F2F; margin-top: 0;">Hi %s,</h3>
        <p style="color: #5C5C5C;">Thank you for shopping with <strong>FindMyPet</strong>. We are excited to get your smart pet gear to you!</p>

        <p style="color: #5C5C5C;">Here are your order details:</p>
        <ul style="color: #5C5C5C;">
          <li><strong>Item:</strong> %s</li>
          <li><strong>Amount Paid:</strong> &#8377;%d</li>
          <li><strong>Date:</strong> %s</li>%s
        </ul>
        %s
      </div>

      <div style="text-align: center; margin-top: 30px; font-size: 12px; color: #999;">
        <p>If you have any questions, simply reply to this email.</p>
        <p>&copy; %d FindMyPet. All rights reserved.</p>
      </div>
    </div>`,
		userName,
		orderItemLabel(order.Type),
		order.Amount,
		time.Now().Format("02 Jan 2006"),
		custom,
		shipping,
		time.Now().Year(),
	)
}

// OrderConfirmationText renders the plain-text alternative.
func OrderConfirmationText(userName string, order *models.Order) string {
	return fmt.Sprintf("Hi %s, your order for %s is confirmed. Amount: %d.",
		userName, orderItemLabel(order.Type), order.Amount)
}

func orderItemLabel(orderType string) string {
	switch orderType {
	case models.OrderTypeQROnly:
		return "QR ONLY"
	case models.OrderTypeQRBelt:
		return "QR BELT"
	default:
		return orderType
	}
}
