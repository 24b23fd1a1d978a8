package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront/pkg/order"
)

// Subject of the order confirmation mail.
const Subject = "Your order is placed"

var placedTemplate = template.Must(template.New("order_placed").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Customer.FullName}},</p>
<p>Thank you for your order <strong>{{.ID}}</strong>. It has been placed and will be shipped to:</p>
<p>{{.Customer.Address}}<br>{{.Customer.PostalCode}} {{.Customer.City}}, {{.Customer.State}}<br>{{.Customer.Country}}</p>
<table>
<tr><th>Product</th><th>Quantity</th><th>Unit price</th><th>Total</th></tr>
{{range .Lines}}<tr><td>{{.Label}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice.StringFixed 2}}</td><td>{{.Total.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Order total: <strong>{{.Total.StringFixed 2}}</strong></p>
<p>Payment method: {{.Customer.PaymentMethod}}</p>
</body>
</html>
`))

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends the order confirmation mail to the customer. Consecutive
// SMTP failures open a circuit breaker so a dead relay is not hammered.
type Mailer struct {
	cfg     MailerConfig
	send    SendFunc
	breaker *gobreaker.CircuitBreaker[struct{}]
	now     func() time.Time
}

// NewMailer creates a Mailer. A nil send uses smtp.SendMail.
func NewMailer(cfg MailerConfig, send SendFunc) *Mailer {
	if send == nil {
		send = smtp.SendMail
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Mailer{cfg: cfg, send: send, breaker: breaker, now: time.Now}
}

func (m *Mailer) NotifyOrderPlaced(ctx context.Context, o order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.render(o)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	_, err = m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(addr, auth, m.cfg.From, []string{o.Customer.Email}, msg)
	})
	if err != nil {
		return fmt.Errorf("send order mail %s: %w", o.ID, err)
	}
	return nil
}

func (m *Mailer) render(o order.Order) ([]byte, error) {
	var body bytes.Buffer
	if err := placedTemplate.Execute(&body, o); err != nil {
		return nil, fmt.Errorf("render order mail: %w", err)
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", o.Customer.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
