// Package notify dispatches human-readable order notifications to the
// shop operator. Delivery is best-effort: a failed send is logged and
// never rolls back order persistence.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/craftedcrochet/storefront/internal/config"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

type EmailNotifier struct {
	cfg config.SMTPConfig
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// OrderPlaced formats and sends the operator email. Register it on the
// events hub.
func (n *EmailNotifier) OrderPlaced(ev events.OrderPlaced) {
	if n.cfg.Host == "" || n.cfg.Operator == "" {
		logger.Logger.Debug().Str("order_id", ev.OrderID).Msg("smtp not configured, skipping notification")
		return
	}

	subject := fmt.Sprintf("New order %s", ev.OrderID)
	body := formatOrderBody(ev)

	msg := "From: " + n.cfg.From + "\r\n" +
		"To: " + n.cfg.Operator + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	addr := n.cfg.Host + ":" + n.cfg.Port
	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{n.cfg.Operator}, []byte(msg)); err != nil {
		logger.Logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("failed to send order notification")
		return
	}
	logger.Logger.Info().Str("order_id", ev.OrderID).Msg("order notification sent")
}

func formatOrderBody(ev events.OrderPlaced) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order received!\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", ev.OrderID)
	fmt.Fprintf(&b, "Customer: %s <%s>\n\n", ev.CustomerName, ev.CustomerEmail)
	fmt.Fprintf(&b, "Items:\n")
	for _, it := range ev.Items {
		fmt.Fprintf(&b, "  %s x%d - Rs %.0f\n", it.Name, it.Quantity, it.Price*float64(it.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: Rs %.0f\n", ev.Total)
	fmt.Fprintf(&b, "Placed at: %s\n", ev.PlacedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}
