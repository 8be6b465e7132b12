package provider

import (
	"context"

	"github.com/railzwaylabs/audittrail/internal/config"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

type MailNotifier struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

func NewMailNotifier(cfg config.Config, log *zap.Logger) *MailNotifier {
	return &MailNotifier{
		dialer: gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		from:   cfg.SMTP.From,
		log:    log.Named("notify.mail"),
	}
}

func (n *MailNotifier) Notify(ctx context.Context, targets []string, subject, body string) error {
	if len(targets) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", targets...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return err
	}
	n.log.Info("notification sent", zap.Int("targets", len(targets)), zap.String("subject", subject))
	return nil
}
