package provider

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier is the fallback when no delivery channel is configured. It
// records the notification in the service log so operators still see it.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify.log")}
}

func (n *LogNotifier) Notify(ctx context.Context, targets []string, subject, body string) error {
	n.log.Info("notification",
		zap.Strings("targets", targets),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
