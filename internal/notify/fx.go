package notify

import (
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/railzwaylabs/audittrail/internal/notify/domain"
	"github.com/railzwaylabs/audittrail/internal/notify/provider"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notify.service",
	fx.Provide(NewNotifier),
)

func NewNotifier(cfg config.Config, log *zap.Logger) domain.Notifier {
	if cfg.SMTP.Enabled {
		return provider.NewMailNotifier(cfg, log)
	}
	return provider.NewLogNotifier(log)
}
