package eventlog

import (
	"github.com/railzwaylabs/audittrail/internal/eventlog/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("eventlog.service",
	fx.Provide(repository.Provide),
)
