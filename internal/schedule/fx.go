package schedule

import (
	"github.com/railzwaylabs/audittrail/internal/schedule/repository"
	"github.com/railzwaylabs/audittrail/internal/schedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("schedule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
