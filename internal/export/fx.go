package export

import (
	"github.com/railzwaylabs/audittrail/internal/export/repository"
	"github.com/railzwaylabs/audittrail/internal/export/service"
	"go.uber.org/fx"
)

var Module = fx.Module("export.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewRunner),
	fx.Provide(service.New),
)
