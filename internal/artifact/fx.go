package artifact

import (
	"github.com/railzwaylabs/audittrail/internal/artifact/domain"
	"github.com/railzwaylabs/audittrail/internal/artifact/local"
	"go.uber.org/fx"
)

var Module = fx.Module("artifact.service",
	fx.Provide(func(s *local.Store) domain.Store { return s }),
	fx.Provide(local.New),
)
