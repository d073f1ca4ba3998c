package country

import (
	"github.com/geodesk/atlasfx/internal/country/repository"
	"github.com/geodesk/atlasfx/internal/country/service"
	"go.uber.org/fx"
)

var Module = fx.Module("country.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
