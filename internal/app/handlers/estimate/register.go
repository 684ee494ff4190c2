package estimate

import (
	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
	"bmrengine/internal/domain/estimates"
)

// Register wires the estimate, method catalog and history handlers onto bus.
// history may be nil, in which case history queries fail with ErrHistoryUnavailable.
func Register(bus *queries.InMemoryBus, registry *bmr.Registry, defaultMethod string, history estimates.Repository) {
	queries.RegisterHandler[EstimateQuery, dto.Estimate](bus, EstimateQuery{}.Key(), &EstimateHandler{Registry: registry})
	queries.RegisterHandler[ListMethodsQuery, dto.MethodCatalog](bus, ListMethodsQuery{}.Key(), &ListMethodsHandler{Registry: registry, DefaultMethod: defaultMethod})
	queries.RegisterHandler[HistoryQuery, dto.History](bus, HistoryQuery{}.Key(), &HistoryHandler{Repository: history})
}
