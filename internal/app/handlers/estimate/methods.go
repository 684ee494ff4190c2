package estimate

import (
	"context"
	"errors"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
)

const methodsKey = "bmr.methods"

var ErrRegistryMissing = errors.New("estimate: registry missing")

var methodDescriptions = map[bmr.Method]string{
	bmr.MethodMifflinStJeor:    "Mifflin-St Jeor (1990); best general-population accuracy",
	bmr.MethodHarrisBenedict:   "Harris-Benedict revised by Roza and Shizgal (1984)",
	bmr.MethodKatchMcArdle:     "Katch-McArdle from lean body mass; estimates body fat when absent",
	bmr.MethodAdaptiveEnsemble: "Static-weighted blend of Mifflin-St Jeor, Harris-Benedict and, with body fat, Katch-McArdle",
}

type ListMethodsQuery struct{}

func (ListMethodsQuery) Key() string { return methodsKey }

type ListMethodsHandler struct {
	Registry      *bmr.Registry
	DefaultMethod string
}

func (h *ListMethodsHandler) Handle(ctx context.Context, _ ListMethodsQuery) (dto.MethodCatalog, error) {
	if h.Registry == nil {
		return dto.MethodCatalog{}, ErrRegistryMissing
	}
	catalog := dto.MethodCatalog{Default: h.DefaultMethod}
	for _, m := range h.Registry.Methods() {
		info := dto.MethodInfo{
			Name:            string(m),
			RequiresBodyFat: m == bmr.MethodKatchMcArdle,
			Description:     methodDescriptions[m],
		}
		if c, ok := bmr.BaseConfidence(m); ok {
			info.BaseConfidence = &c
		}
		catalog.Items = append(catalog.Items, info)
	}
	return catalog, nil
}

var _ queries.Handler[ListMethodsQuery, dto.MethodCatalog] = (*ListMethodsHandler)(nil)
