package in

import (
	"context"

	"pahm/internal/modules/capability/dto"
	capabilityin "pahm/internal/modules/capability/port/in"
)

type CLIHandler struct {
	usecase capabilityin.Usecase
}

func NewCLIHandler(usecase capabilityin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}
