package usecase

import (
	"context"

	"pahm/internal/modules/capability/dto"
	capabilityin "pahm/internal/modules/capability/port/in"
	"pahm/internal/modules/capability/service"
)

type Interactor struct {
	svc *service.CapabilityService
}

func NewInteractor(svc *service.CapabilityService) capabilityin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) AcquireWake(ctx context.Context, reason string) (capabilityin.WakeLease, error) {
	lease, err := i.svc.AcquireWake(ctx, reason)
	if err != nil {
		return nil, err
	}
	return lease, nil
}

func (i *Interactor) OpenCues(ctx context.Context) (capabilityin.CueChannel, error) {
	ch, err := i.svc.OpenCues(ctx)
	if err != nil {
		return nil, err
	}
	return ch, nil
}
