package usecase

import (
	"context"
	"errors"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
)

// MultiPublisher fans an event out to every sink. One failing sink does not
// stop delivery to the others.
type MultiPublisher struct {
	sinks []domrepo.SignalPublisher
}

var _ domrepo.SignalPublisher = (*MultiPublisher)(nil)

func NewMultiPublisher(sinks ...domrepo.SignalPublisher) *MultiPublisher {
	out := make([]domrepo.SignalPublisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiPublisher{sinks: out}
}

func (m *MultiPublisher) Publish(ctx context.Context, ev models.SignalEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
