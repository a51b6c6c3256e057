package usecase

import (
	"context"
	"errors"
	"testing"

	"ChronoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestMultiPublisher_FansOutPastFailures(t *testing.T) {
	cause := errors.New("ws closed")
	bad := &fakePublisher{err: cause}
	good := &fakePublisher{}
	m := NewMultiPublisher(bad, nil, good)

	err := m.Publish(context.Background(), models.SignalEvent{ID: "1"})
	assert.ErrorIs(t, err, cause)
	assert.Len(t, good.published(), 1)
	assert.Len(t, bad.published(), 1)

	assert.ErrorIs(t, m.Close(), cause)
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

func TestMultiPublisher_Empty(t *testing.T) {
	m := NewMultiPublisher()
	assert.NoError(t, m.Publish(context.Background(), models.SignalEvent{}))
	assert.NoError(t, m.Close())
}
