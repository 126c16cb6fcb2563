package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAcknowledger struct {
	mock.Mock
}

func (m *mockAcknowledger) Ack(tag uint64, multiple bool) error {
	return m.Called(tag, multiple).Error(0)
}

func (m *mockAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	return m.Called(tag, multiple, requeue).Error(0)
}

func (m *mockAcknowledger) Reject(tag uint64, requeue bool) error {
	return m.Called(tag, requeue).Error(0)
}

func delivery(t *testing.T, ack amqp.Acknowledger, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: body}
}

func TestHandleDelivery_AcksOnSuccess(t *testing.T) {
	event := CatalogEvent{Type: EventProductAdded, ProductID: 3, Name: "Jacket", Actor: "admin", OccurredAt: time.Now().UTC()}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	ack := new(mockAcknowledger)
	ack.On("Ack", uint64(7), false).Return(nil).Once()

	var got CatalogEvent
	handleDelivery(delivery(t, ack, body), func(e CatalogEvent) error {
		got = e
		return nil
	})

	assert.Equal(t, event.Type, got.Type)
	assert.Equal(t, event.ProductID, got.ProductID)
	assert.Equal(t, event.Actor, got.Actor)
	ack.AssertExpectations(t)
}

func TestHandleDelivery_RequeuesOnHandlerError(t *testing.T) {
	body, err := json.Marshal(CatalogEvent{Type: EventProductDeleted, ProductID: 1})
	require.NoError(t, err)

	ack := new(mockAcknowledger)
	ack.On("Nack", uint64(7), false, true).Return(nil).Once()

	handleDelivery(delivery(t, ack, body), func(CatalogEvent) error {
		return errors.New("boom")
	})
	ack.AssertExpectations(t)
}

func TestHandleDelivery_DropsMalformed(t *testing.T) {
	ack := new(mockAcknowledger)
	ack.On("Nack", uint64(7), false, false).Return(nil).Once()

	called := false
	handleDelivery(delivery(t, ack, []byte("{not json")), func(CatalogEvent) error {
		called = true
		return nil
	})

	assert.False(t, called)
	ack.AssertExpectations(t)
}
