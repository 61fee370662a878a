package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusDue, GetPaymentStatus(0))
	assert.Equal(t, PaymentStatusLow, GetPaymentStatus(1))
	assert.Equal(t, PaymentStatusLow, GetPaymentStatus(2))
	assert.Equal(t, PaymentStatusGood, GetPaymentStatus(3))
	for remaining := 3; remaining < 100; remaining++ {
		assert.Equal(t, PaymentStatusGood, GetPaymentStatus(remaining))
	}
}

func TestModalityValid(t *testing.T) {
	assert.True(t, ModalityPresencial.Valid())
	assert.True(t, ModalityVirtual.Valid())
	assert.True(t, ModalityBoth.Valid())
	assert.True(t, ModalityIndividual.Valid())
	assert.False(t, Modality("hybrid").Valid())
}
