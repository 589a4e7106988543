package services

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func newFXForTest(rates map[string]float64) *FXService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewFXService(NewStaticRateProvider(rates), "XOF", nil, logger)
}

func TestFXToPivotIdentity(t *testing.T) {
	fx := newFXForTest(nil)

	amount, rate, err := fx.ToPivot(context.Background(), "XOF", 1234)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), amount)
	assert.Equal(t, 1.0, rate)
}

func TestFXToPivotConversion(t *testing.T) {
	fx := newFXForTest(map[string]float64{"EUR:XOF": 655.957})

	amount, rate, err := fx.ToPivot(context.Background(), "EUR", 100)
	require.NoError(t, err)
	assert.Equal(t, 655.957, rate)
	// 100 * 655.957 rounds to the nearest minor unit.
	assert.Equal(t, int64(65596), amount)
}

func TestFXToPivotUnsupported(t *testing.T) {
	fx := newFXForTest(map[string]float64{"EUR:XOF": 2.0})

	_, _, err := fx.ToPivot(context.Background(), "JPY", 100)
	assert.ErrorIs(t, err, models.ErrCurrencyUnsupported)
}
