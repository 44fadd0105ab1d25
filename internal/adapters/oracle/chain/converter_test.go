package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/drawloop/internal/domain"
	portmocks "github.com/bnema/drawloop/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewConverterRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(nil, portmocks.NewMockDSLConverter(t))
	require.ErrorIs(t, err, errNilPrimaryConverter)

	_, err = NewConverter(portmocks.NewMockDSLConverter(t), nil)
	require.ErrorIs(t, err, errNilFallbackConverter)
}

func TestConverterUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockDSLConverter(t)
	fallback := portmocks.NewMockDSLConverter(t)
	converter, err := NewConverter(primary, fallback)
	require.NoError(t, err)

	primary.On("ConvertToDSL", mock.Anything, "a red circle", []domain.ExampleRecord(nil)).Return("fill_circle()", nil).Once()

	program, err := converter.ConvertToDSL(context.Background(), "a red circle", nil)
	require.NoError(t, err)
	assert.Equal(t, "fill_circle()", program)
}

func TestConverterFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockDSLConverter(t)
	fallback := portmocks.NewMockDSLConverter(t)
	converter, err := NewConverter(primary, fallback)
	require.NoError(t, err)

	primary.On("ConvertToDSL", mock.Anything, "a red circle", mock.Anything).Return("", errors.New("model missing")).Once()
	fallback.On("ConvertToDSL", mock.Anything, "a red circle", mock.Anything).Return("fill_rect()", nil).Once()

	program, err := converter.ConvertToDSL(context.Background(), "a red circle", nil)
	require.NoError(t, err)
	assert.Equal(t, "fill_rect()", program)
}

func TestConverterReturnsCombinedErrorWhenBothFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockDSLConverter(t)
	fallback := portmocks.NewMockDSLConverter(t)
	converter, err := NewConverter(primary, fallback)
	require.NoError(t, err)

	primary.On("ConvertToDSL", mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrOracleFailure).Once()
	fallback.On("ConvertToDSL", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("fallback down")).Once()

	_, err = converter.ConvertToDSL(context.Background(), "a red circle", nil)
	require.ErrorIs(t, err, domain.ErrOracleFailure)
	assert.ErrorContains(t, err, "primary converter failed")
	assert.ErrorContains(t, err, "fallback down")
}

func TestConverterSkipsFallbackOnCancellation(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockDSLConverter(t)
	fallback := portmocks.NewMockDSLConverter(t)
	converter, err := NewConverter(primary, fallback)
	require.NoError(t, err)

	primary.On("ConvertToDSL", mock.Anything, mock.Anything, mock.Anything).Return("", context.DeadlineExceeded).Once()

	_, err = converter.ConvertToDSL(context.Background(), "a red circle", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	fallback.AssertNotCalled(t, "ConvertToDSL", mock.Anything, mock.Anything, mock.Anything)
}
