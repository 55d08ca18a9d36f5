package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	assert.Equal(t, "Invalid port value", errFactory.New(errors.ErrInvalidPort).Error())
	assert.Equal(t, "custom", errFactory.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "Invalid port value: 70000", errFactory.WithData(errors.ErrInvalidPort, 70000).Error())
	assert.Equal(t, "unknown_code", errors.GetErrorMessage("unknown_code"))
}

func TestWithDataCopies(t *testing.T) {
	base := errors.New().New(errors.ErrInvalidPort)
	withData := base.WithData(70000)

	assert.Nil(t, base.Data())
	assert.Equal(t, 70000, withData.Data())
	assert.Equal(t, errors.ErrInvalidPort, withData.Code())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := errors.New().Wrap(errors.ErrOperationFailed, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, errors.ErrOperationFailed, err.Code())
	assert.Equal(t, "Operation failed: boom", err.Error())
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.New(errors.ErrInvalidPort)
	outer := errFactory.Wrap(errors.ErrInvalidConfig, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrInvalidConfig))
	assert.True(t, errors.HasCode(outer, errors.ErrInvalidPort))
	assert.False(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(fmt.Errorf("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}
