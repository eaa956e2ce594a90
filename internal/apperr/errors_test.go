package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "configuration", Configuration.String())
	assert.Equal(t, "validation", Validation.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "upstream", Upstream.String())
	assert.Equal(t, "persistence", Persistence.String())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(Persistence, cause, "ingestion aborted")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "persistence")
	assert.Contains(t, err.Error(), "ingestion aborted")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(Persistence, nil, "nothing happened"))
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(Validation, "records array is required"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Validation, kind)
	assert.True(t, Is(err, Validation))
	assert.False(t, Is(err, Persistence))
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, Is(errors.New("plain"), Validation))
}

func TestNewf(t *testing.T) {
	err := Newf(NotFound, "no snapshot for connector %s/%s", "square", "orders")
	assert.Equal(t, "not_found: no snapshot for connector square/orders", err.Error())
}
