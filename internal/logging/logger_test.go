package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAndGet(t *testing.T) {
	require.NoError(t, Initialize("debug", "console"))

	l := Get(CategoryPicklist)
	require.NotNil(t, l)

	// Same category returns the same logger instance.
	assert.Same(t, l, Get(CategoryPicklist))

	// Distinct categories get distinct named loggers.
	assert.NotSame(t, l, Get(CategoryStore))
}

func TestInitialize_BadLevelFallsBack(t *testing.T) {
	// An unknown level must not fail startup.
	require.NoError(t, Initialize("chatty", "json"))
	require.NotNil(t, Get(CategoryBoot))
}
