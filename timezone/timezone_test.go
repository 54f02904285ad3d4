package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Get(t *testing.T) {
	c := NewCache()

	first, err := c.Get("UTC")
	require.NoError(t, err)
	second, err := c.Get("UTC")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "UTC", first.String())
}

func TestLoad_EmptyIsLocal(t *testing.T) {
	location, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, time.Local, location)
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("Mars/Olympus_Mons")

	assert.Error(t, err)
}
