package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRef(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		ref, err := BookingRef()
		require.NoError(t, err)
		require.True(t, IsBookingRef(ref), ref)
		assert.False(t, seen[ref], "duplicate %s", ref)
		seen[ref] = true
	}
}

func TestIsBookingRef(t *testing.T) {
	assert.True(t, IsBookingRef("CUSS-7KQ2MXHA"))
	assert.False(t, IsBookingRef("CUSS-7KQ2MXH"))
	assert.False(t, IsBookingRef("CUSS-7KQ2MXH0"))
	assert.False(t, IsBookingRef("bd-7KQ2MXHA"))
	assert.False(t, IsBookingRef(""))
}
