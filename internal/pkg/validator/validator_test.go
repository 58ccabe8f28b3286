package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("123e4567-e89b-12d3-a456-426614174000"))
	assert.True(t, IsValidUUID("123E4567-E89B-12D3-A456-426614174000"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("123e4567e89b12d3a456426614174000"))
}

func TestCoordinateValidation(t *testing.T) {
	assert.True(t, IsValidLatitude(0))
	assert.True(t, IsValidLatitude(-90))
	assert.True(t, IsValidLatitude(90))
	assert.False(t, IsValidLatitude(90.01))
	assert.False(t, IsValidLatitude(math.NaN()))
	assert.False(t, IsValidLatitude(math.Inf(1)))

	assert.True(t, IsValidLongitude(-180))
	assert.True(t, IsValidLongitude(180))
	assert.False(t, IsValidLongitude(180.5))
	assert.False(t, IsValidLongitude(math.NaN()))

	assert.True(t, IsValidAccuracy(0))
	assert.True(t, IsValidAccuracy(25.5))
	assert.False(t, IsValidAccuracy(-1))
	assert.False(t, IsValidAccuracy(math.NaN()))
	assert.False(t, IsValidAccuracy(math.Inf(1)))
}

func TestIsValidDateTime(t *testing.T) {
	_, ok := IsValidDateTime("2026-03-02T09:00:00Z")
	assert.True(t, ok)

	_, ok = IsValidDateTime("2026-03-02T09:00:00+07:00")
	assert.True(t, ok)

	_, ok = IsValidDateTime("2026-03-02")
	assert.False(t, ok)

	_, ok = IsValidDateTime("")
	assert.False(t, ok)
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "session_id", Message: "session_id is required"},
		{Field: "latitude", Message: "latitude must be a number between -90 and 90"},
	}

	assert.Equal(t, "session_id: session_id is required; latitude: latitude must be a number between -90 and 90", errs.Error())

	m := errs.ToMap()
	assert.Len(t, m, 2)
	assert.Equal(t, "session_id is required", m["session_id"])
}
