package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceAcceptsStringsAndNumbers(t *testing.T) {
	var body struct {
		A Price `json:"a"`
		B Price `json:"b"`
		C Price `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"50","b":12.5,"c":null}`), &body))
	assert.Equal(t, Price(50), body.A)
	assert.Equal(t, Price(12.5), body.B)
	assert.Equal(t, Price(0), body.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"fifty"}`), &body))
}

func TestPriceMinorUnitsRounds(t *testing.T) {
	assert.Equal(t, int64(5000), Price(50).MinorUnits())
	assert.Equal(t, int64(1999), Price(19.99).MinorUnits())
	assert.Equal(t, int64(30), Price(0.3).MinorUnits())
}

func TestCallerOwns(t *testing.T) {
	buyer := Caller{Email: "b@x.com", Role: RoleBuyer}
	assert.True(t, buyer.Owns("B@x.com"))
	assert.False(t, buyer.Owns("other@x.com"))
	assert.False(t, Caller{}.Owns(""))

	admin := Caller{Email: "a@x.com", Role: RoleAdmin}
	assert.True(t, admin.Owns("anyone@x.com"))
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	inner := assert.AnError
	err := error(&UpstreamError{Op: "create intent", Err: inner})
	var up *UpstreamError
	assert.ErrorAs(t, err, &up)
	assert.ErrorIs(t, err, inner)
}
