package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLogging(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	logs := captureLogs(t, func() {
		env.do(t, "POST", "/jwt", "", map[string]string{"email": sellerEmail, "password": "badpass!"})
	})
	e, ok := findLog(logs, "auth.login.fail")
	require.True(t, ok, "auth.login.fail not logged")
	assert.Equal(t, "security", e.Kind)
	assert.Equal(t, sellerEmail, e.Fields["email"])

	logs = captureLogs(t, func() {
		env.do(t, "POST", "/jwt", "", map[string]string{"email": sellerEmail, "password": "Passw0rd!"})
	})
	e, ok = findLog(logs, "auth.login.success")
	require.True(t, ok, "auth.login.success not logged")
	assert.Equal(t, "audit", e.Kind)
	assert.NotContains(t, e.Fields, "password")
}

func TestRoleDenialIsLogged(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	logs := captureLogs(t, func() {
		resp := env.do(t, "GET", "/admin/payments/export", buyerEmail, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
	e, ok := findLog(logs, "access.denied.role")
	require.True(t, ok, "access.denied.role not logged")
	assert.Equal(t, "warn", e.Level)
	assert.Equal(t, buyerEmail, e.Email)
}

func TestMutationsAreAudited(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.product(t, "P1", 50)

	logs := captureLogs(t, func() {
		resp := env.do(t, "POST", "/bookingProduct", buyerEmail, `{"productId":"P1","productPrice":1}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})
	e, ok := findLog(logs, "booking.create")
	require.True(t, ok, "booking.create not audited")
	assert.Equal(t, "audit", e.Kind)
	assert.Equal(t, buyerEmail, e.Email)
	assert.EqualValues(t, 50, e.Fields["product_price"])
	assert.EqualValues(t, 1, e.Fields["client_price"])
}
