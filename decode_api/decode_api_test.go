package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/glassechidna/go-emf/emf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

func newHandler() (*handler, *[]emf.MSI) {
	emitted := &[]emf.MSI{}
	return &handler{
		maxBody: 1 << 20,
		emit:    func(msi emf.MSI) { *emitted = append(*emitted, msi) },
	}, emitted
}

func post(t *testing.T, h http.Handler, body []byte) (*httptest.ResponseRecorder, decodeOutput) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/decode", bytes.NewReader(body)))

	out := decodeOutput{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestDecodeEndpoint(t *testing.T) {
	h, emitted := newHandler()
	body, err := os.ReadFile("../controltower/testdata/update-landing-zone.json")
	require.NoError(t, err)

	w, out := post(t, h.router(), body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "UpdateLandingZone", out.EventName)
	assert.Equal(t, "updateLandingZoneStatus", out.Variant)
	assert.Equal(t, "SUCCEEDED", out.State)
	assert.Nil(t, out.Error)
	assert.NotEmpty(t, out.Event)

	require.Len(t, *emitted, 1)
	assert.Equal(t, emf.Dimension("200"), (*emitted)[0]["StatusCode"])
}

func TestDecodeEndpointErrors(t *testing.T) {
	h, _ := newHandler()
	body, err := os.ReadFile("../controltower/testdata/enable-guardrail.json")
	require.NoError(t, err)

	unknown, err := sjson.SetRawBytes(body, "serviceEventDetails", []byte(`{"futureOperationStatus":{}}`))
	require.NoError(t, err)
	w, out := post(t, h.router(), unknown)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, out.Error)
	assert.Equal(t, "UnknownVariant", out.Error.Kind)
	assert.Equal(t, []string{"futureOperationStatus"}, out.Error.Keys)
	assert.True(t, out.Error.Ignorable)

	missing, err := sjson.DeleteBytes(body, "awsRegion")
	require.NoError(t, err)
	w, out = post(t, h.router(), missing)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MissingField", out.Error.Kind)
	assert.Equal(t, "awsRegion", out.Error.Field)
	assert.False(t, out.Error.Ignorable)

	h.maxBody = 10
	w, out = post(t, h.router(), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "TooLarge", out.Error.Kind)
}

func TestVariantsEndpoint(t *testing.T) {
	h, _ := newHandler()
	w := httptest.NewRecorder()
	h.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/variants", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	keys := []string{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &keys))
	assert.Len(t, keys, 13)
	assert.Equal(t, "createManagedAccountStatus", keys[0])
}
