/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/cache"
	"github.com/keyreg-io/keyreg/pkg/envelope"
	"github.com/keyreg-io/keyreg/pkg/models"
	"github.com/keyreg-io/keyreg/pkg/objstore"
)

func newTestServer(t *testing.T, doc models.RegistryDocument) (*gin.Engine, *objstore.MemoryStore, *cache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := objstore.NewMemoryStore()
	codec, err := envelope.NewCodec("")
	require.NoError(t, err)

	data, err := codec.Encode(&doc)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), data))

	c := cache.New(store, codec, zap.NewNop())
	_, err = c.Load(context.Background())
	require.NoError(t, err)

	server := NewAPIServer(c, zap.NewNop())
	return SetupRouter(server, zap.NewNop()), store, c
}

func postJSON(router *gin.Engine, path string, body any, remoteAddr string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVerifyKey_Valid(t *testing.T) {
	router, _, _ := newTestServer(t, models.RegistryDocument{Keys: []models.KeyRecord{{
		ID:         "key_1",
		Secret:     "sec_topsecret",
		Name:       "ci",
		CreatedAt:  time.Now().UTC(),
		SecretType: models.SecretTypeSharedSecret,
		Metadata:   map[string]string{"team": "infra"},
	}}})

	w := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_topsecret"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "key_1", resp.KeyID)
	assert.Equal(t, "ci", resp.Name)
	assert.Equal(t, map[string]string{"team": "infra"}, resp.Metadata)
}

func TestVerifyKey_Unknown(t *testing.T) {
	router, _, _ := newTestServer(t, *models.NewRegistryDocument())

	w := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_wrong"}, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp VerifyErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, "invalid API key", resp.Error)
}

func TestVerifyKey_ExpiredLooksLikeUnknown(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	router, _, _ := newTestServer(t, models.RegistryDocument{Keys: []models.KeyRecord{{
		ID:        "key_old",
		Secret:    "sec_expired",
		Name:      "old",
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}}})

	expired := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_expired"}, "")
	unknown := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_never_existed"}, "")

	assert.Equal(t, http.StatusForbidden, expired.Code)
	assert.Equal(t, http.StatusForbidden, unknown.Code)
	assert.JSONEq(t, unknown.Body.String(), expired.Body.String(),
		"expired and unknown keys must be indistinguishable to the caller")
}

func TestVerifyKey_MalformedBody(t *testing.T) {
	router, _, _ := newTestServer(t, *models.NewRegistryDocument())

	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/verify", map[string]string{"wrong_field": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_PicksUpNewKeys(t *testing.T) {
	router, store, c := newTestServer(t, *models.NewRegistryDocument())
	assert.Equal(t, 0, c.Count())

	codec, err := envelope.NewCodec("")
	require.NoError(t, err)
	data, err := codec.Encode(&models.RegistryDocument{Keys: []models.KeyRecord{
		{ID: "key_a", Secret: "sec_a", Name: "a", CreatedAt: time.Now().UTC()},
		{ID: "key_b", Secret: "sec_b", Name: "b", CreatedAt: time.Now().UTC()},
	}})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), data))

	w := postJSON(router, "/refresh", nil, "127.0.0.1:50000")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.KeysLoaded)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, 2, c.Count())
}

func TestRefresh_RejectsRemotePeers(t *testing.T) {
	router, _, _ := newTestServer(t, *models.NewRegistryDocument())

	w := postJSON(router, "/refresh", nil, "10.0.0.5:50000")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefresh_FailureKeepsServingOldCache(t *testing.T) {
	router, store, c := newTestServer(t, models.RegistryDocument{Keys: []models.KeyRecord{{
		ID:        "key_1",
		Secret:    "sec_live",
		Name:      "live",
		CreatedAt: time.Now().UTC(),
	}}})
	require.Equal(t, 1, c.Count())

	store.FailGets = true
	w := postJSON(router, "/refresh", nil, "127.0.0.1:50000")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Verification still works against the previous snapshot
	v := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_live"}, "")
	assert.Equal(t, http.StatusOK, v.Code)
}

func TestRouterServesWithoutMetricsSetup(t *testing.T) {
	// The binary configures metrics before building the router, but the
	// handlers must not depend on that ordering: with no metrics setup at
	// all, requests go through the metrics middleware as noops instead of
	// panicking into a 500
	router, _, _ := newTestServer(t, models.RegistryDocument{Keys: []models.KeyRecord{{
		ID: "key_1", Secret: "sec_ok", Name: "svc", CreatedAt: time.Now().UTC(),
	}}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	v := postJSON(router, "/verify", VerifyRequest{APIKey: "sec_ok"}, "")
	assert.Equal(t, http.StatusOK, v.Code)
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestServer(t, models.RegistryDocument{Keys: []models.KeyRecord{{
		ID: "key_1", Secret: "sec_x", Name: "x", CreatedAt: time.Now().UTC(),
	}}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String(),
		"health body must not leak registry details")
}
