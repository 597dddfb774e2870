// pdp/opa_test.go
package pdp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/model"
)

func newTestOPA(t *testing.T, handler http.Handler) *OPAClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOPAClient(Config{URL: server.URL, Timeout: time.Second})
}

func sampleInput() model.AuthorizationInput {
	return model.AuthorizationInput{
		User:     model.SubjectInput{ID: "user1", Roles: []string{"USER"}},
		Resource: model.ResourceInput{ID: "doc1", Type: "document"},
		Action:   "read",
	}
}

func TestCheckPermission_DecisionDocument(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/data/authz/decision", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		input, ok := body["input"].(map[string]any)
		require.True(t, ok)
		user := input["user"].(map[string]any)
		assert.Equal(t, "user1", user["id"])

		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"decision": map[string]any{"allow": true, "reason": "role permits read"},
			},
		})
	}))

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.True(t, decision.Allow)
	assert.Equal(t, "role permits read", decision.Reason)
}

func TestCheckPermission_BooleanResult(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": true})
	}))

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.True(t, decision.Allow)
	assert.Empty(t, decision.Reason)
}

func TestCheckPermission_EmptyResultDenies(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.False(t, decision.Allow)
	assert.Equal(t, "no decision returned by policy", decision.Reason)
}

func TestCheckPermission_EngineErrorStatusDenies(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rego_type_error", http.StatusInternalServerError)
	}))

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	assert.ErrorIs(t, err, wderrors.ErrPolicyEvaluation)
	assert.NotErrorIs(t, err, wderrors.ErrPolicyEngine)
	assert.False(t, decision.Allow)
	assert.Equal(t, "policy evaluation failed", decision.Reason)
}

func TestCheckPermission_MalformedResponseDenies(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":`))
	}))

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	assert.ErrorIs(t, err, wderrors.ErrPolicyEvaluation)
	assert.False(t, decision.Allow)
	assert.Equal(t, "policy evaluation failed", decision.Reason)
}

func TestCheckPermission_TimeoutDenies(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	client.httpClient.Timeout = 50 * time.Millisecond

	decision, err := client.CheckPermission(context.Background(), sampleInput())

	assert.ErrorIs(t, err, wderrors.ErrPolicyEngine)
	assert.False(t, decision.Allow)
	assert.Equal(t, "policy engine unavailable", decision.Reason)
}

func TestNormalizeDecision(t *testing.T) {
	cases := []struct {
		name   string
		result any
		allow  bool
		reason string
	}{
		{"decision object", map[string]any{"decision": map[string]any{"allow": false, "reason": "clearance too low"}}, false, "clearance too low"},
		{"decision boolean", map[string]any{"decision": true}, true, ""},
		{"bare allow map", map[string]any{"allow": true}, true, ""},
		{"bare boolean", false, false, ""},
		{"nil result", nil, false, "no decision returned by policy"},
		{"unrelated document", map[string]any{"something": 1}, false, "no decision returned by policy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := normalizeDecision(tc.result)
			assert.Equal(t, tc.allow, decision.Allow)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestUpdateAndGetPolicy(t *testing.T) {
	const module = "package authz\n\ndefault allow = false\n"
	stored := map[string]string{}

	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/policies/authz", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			body := make([]byte, r.ContentLength)
			r.Body.Read(body)
			stored["authz"] = string(body)
			w.Write([]byte("{}"))
		case http.MethodGet:
			raw, ok := stored["authz"]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"raw": raw}})
		case http.MethodDelete:
			delete(stored, "authz")
			w.Write([]byte("{}"))
		}
	}))

	ctx := context.Background()

	_, err := client.GetPolicy(ctx, "authz")
	assert.ErrorIs(t, err, wderrors.ErrPolicyNotFound)

	require.NoError(t, client.UpdatePolicy(ctx, "authz", module))

	got, err := client.GetPolicy(ctx, "authz")
	require.NoError(t, err)
	assert.Equal(t, module, got)

	require.NoError(t, client.DeletePolicy(ctx, "authz"))
	_, err = client.GetPolicy(ctx, "authz")
	assert.ErrorIs(t, err, wderrors.ErrPolicyNotFound)
}

func TestUpdatePolicy_EmptyModule(t *testing.T) {
	client := newTestOPA(t, http.NotFoundHandler())
	err := client.UpdatePolicy(context.Background(), "authz", "   ")
	assert.ErrorIs(t, err, wderrors.ErrInvalidPolicyData)
}

func TestUpdatePolicy_BadModule(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"invalid_parameter"}`, http.StatusBadRequest)
	}))
	err := client.UpdatePolicy(context.Background(), "authz", "not rego")
	assert.ErrorIs(t, err, wderrors.ErrInvalidPolicyData)
}

func TestHealthCheck(t *testing.T) {
	client := newTestOPA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	assert.True(t, client.HealthCheck(context.Background()))

	down := NewOPAClient(Config{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.False(t, down.HealthCheck(context.Background()))
}
