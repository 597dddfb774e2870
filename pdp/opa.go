// pdp/opa.go
package pdp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	wderrors "github.com/smplabs/warden/errors"
	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
)

// Client evaluates authorization requests against the policy engine and
// manages the policy modules it serves.
type Client interface {
	CheckPermission(ctx context.Context, input model.AuthorizationInput) (model.Decision, error)
	UpdatePolicy(ctx context.Context, policyID, module string) error
	GetPolicy(ctx context.Context, policyID string) (string, error)
	DeletePolicy(ctx context.Context, policyID string) error
	HealthCheck(ctx context.Context) bool
}

// Config holds the policy engine connection settings.
type Config struct {
	URL        string
	PolicyPath string
	Timeout    time.Duration
}

func ConfigFromViper() Config {
	return Config{
		URL:        viper.GetString("opa.url"),
		PolicyPath: viper.GetString("opa.policyPath"),
		Timeout:    viper.GetDuration("opa.timeout"),
	}
}

// OPAClient talks to an Open Policy Agent instance over its REST API.
// Decision queries run behind a circuit breaker so a struggling engine
// degrades to fast denials instead of piling up blocked requests.
type OPAClient struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[model.Decision]
}

var _ Client = (*OPAClient)(nil)

func NewOPAClient(cfg Config) *OPAClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PolicyPath == "" {
		cfg.PolicyPath = "/v1/data/authz/decision"
	}

	settings := gobreaker.Settings{
		Name:    "opa",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Policy engine circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &OPAClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[model.Decision](settings),
	}
}

// CheckPermission queries the decision document with the given input.
// Any failure to obtain a decision, engine down, timeout, open breaker
// or malformed response, yields a denial alongside the error so callers
// always fail closed.
func (c *OPAClient) CheckPermission(ctx context.Context, input model.AuthorizationInput) (model.Decision, error) {
	decision, err := c.breaker.Execute(func() (model.Decision, error) {
		return c.query(ctx, input)
	})
	if err != nil {
		logger.Warn("Policy evaluation failed", zap.Error(err))
		if errors.Is(err, wderrors.ErrPolicyEvaluation) {
			return model.Decision{Allow: false, Reason: "policy evaluation failed"}, err
		}
		return model.Decision{
			Allow:  false,
			Reason: "policy engine unavailable",
		}, fmt.Errorf("%w: %v", wderrors.ErrPolicyEngine, err)
	}
	return decision, nil
}

func (c *OPAClient) query(ctx context.Context, input model.AuthorizationInput) (model.Decision, error) {
	payload, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return model.Decision{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+c.cfg.PolicyPath, bytes.NewReader(payload))
	if err != nil {
		return model.Decision{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Decision{}, fmt.Errorf("%w: query returned status %d: %s", wderrors.ErrPolicyEvaluation, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Result any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return model.Decision{}, fmt.Errorf("%w: malformed response: %v", wderrors.ErrPolicyEvaluation, err)
	}

	return normalizeDecision(envelope.Result), nil
}

// normalizeDecision maps the engine's result document onto a decision.
// A "decision" sub-document takes precedence, then a bare boolean
// result. Anything else denies: an empty document means the policy path
// is undefined and must not be read as permission.
func normalizeDecision(result any) model.Decision {
	switch v := result.(type) {
	case map[string]any:
		if nested, ok := v["decision"]; ok {
			return decisionFromValue(nested)
		}
		return decisionFromValue(v)
	case bool:
		return model.Decision{Allow: v}
	default:
		return model.Decision{Allow: false, Reason: "no decision returned by policy"}
	}
}

func decisionFromValue(value any) model.Decision {
	switch v := value.(type) {
	case bool:
		return model.Decision{Allow: v}
	case map[string]any:
		allow, ok := v["allow"].(bool)
		if !ok {
			return model.Decision{Allow: false, Reason: "no decision returned by policy"}
		}
		reason, _ := v["reason"].(string)
		return model.Decision{Allow: allow, Reason: reason}
	default:
		return model.Decision{Allow: false, Reason: "no decision returned by policy"}
	}
}

// UpdatePolicy uploads a Rego module under the given policy id.
func (c *OPAClient) UpdatePolicy(ctx context.Context, policyID, module string) error {
	if strings.TrimSpace(module) == "" {
		return fmt.Errorf("%w: policy module is empty", wderrors.ErrInvalidPolicyData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.policyURL(policyID), strings.NewReader(module))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrPolicyEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: upload returned status %d: %s", wderrors.ErrInvalidPolicyData, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	logger.Info("Policy updated", zap.String("policyID", policyID))
	return nil
}

// GetPolicy fetches the raw Rego source of a stored policy module.
func (c *OPAClient) GetPolicy(ctx context.Context, policyID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.policyURL(policyID), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", wderrors.ErrPolicyEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", wderrors.ErrPolicyNotFound, policyID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch returned status %d", wderrors.ErrPolicyEngine, resp.StatusCode)
	}

	var envelope struct {
		Result struct {
			Raw string `json:"raw"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to decode policy document: %w", err)
	}
	return envelope.Result.Raw, nil
}

// DeletePolicy removes a stored policy module.
func (c *OPAClient) DeletePolicy(ctx context.Context, policyID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.policyURL(policyID), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrPolicyEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", wderrors.ErrPolicyNotFound, policyID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: delete returned status %d", wderrors.ErrPolicyEngine, resp.StatusCode)
	}
	return nil
}

// HealthCheck reports whether the engine answers its health endpoint.
func (c *OPAClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *OPAClient) policyURL(policyID string) string {
	return c.cfg.URL + "/v1/policies/" + policyID
}
