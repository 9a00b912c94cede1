package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/circuit"
)

// probeInterval is how often an open circuit lets one call through to see
// whether the oracle recovered.
const probeInterval = 30 * time.Second

// HTTPOracle calls an external policy oracle service. The request carries the
// draft and the declared policy; the response mirrors Result. Any transport
// or decode failure surfaces as CodeOracleUnavailable, which the consent
// engine downgrades to a refer decision — it never reaches a caller.
//
// A circuit breaker shields a dead oracle: after enough consecutive failures
// calls fail fast, with a periodic probe to detect recovery.
type HTTPOracle struct {
	url     string
	client  *http.Client
	timeout time.Duration
	breaker *circuit.Breaker

	mu        sync.Mutex
	lastProbe time.Time
}

func NewHTTPOracle(url string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		breaker: circuit.New("policy-oracle", circuit.WithFailureThreshold(3)),
	}
}

type evaluateRequest struct {
	DataType   string `json:"data_type"`
	Purpose    string `json:"purpose"`
	Category   string `json:"company_category"`
	PolicyText string `json:"policy_text"`
}

type evaluateResponse struct {
	Decision  string `json:"decision"`
	Rationale string `json:"reason"`
}

func (o *HTTPOracle) Evaluate(ctx context.Context, draft Draft) (Result, error) {
	if o.breaker.IsOpen() && !o.probeDue() {
		return Result{}, dErrors.New(dErrors.CodeOracleUnavailable, "policy oracle circuit open")
	}

	result, err := o.evaluate(ctx, draft)
	if err != nil {
		o.breaker.RecordFailure()
		return Result{}, err
	}
	o.breaker.RecordSuccess()
	return result, nil
}

func (o *HTTPOracle) evaluate(ctx context.Context, draft Draft) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(evaluateRequest{
		DataType:   draft.DataType.String(),
		Purpose:    draft.Purpose,
		Category:   draft.Category,
		PolicyText: draft.PolicyText,
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "encode oracle request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "build oracle request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "oracle call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, dErrors.New(dErrors.CodeOracleUnavailable,
			fmt.Sprintf("oracle returned status %d", resp.StatusCode))
	}

	var body evaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "decode oracle response")
	}

	decision := Decision(body.Decision)
	switch decision {
	case DecisionApprove, DecisionDeny, DecisionRefer:
	default:
		// Unknown verdicts defer to the citizen rather than guessing.
		decision = DecisionRefer
	}
	return Result{Decision: decision, Rationale: body.Rationale}, nil
}

// probeDue rate-limits attempts while the circuit is open.
func (o *HTTPOracle) probeDue() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if time.Since(o.lastProbe) < probeInterval {
		return false
	}
	o.lastProbe = time.Now()
	return true
}

var _ Oracle = (*HTTPOracle)(nil)
