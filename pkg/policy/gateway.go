package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Gateway mediates authorization decisions between the core and the
// remote policy evaluator. Denial is a modeled outcome: Evaluate never
// returns an error for it.
type Gateway interface {
	Evaluate(ctx context.Context, principal Principal, action Action, resource Resource, extra map[string]any) Decision
	CanCreate(ctx context.Context, principal Principal, resource Resource, parentID *uuid.UUID) Decision
	CanRead(ctx context.Context, principal Principal, resource Resource) Decision
	CanUpdate(ctx context.Context, principal Principal, resource Resource) Decision
	CanDelete(ctx context.Context, principal Principal, resource Resource) Decision
	CanManageLineage(ctx context.Context, principal Principal, resource Resource) Decision
}

// evaluationRequest is the wire form sent to the policy endpoint.
type evaluationRequest struct {
	Principal Principal      `json:"principal"`
	Action    Action         `json:"action"`
	Resource  Resource       `json:"resource"`
	Context   map[string]any `json:"context"`
}

type evaluationResponse struct {
	Allowed  bool           `json:"allowed"`
	PolicyID string         `json:"policy_id"`
	Reason   string         `json:"reason"`
	Context  map[string]any `json:"context"`
}

// HTTPGateway evaluates decisions against a remote HTTP policy service.
//
// Failure handling is deliberately split in two (see DESIGN.md):
//   - transport failure (unreachable, timeout) falls open to the local
//     role fallback and tags the decision "fallback_authorization";
//   - protocol failure (non-2xx status, undecodable body) denies and
//     tags the decision "error_deny".
//
// An explicit remote deny is final and never falls back.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
	log      *logrus.Logger
}

func NewHTTPGateway(endpoint string, timeout time.Duration, log *logrus.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

func (g *HTTPGateway) Evaluate(ctx context.Context, principal Principal, action Action, resource Resource, extra map[string]any) Decision {
	reqCtx := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		reqCtx[k] = v
	}

	body, err := json.Marshal(evaluationRequest{
		Principal: principal,
		Action:    action,
		Resource:  resource,
		Context:   reqCtx,
	})
	if err != nil {
		return g.errorDeny(principal, action, fmt.Sprintf("encode request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return g.errorDeny(principal, action, fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"action":    action,
			"principal": principal.ID,
		}).WithError(err).Warn("policy: remote evaluator unreachable, using local fallback")
		return FallbackAuthorize(principal, action, resource)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.errorDeny(principal, action, fmt.Sprintf("policy service returned status %d", resp.StatusCode))
	}

	var decoded evaluationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return g.errorDeny(principal, action, fmt.Sprintf("decode response: %v", err))
	}

	return Decision{
		Allowed:  decoded.Allowed,
		PolicyID: decoded.PolicyID,
		Reason:   decoded.Reason,
		Context:  decoded.Context,
	}
}

func (g *HTTPGateway) errorDeny(principal Principal, action Action, reason string) Decision {
	g.log.WithFields(logrus.Fields{
		"action":    action,
		"principal": principal.ID,
	}).Warnf("policy: evaluation error, denying: %s", reason)
	return Decision{Allowed: false, PolicyID: PolicyIDErrorDeny, Reason: reason}
}

func (g *HTTPGateway) CanRead(ctx context.Context, principal Principal, resource Resource) Decision {
	return g.Evaluate(ctx, principal, ActionRead, resource, nil)
}

func (g *HTTPGateway) CanUpdate(ctx context.Context, principal Principal, resource Resource) Decision {
	return g.Evaluate(ctx, principal, ActionUpdate, resource, nil)
}

func (g *HTTPGateway) CanDelete(ctx context.Context, principal Principal, resource Resource) Decision {
	return g.Evaluate(ctx, principal, ActionDelete, resource, nil)
}

func (g *HTTPGateway) CanManageLineage(ctx context.Context, principal Principal, resource Resource) Decision {
	return g.Evaluate(ctx, principal, ActionManageLineage, resource, nil)
}

// CanCreate evaluates a create request. Parent linkage rules live with
// the work-item service, which knows the hierarchy; the gateway only
// carries the parent hint to the evaluator.
func (g *HTTPGateway) CanCreate(ctx context.Context, principal Principal, resource Resource, parentID *uuid.UUID) Decision {
	extra := map[string]any{}
	if parentID != nil {
		extra["parent_id"] = parentID.String()
	}
	return g.Evaluate(ctx, principal, ActionCreate, resource, extra)
}
