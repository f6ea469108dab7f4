// Package metrics defines the metric names and tag sets emitted by the
// session core, the role gate and the payment webhook.
package metrics

import (
	"time"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	obserrors "github.com/yoohoo-guru/yoohoo-api/internal/observability/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Login methods.
const (
	MethodPassword = "password"
	MethodOAuth    = "oauth"
	MethodRegister = "register"
)

const (
	metricGateDecision   = "gate.decision"
	metricSessionVerify  = "session.verify"
	metricSessionIssued  = "session.issued"
	metricLogin          = "login"
	metricWebhookEvent   = "webhook.event"
	metricWebhookLatency = "webhook.duration"
)

// EmitGateDecision counts one authorization outcome for route.
func EmitGateDecision(sink statsd.Sink, route string, d domainauth.Decision) {
	if sink == nil {
		return
	}
	sink.Count(metricGateDecision, 1, map[string]string{
		"route":    route,
		"decision": d.String(),
	})
}

// EmitSessionVerify counts verification outcomes. A nil err is "valid";
// otherwise the failure class keeps invalid and expired tokens apart.
func EmitSessionVerify(sink statsd.Sink, err error) {
	if sink == nil {
		return
	}
	outcome := "valid"
	if err != nil {
		outcome = obserrors.Classify(err)
	}
	sink.Count(metricSessionVerify, 1, map[string]string{"outcome": outcome})
}

// EmitSessionIssued counts a minted session by role.
func EmitSessionIssued(sink statsd.Sink, role domainauth.Role) {
	if sink == nil {
		return
	}
	sink.Count(metricSessionIssued, 1, map[string]string{"role": string(role)})
}

// EmitLogin counts a login attempt by method and result.
func EmitLogin(sink statsd.Sink, method string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"method": method, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count(metricLogin, 1, tags)
}

// WebhookMetric describes one processed payment event.
type WebhookMetric struct {
	EventType string
	Status    string
	Duration  time.Duration
}

// EmitWebhook counts a webhook delivery and records its processing time.
func EmitWebhook(sink statsd.Sink, in WebhookMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"type": in.EventType, "status": in.Status}
	sink.Count(metricWebhookEvent, 1, tags)
	if in.Duration > 0 {
		sink.Timing(metricWebhookLatency, in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, dropping empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k != "" {
			out[k] = v
		}
	}
	return out
}
