// Package provider runs one technical-data action against a provider and turns every way it can
// go wrong into a coded error: transport, timeout, parse or empty result.
package provider

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"time"

	"vehicle-techdata-workers/internal/common/errors"
	httpclient "vehicle-techdata-workers/internal/common/http"
	"vehicle-techdata-workers/internal/common/metrics"
	"vehicle-techdata-workers/internal/techdata/envelope"
	"vehicle-techdata-workers/internal/techdata/plate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "vehicle-techdata-workers/techdata/provider"

const (
	OutcomeOK     = "ok"
	OutcomeAbsent = "absent"
)

// Transport performs one form-encoded POST. *http.Client and *cache.ResponseCache satisfy it.
type Transport interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) (string, error)
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Caller binds a transport to one provider endpoint.
type Caller struct {
	name      string
	endpoint  string
	transport Transport
	logger    Logger
	tracer    trace.Tracer
}

func NewCaller(name, endpoint string, transport Transport, log Logger) *Caller {
	return &Caller{
		name:      name,
		endpoint:  endpoint,
		transport: transport,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

func (c *Caller) Name() string {
	return c.name
}

// Call posts form for action and returns the unwrapped payload. Failures come back as
// *errors.StandardError with a PROVIDER_* code and are logged with provider, action, vrm and
// errorCode. An empty result is logged at debug level only.
func (c *Caller) Call(ctx context.Context, action string, vrm plate.VRM, form url.Values) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "provider."+action, trace.WithAttributes(
		attribute.String("provider", c.name),
		attribute.String("action", action),
	))
	defer span.End()

	start := time.Now()
	body, err := c.transport.PostForm(ctx, c.endpoint, form)
	metrics.ProviderRequestDuration.WithLabelValues(c.name, action).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, c.fail(span, action, vrm, c.transportError(action, err))
	}

	payload, err := envelope.Unwrap(body)
	switch {
	case err == nil:
	case stderrors.Is(err, envelope.ErrAbsent):
		return nil, c.fail(span, action, vrm, errors.NewProviderEmptyResultError(c.name, action))
	default:
		return nil, c.fail(span, action, vrm, errors.NewProviderParseError(c.name, action, err))
	}

	metrics.ProviderRequests.WithLabelValues(c.name, action, OutcomeOK).Inc()
	span.SetStatus(codes.Ok, "")
	return payload, nil
}

// Decode is Call followed by TechnicalData descent and a typed decode into v.
func (c *Caller) Decode(ctx context.Context, action string, vrm plate.VRM, form url.Values, v interface{}) error {
	payload, err := c.Call(ctx, action, vrm, form)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(envelope.TechnicalData(payload), v); err != nil {
		return c.report(action, vrm, errors.NewProviderParseError(c.name, action, err))
	}
	return nil
}

// Report logs and counts a failure found after a successful Call, for example a payload whose
// required fields are missing.
func (c *Caller) Report(action string, vrm plate.VRM, stdErr *errors.StandardError) error {
	return c.report(action, vrm, stdErr)
}

func (c *Caller) transportError(action string, err error) *errors.StandardError {
	if httpclient.IsTimeout(err) {
		return errors.NewProviderTimeoutError(c.name, action)
	}
	return errors.NewProviderTransportError(c.name, action, err)
}

func (c *Caller) fail(span trace.Span, action string, vrm plate.VRM, stdErr *errors.StandardError) error {
	span.SetStatus(codes.Error, string(stdErr.Code))
	return c.report(action, vrm, stdErr)
}

func (c *Caller) report(action string, vrm plate.VRM, stdErr *errors.StandardError) error {
	outcome := string(stdErr.Code)
	if stdErr.Code == errors.ErrCodeProviderEmptyResult {
		outcome = OutcomeAbsent
	}
	metrics.ProviderRequests.WithLabelValues(c.name, action, outcome).Inc()

	fields := map[string]interface{}{
		"provider":  c.name,
		"action":    action,
		"vrm":       vrm.String(),
		"errorCode": string(stdErr.Code),
	}
	if stdErr.Code == errors.ErrCodeProviderEmptyResult {
		c.logger.Debug("provider returned no data", fields)
	} else {
		fields["details"] = stdErr.Details
		c.logger.Warn("provider call failed", fields)
	}
	return stdErr
}
