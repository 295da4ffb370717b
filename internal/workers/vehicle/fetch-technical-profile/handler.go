package fetchtechnicalprofile

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/common/metrics"
	"vehicle-techdata-workers/internal/common/validation"
	"vehicle-techdata-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "vehicle-technical-profile"
)

var schema = validation.MustCompile(inputSchema)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ProfileEngine is satisfied by *aggregator.Engine.
type ProfileEngine interface {
	GetTechnicalProfile(ctx context.Context, registration string) (*models.TechnicalProfile, error)
}

type Handler struct {
	config       *Config
	engine       ProfileEngine
	errorHandler *errors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, engine ProfileEngine, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		engine:       engine,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func parseInput(variables string) (*Input, error) {
	result := schema.ValidateJSON(variables)
	if !result.Valid {
		return nil, errors.NewInvalidJobInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidJobInputError(err.Error())
	}
	return &input, nil
}

// execute never fails because of a provider: missing facets are simply absent from the profile.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	profile, err := h.engine.GetTechnicalProfile(ctx, input.Registration)
	if err != nil {
		if errors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, errors.NewProfileAggregationFailedError(err)
	}

	h.logger.Info("technical profile ready", map[string]interface{}{
		"vrm":             profile.VRM,
		"vehicleFound":    profile.VehicleFound(),
		"lubricantSource": string(profile.LubricantSource),
	})

	return &Output{
		TechnicalProfile: profile,
		VehicleFound:     profile.VehicleFound(),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.NormalizeError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
