package fetchrepairnodes

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/common/metrics"
	"vehicle-techdata-workers/internal/common/validation"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/plate"
	"vehicle-techdata-workers/internal/techdata/sws"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "vehicle-repair-nodes"
)

var schema = validation.MustCompile(inputSchema)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// RepairNodeFetcher is satisfied by *sws.Client.
type RepairNodeFetcher interface {
	FetchRepairNodes(ctx context.Context, vrm plate.VRM, id sws.RepairTypeID, nodeID string) ([]models.RepairCategoryNode, error)
}

type Handler struct {
	config       *Config
	fetcher      RepairNodeFetcher
	errorHandler *errors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, fetcher RepairNodeFetcher, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		fetcher:      fetcher,
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

// execute lists one level of the repair-time tree. A node without children from the provider
// completes with an empty list; every other provider failure goes to the error handler.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	vrm, err := plate.Normalize(input.Registration)
	if err != nil {
		return nil, err
	}

	id, ok := sws.ParseRepairTypeID(input.RepairTypeID)
	if !ok {
		return nil, errors.NewInvalidJobInputError("repairTypeId must not be blank")
	}

	nodeID := strings.TrimSpace(input.NodeID)
	if nodeID == "" {
		nodeID = sws.RootNodeID
	}

	nodes, err := h.fetcher.FetchRepairNodes(ctx, vrm, id, nodeID)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeProviderEmptyResult) {
			return nil, err
		}
		nodes = []models.RepairCategoryNode{}
	}

	h.logger.Info("repair nodes fetched", map[string]interface{}{
		"vrm":    vrm.String(),
		"nodeId": nodeID,
		"count":  len(nodes),
	})

	return &Output{
		RepairTypeID: id.String(),
		NodeID:       nodeID,
		Nodes:        nodes,
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
