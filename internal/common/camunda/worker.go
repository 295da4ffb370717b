// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"vehicle-techdata-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every worker Handler. Handlers complete or fail the job themselves.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives one observation per handled job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type WorkerLogger interface {
	Info(msg string, fields map[string]interface{})
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   WorkerLogger
	taskType string
}

// NewWorker opens a job worker for taskType. It returns nil when the worker is disabled.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	rec JobRecorder,
	logger WorkerLogger,
) *CamundaWorker {
	if !wcfg.Enabled {
		logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(handler, rec)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

func instrument(handler JobHandler, rec JobRecorder) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handler.Handle(client, job)
		if rec != nil {
			ctx := context.Background()
			rec.RecordJobProcessed(ctx, "handled")
			rec.RecordJobDuration(ctx, time.Since(start), "handled")
		}
	}
}

// Stop closes the job worker and waits for in-flight jobs to finish.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
