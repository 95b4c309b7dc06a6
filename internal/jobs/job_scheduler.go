package jobs

import (
	"context"
	"log"
	"time"

	"localmart/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs periodic catalog maintenance in the background.
type JobScheduler struct {
	scheduler gocron.Scheduler
	sizeRepo  repositories.ProductSizeRepository
	jobs      map[string]gocron.Job
}

func NewJobScheduler(sizeRepo repositories.ProductSizeRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sizeRepo:  sizeRepo,
		jobs:      make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Size-row sweep - every hour. Upserts prune their own product's dead
	// rows, this catches anything left behind by interrupted writes.
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.pruneDeadSizeRows, context.Background()),
		gocron.WithName("size-row-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create size sweep job: %v", err)
	} else {
		js.jobs["size-sweep"] = sweepJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

func (js *JobScheduler) pruneDeadSizeRows(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pruned, err := js.sizeRepo.PruneDead(sweepCtx)
	if err != nil {
		log.Printf("Size sweep failed: %v", err)
		return err
	}
	if pruned > 0 {
		log.Printf("Size sweep removed %d dead rows", pruned)
	}
	return nil
}
