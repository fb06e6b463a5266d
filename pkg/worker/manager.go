package worker

import (
	"context"
	"fmt"
	"sync"

	"diynow/pkg/domain"
	"diynow/pkg/logger"
)

// Job is one independent unit of crawling, typically one site.
type Job struct {
	Name string
	Do   func(ctx context.Context) ([]domain.ProjectRecord, error)
}

// Result is the outcome of one Job. Results keep the order of their jobs.
type Result struct {
	Name    string
	Records []domain.ProjectRecord
	Err     error
}

// Manager runs jobs on a bounded pool of workers
type Manager struct {
	workerCount int
	log         logger.Logger
}

// NewManager creates a new manager. workerCount < 1 runs jobs one at a time.
func NewManager(workerCount int, log logger.Logger) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager{
		workerCount: workerCount,
		log:         log,
	}
}

// Process distributes jobs to workers and returns one result per job, in job order.
// A failing job never stops the others.
func (m *Manager) Process(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	// Job channel carries indices so each worker writes only its own slot
	jobChan := make(chan int, len(jobs))
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	workers := m.workerCount
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobChan {
				results[i] = m.run(ctx, workerID, jobs[i])
			}
		}(w)
	}
	wg.Wait()

	var records, failed int
	for _, r := range results {
		records += len(r.Records)
		if r.Err != nil {
			failed++
		}
	}
	m.log.Debug("jobs completed",
		logger.Int("jobs", len(jobs)),
		logger.Int("failed", failed),
		logger.Int("records", records))

	return results
}

func (m *Manager) run(ctx context.Context, workerID int, job Job) (res Result) {
	res.Name = job.Name
	defer func() {
		if p := recover(); p != nil {
			res.Records = nil
			res.Err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
		if res.Err != nil {
			m.log.Warn("job failed",
				logger.Int("worker", workerID),
				logger.String("job", job.Name),
				logger.Error(res.Err))
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Records, res.Err = job.Do(ctx)
	return res
}

// Merge concatenates the records of all results in order.
func Merge(results []Result) []domain.ProjectRecord {
	out := []domain.ProjectRecord{}
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}
