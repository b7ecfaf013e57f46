// Package runner fans document jobs out to a bounded set of workers. The
// whole-document pipeline is the unit of isolation: no component below it
// holds cross-document state, so documents run independently with no
// locking.
package runner

import (
	"context"
	"sync"

	"github.com/ledgerscan/ledgerscan/internal/pipeline"
	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// DefaultWorkers bounds concurrent documents; the dominant latency is the
// external model call, so a small pool is plenty.
const DefaultWorkers = 4

// Runner executes document jobs concurrently.
type Runner struct {
	Workers int
}

// New creates a runner with the default worker count.
func New() *Runner {
	return &Runner{Workers: DefaultWorkers}
}

// Run processes every job and returns one statement per job, in job order.
// A Workers value below 1 runs sequentially.
func (r *Runner) Run(ctx context.Context, proc *pipeline.Processor, jobs []pipeline.Job) []*statement.ParsedStatement {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]*statement.ParsedStatement, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	type indexed struct {
		idx int
		job pipeline.Job
	}
	jobChan := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobChan {
				results[item.idx] = proc.Process(ctx, item.job)
			}
		}()
	}

	for i, job := range jobs {
		select {
		case jobChan <- indexed{idx: i, job: job}:
		case <-ctx.Done():
			// Remaining jobs become failed statements; in-flight ones
			// finish on their own.
			results[i] = &statement.ParsedStatement{
				ExecutionID: proc.ExecutionID,
				DocumentID:  jobs[i].DocumentID,
				Date:        jobs[i].Date,
				AccountID:   jobs[i].Config.ID,
				Status:      statement.StatusFailed,
				Diagnostics: ctx.Err().Error(),
			}
		}
	}
	close(jobChan)
	wg.Wait()

	return results
}
