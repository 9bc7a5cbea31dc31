package pipeline

import (
	"context"
	"sync"

	"github.com/audiolane/gainctl/domain/model"
)

// runPool processes the batch with spec.Workers goroutines. Each worker
// writes only its own index of the results slice, so enumeration order is
// preserved without any post-hoc sorting. Export collisions cannot happen:
// output paths derive from distinct input names.
func runPool(ctx context.Context, o *Orchestrator, spec RunSpec, results []model.PipelineResult) {
	type job struct {
		idx  int
		file string
	}

	jobCh := make(chan job, len(spec.Files))
	for i, f := range spec.Files {
		jobCh <- job{idx: i, file: f}
	}
	close(jobCh)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, spec.Workers)

	for j := range jobCh {
		select {
		case <-ctx.Done():
			results[j.idx] = model.PipelineResult{File: j.file, Err: ctx.Err()}
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[j.idx] = o.processFile(ctx, j.idx, j.file, spec)
		}(j)
	}

	wg.Wait()
}
