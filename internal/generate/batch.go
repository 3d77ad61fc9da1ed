package generate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/config"
)

// Outcome pairs a job with its result or error.
type Outcome struct {
	Job    Job     `json:"-"`
	Cono   string  `json:"cono"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Err    error   `json:"-"`
}

// RunAll runs every job, at most workers at a time. Outcomes keep the job order. A failed
// Cono does not stop the others.
func RunAll(ctx context.Context, jobs []Job, cfg *config.Config, logger *zap.Logger, opts RunOptions, workers int) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	run := func(i int) {
		o := Outcome{Job: jobs[i], Cono: jobs[i].Cono}
		o.Result, o.Err = Run(ctx, jobs[i], cfg, logger, opts)
		if o.Err != nil {
			o.Error = o.Err.Error()
		}
		outcomes[i] = o
		if opts.OnDone != nil {
			opts.OnDone(o)
		}
	}

	if workers <= 1 {
		for i := range jobs {
			run(i)
		}
		return outcomes
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			run(idx)
		}(i)
	}
	wg.Wait()
	return outcomes
}

// Failed counts outcomes that ended in an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
