package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/profit-tracker/internal/jobs"
)

type queue interface {
	jobs.Publisher
	jobs.Consumer
}

// batchResult splits finished jobs by outcome.
type batchResult struct {
	Completed []*jobs.ReportJob
	Failed    []*jobs.ReportJob
}

// runBatch publishes one report job per user and polls store until every
// job reaches a terminal status or ctx is done.
func runBatch(ctx context.Context, q queue, store jobs.JobStore, handler jobs.JobHandler, users []string, month, destination string, poll time.Duration) (*batchResult, error) {
	if err := q.Start(ctx, handler); err != nil {
		return nil, fmt.Errorf("starting workers: %w", err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		job := &jobs.ReportJob{UserID: u, Month: month, Destination: destination}
		if err := q.PublishReport(ctx, job); err != nil {
			return nil, fmt.Errorf("publishing report for %s: %w", u, err)
		}
		ids = append(ids, job.JobID)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		res := &batchResult{}
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				return nil, err
			}
			switch job.Status {
			case jobs.JobStatusCompleted:
				res.Completed = append(res.Completed, job)
			case jobs.JobStatusFailed:
				res.Failed = append(res.Failed, job)
			}
		}
		if len(res.Completed)+len(res.Failed) == len(ids) {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
