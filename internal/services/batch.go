package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

// BatchResult holds one Result per request, in request order
type BatchResult struct {
	Results   []domain.Result `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// RunBatch runs independent analyses concurrently. A failing request only
// fails its own slot.
func (s *AnalysisService) RunBatch(ctx context.Context, req api.BatchRequest) domain.Result {
	return s.observe(ctx, "batch", req, func(ctx context.Context) (interface{}, error) {
		results := make([]domain.Result, len(req.Requests))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.batchConcurrency)
		for i, r := range req.Requests {
			g.Go(func() error {
				results[i] = s.Run(gctx, r)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		out := &BatchResult{Results: results}
		for _, r := range results {
			if r.OK() {
				out.Succeeded++
			} else {
				out.Failed++
			}
		}
		s.logger.InfoContext(ctx, "batch completed",
			slog.Int("requests", len(results)),
			slog.Int("succeeded", out.Succeeded),
			slog.Int("failed", out.Failed))
		return out, nil
	})
}
