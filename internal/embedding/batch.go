package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EmbedAll embeds texts with at most workers concurrent calls. The result
// keeps the order of texts. The first failure cancels the remaining work.
func EmbedAll(ctx context.Context, p Provider, texts []string, workers int) ([][]float32, error) {
	if workers <= 0 {
		workers = 1
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			if err := CheckDimension(p.Name(), vec, p.Dimension()); err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
