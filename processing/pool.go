package processing

import (
	"context"

	"threadfinder/config"
	"threadfinder/faces"
	"threadfinder/gallery"

	"golang.org/x/sync/semaphore"
)

// Pool runs at most N annotations at a time against a shared, read-only gallery
type Pool struct {
	Gallery *gallery.Gallery
	Engine  faces.Engine
	slots   *semaphore.Weighted
}

func NewPool(g *gallery.Gallery, engine faces.Engine, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		Gallery: g,
		Engine:  engine,
		slots:   semaphore.NewWeighted(int64(workers)),
	}
}

// Annotate waits for a free slot (or ctx) and then runs the pipeline to completion
func (p *Pool) Annotate(ctx context.Context, imagePath string, cfg config.RequestConfig) (Result, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return Result{Annotations: []Annotation{}}, err
	}
	defer p.slots.Release(1)
	return Annotate(context.WithoutCancel(ctx), imagePath, p.Gallery, p.Engine, cfg), nil
}
