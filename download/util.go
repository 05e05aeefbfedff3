package download

import (
	"context"
	"io"
)

// ContextReader couples an io.Reader to a context so that long reads stop
// when the context finishes. An active read is orphaned in its own goroutine
// if the context finishes first.
type ContextReader struct {
	ctx context.Context
	r   io.Reader
}

func NewContextReader(ctx context.Context, r io.Reader) *ContextReader {
	return &ContextReader{
		ctx: ctx,
		r:   r,
	}
}

type readResult struct {
	n   int
	err error
}

// Read implements io.Reader#Read(), respecting the ContextReader's embedded
// context.
func (cr *ContextReader) Read(p []byte) (int, error) {
	resultChan := make(chan readResult, 1)

	go func() {
		n, err := cr.r.Read(p)
		resultChan <- readResult{n, err}
	}()

	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	case result := <-resultChan:
		return result.n, result.err
	}
}
