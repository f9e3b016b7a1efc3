package pipeline

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"
)

type (
	// EachFunc is called for each event of the input channel
	EachFunc[T any] func(val T) error
	// GenerateFunc is used in Generate to produce values for the output channel.
	// A false ok drops the value without stopping the stream.
	GenerateFunc[T any] func() (val T, ok bool, err error)
	// WorkerFunc consumes an item of the input channel
	// and publishes the result to the output channel
	WorkerFunc[In, Out any] func(ctx context.Context, item In, outc chan<- Out) error
)

// Span is a half-open range [Start, End) of positions in a slice
type Span struct {
	Start, End int
}

// Len returns the number of positions covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Generate converts output of a GenerateFunc to a channel
// the only way to close the output channel is to return an error from the GenerateFunc
// io.EOF is the conventional way to signal a normal end of stream
func Generate[T any](ctx context.Context, fn GenerateFunc[T]) (<-chan T, <-chan error) {
	outc := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer func() {
			close(outc)
			close(errc)
		}()
		for {
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			default:
			}
			res, ok, err := fn()
			switch {
			case err != nil:
				errc <- err
				return
			case !ok:
				continue
			}
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case outc <- res:
			}
		}
	}()

	return outc, errc
}

// Sink is a sinker which runs an EachFunc on each event
// it is the final stage of the pipeline as it does not produce any channel
func Sink[T any](ctx context.Context, ch <-chan T, fn EachFunc[T]) error {
	for r := range ch {
		select {
		case <-ctx.Done():
			return errors.New("sink canceled")
		default:
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WorkerPool fans out the input channel to N workers which all publish on the output channel.
// The first worker error stops the pool: the remaining workers return at their next item
// and the error is published on the error channel.
func WorkerPool[In, Out any](ctx context.Context, concurrency int, inc <-chan In, worker WorkerFunc[In, Out]) (<-chan Out, <-chan error) {
	outc := make(chan Out)
	errc := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for item := range inc {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := worker(gctx, item, outc); err != nil {
					return err
				}
			}
			return nil
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			errc <- err
		}
		close(outc)
		close(errc)
	}()

	return outc, errc
}

// MergeErrors is a transformer which merges all input error channels into one output channel
func MergeErrors(ctx context.Context, errs ...<-chan error) <-chan error {
	outc := make(chan error, len(errs))
	var g errgroup.Group
	for _, errc := range errs {
		g.Go(func() error {
			for e := range errc {
				select {
				case outc <- e:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(outc)
	}()

	return outc
}

// Chunks cuts n positions into at most parts contiguous spans of near equal length
func Chunks(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	spans := make([]Span, 0, parts)
	size, rest := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rest {
			end++
		}
		spans = append(spans, Span{Start: start, End: end})
		start = end
	}
	return spans
}

// Map applies fn to every item of in with concurrency workers and returns the results
// in input order. It fails fast: the first error returned by fn aborts the whole batch.
func Map[In, Out any](ctx context.Context, concurrency int, in []In, fn func(In) (Out, error)) ([]Out, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([]Out, len(in))
	if len(in) == 0 {
		return out, nil
	}

	mctx, cancel := context.WithCancel(ctx)
	defer cancel()

	spans := Chunks(len(in), concurrency*4)
	next := 0
	spanc, errc1 := Generate(mctx, func() (Span, bool, error) {
		if next >= len(spans) {
			return Span{}, false, io.EOF
		}
		s := spans[next]
		next++
		return s, true, nil
	})

	donec, errc2 := WorkerPool(mctx, concurrency, spanc, func(ctx context.Context, s Span, outc chan<- Span) error {
		for i := s.Start; i < s.End; i++ {
			v, err := fn(in[i])
			if err != nil {
				return err
			}
			out[i] = v
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case outc <- s:
		}
		return nil
	})

	done := 0
	sinkErr := Sink(mctx, donec, func(s Span) error {
		done += s.Len()
		return nil
	})
	// every worker has returned once donec is closed; release the generator
	cancel()

	var firstErr error
	for err := range MergeErrors(context.Background(), errc1, errc2) {
		switch {
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		case firstErr == nil:
			firstErr = err
		}
	}

	switch {
	case firstErr != nil:
		return nil, firstErr
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case sinkErr != nil:
		return nil, sinkErr
	case done != len(in):
		return nil, errors.New("map finished with unprocessed items")
	}
	return out, nil
}
