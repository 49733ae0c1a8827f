package reader

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/tabular-dev/tabular/pkg/logger"
	"github.com/tabular-dev/tabular/pkg/metrics"
	"github.com/tabular-dev/tabular/pkg/source"
	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/taberrors"
	"github.com/tabular-dev/tabular/pkg/tokenizer"
)

// Reader runs the parse pipeline. A single Reader admits one run at a time;
// the shared string arenas and the worker pool are not re-entrant.
type Reader struct {
	cfg     Config
	cb      Callbacks
	running atomic.Bool
}

// New builds a reader with the given options and policy hooks.
func New(cfg Config, cb Callbacks) *Reader {
	return &Reader{cfg: cfg, cb: cb}
}

// Read parses src into a table. The caller owns the returned table and must
// release it; src stays usable and is not released.
func (r *Reader) Read(ctx context.Context, src *source.Source) (*table.Table, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, taberrors.New(taberrors.ErrorTypeConcurrentRun, "a read is already in progress")
	}
	defer r.running.Store(false)

	tracer := otel.Tracer("tabular/reader")
	ctx, span := tracer.Start(ctx, "reader.Read")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.Name()),
		attribute.Int("bytes", src.DataLen()),
	)

	log := logger.WithContext(ctx)
	warnf := func(format string, args ...interface{}) {
		log.Sugar().Warnf(format, args...)
	}

	start := time.Now()
	s := newSink(r.cfg, r.cb)
	data := src.Bytes()[:src.DataLen()]
	nrows, err := tokenizer.Run(ctx, data, r.cfg.tokenizerOptions(warnf), s)
	metrics.ObserveRead(start, nrows, int64(len(data)), s.passes-1, err)
	if err != nil {
		s.release()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}

	t := s.result()
	if r.cfg.Verbose {
		log.Debug("read complete",
			zap.String("source", src.Name()),
			zap.Int("nrows", t.NRows()),
			zap.Int("ncols", t.NCols()),
			zap.Duration("elapsed", time.Since(start)))
	}
	span.SetAttributes(attribute.Int64("rows", nrows))
	return t, nil
}

// ReadFile opens path as a source and reads it.
func (r *Reader) ReadFile(ctx context.Context, path string) (*table.Table, error) {
	src, err := source.File(path)
	if err != nil {
		return nil, err
	}
	defer src.Release()
	return r.Read(ctx, src)
}

// ReadText parses an in-memory document.
func (r *Reader) ReadText(ctx context.Context, text string) (*table.Table, error) {
	src := source.Text(text)
	defer src.Release()
	return r.Read(ctx, src)
}
