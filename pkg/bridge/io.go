package bridge

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/vireodata/vireo/pkg/compression"
	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/metrics"
)

// File IO runs on the heavy pool. Readers and writers arrive plain; stream
// compression is layered here so the engine codecs only ever see
// uncompressed bytes.

func (b *Bridge) load(ctx context.Context, op string, read func() (*engine.DataFrame, error)) (*handle.Handle, error) {
	var err error
	defer func(start time.Time) { metrics.ObserveCall(op, start, err) }(time.Now())

	res, err := b.heavy.Submit(ctx, func() (any, error) {
		return read()
	})
	if err != nil {
		b.log.Debug("load failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	return handle.NewDataFrame(res.(*engine.DataFrame)), nil
}

func (b *Bridge) dump(ctx context.Context, op string, h *handle.Handle, write func(*engine.DataFrame) error) error {
	var err error
	defer func(start time.Time) { metrics.ObserveCall(op, start, err) }(time.Now())

	_, err = b.heavy.Submit(ctx, func() (any, error) {
		snap, err := h.Snapshot()
		if err != nil {
			return nil, err
		}
		defer snap.Release()
		return nil, write(snap)
	})
	if err != nil {
		b.log.Debug("dump failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

// DFFromCSV reads a CSV document, decompressed per algo, into a new
// dataframe handle.
func (b *Bridge) DFFromCSV(ctx context.Context, r io.Reader, algo compression.Algorithm) (*handle.Handle, error) {
	return b.load(ctx, "df_from_csv", func() (*engine.DataFrame, error) {
		rc, err := algo.WrapReader(r)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return engine.ReadCSV(rc)
	})
}

// DFDumpCSV writes the dataframe as CSV, compressed per the choice.
func (b *Bridge) DFDumpCSV(ctx context.Context, h *handle.Handle, w io.Writer, choice compression.Choice, includeHeader bool) error {
	return b.dump(ctx, "df_dump_csv", h, func(df *engine.DataFrame) error {
		wc, err := choice.WrapWriter(w)
		if err != nil {
			return err
		}
		if err := engine.WriteCSV(df, wc, includeHeader); err != nil {
			wc.Close()
			return err
		}
		return wc.Close()
	})
}

// DFFromParquet reads a Parquet file into a new dataframe handle.
func (b *Bridge) DFFromParquet(ctx context.Context, r io.Reader) (*handle.Handle, error) {
	return b.load(ctx, "df_from_parquet", func() (*engine.DataFrame, error) {
		return engine.ReadParquet(ctx, r)
	})
}

// DFDumpParquet writes the dataframe as Parquet with validated column
// compression.
func (b *Bridge) DFDumpParquet(ctx context.Context, h *handle.Handle, w io.Writer, choice compression.Choice) error {
	comp, err := choice.ToParquet()
	if err != nil {
		metrics.ObserveCall("df_dump_parquet", time.Now(), err)
		return err
	}
	return b.dump(ctx, "df_dump_parquet", h, func(df *engine.DataFrame) error {
		return engine.WriteParquet(df, w, comp)
	})
}

// DFFromIPC reads an Arrow IPC file into a new dataframe handle.
func (b *Bridge) DFFromIPC(ctx context.Context, r io.Reader) (*handle.Handle, error) {
	return b.load(ctx, "df_from_ipc", func() (*engine.DataFrame, error) {
		return engine.ReadIPCFile(r)
	})
}

// DFDumpIPC writes the dataframe in the Arrow IPC file format.
func (b *Bridge) DFDumpIPC(ctx context.Context, h *handle.Handle, w io.Writer) error {
	return b.dump(ctx, "df_dump_ipc", h, func(df *engine.DataFrame) error {
		return engine.WriteIPCFile(df, w)
	})
}

// DFFromIPCStream reads an Arrow IPC stream into a new dataframe handle.
func (b *Bridge) DFFromIPCStream(ctx context.Context, r io.Reader) (*handle.Handle, error) {
	return b.load(ctx, "df_from_ipc_stream", func() (*engine.DataFrame, error) {
		return engine.ReadIPCStream(r)
	})
}

// DFDumpIPCStream writes the dataframe in the Arrow IPC streaming format.
func (b *Bridge) DFDumpIPCStream(ctx context.Context, h *handle.Handle, w io.Writer) error {
	return b.dump(ctx, "df_dump_ipc_stream", h, func(df *engine.DataFrame) error {
		return engine.WriteIPCStream(df, w)
	})
}

// DFFromNDJSON reads newline-delimited JSON into a new dataframe handle.
func (b *Bridge) DFFromNDJSON(ctx context.Context, r io.Reader, algo compression.Algorithm) (*handle.Handle, error) {
	return b.load(ctx, "df_from_ndjson", func() (*engine.DataFrame, error) {
		rc, err := algo.WrapReader(r)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return engine.ReadNDJSON(rc)
	})
}

// DFDumpNDJSON writes the dataframe as newline-delimited JSON, compressed
// per the choice.
func (b *Bridge) DFDumpNDJSON(ctx context.Context, h *handle.Handle, w io.Writer, choice compression.Choice) error {
	return b.dump(ctx, "df_dump_ndjson", h, func(df *engine.DataFrame) error {
		wc, err := choice.WrapWriter(w)
		if err != nil {
			return err
		}
		if err := engine.WriteNDJSON(df, wc); err != nil {
			wc.Close()
			return err
		}
		return wc.Close()
	})
}
