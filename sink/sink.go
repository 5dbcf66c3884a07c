// Package sink delivers encoded images to a local file or a Cloud Storage
// object.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"spheretrace/rgbimage"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoGCSClient = errors.New("destination is a GCS object, but no GCS client was configured")

const gcsScheme = "gs://"

var imagesWritten = metric.Must(global.Meter("spheretrace/sink")).NewInt64Counter(
	"spheretrace/sink/images_written",
	metric.WithDescription("Images delivered to a file or object"),
)

type Sink struct {
	gcs       *storage.Client
	overwrite bool
}

type SinkOpt func(*Sink)

// WithOverwrite lets Write replace an existing file or object.
func WithOverwrite(allow bool) SinkOpt {
	return func(s *Sink) {
		s.overwrite = allow
	}
}

// New creates a Sink.  gcs may be nil if only local destinations are used.
func New(gcs *storage.Client, opts ...SinkOpt) *Sink {
	s := &Sink{
		gcs: gcs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseGCS splits a gs://bucket/object destination.  ok is false for
// anything that doesn't start with gs://.
func ParseGCS(dest string) (bucket, object string, ok bool, err error) {
	if !strings.HasPrefix(dest, gcsScheme) {
		return "", "", false, nil
	}
	rest := strings.TrimPrefix(dest, gcsScheme)
	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", true, fmt.Errorf("malformed GCS destination %q, want gs://bucket/object", dest)
	}
	return rest[:i], rest[i+1:], true, nil
}

func (s *Sink) Write(ctx context.Context, dest string, img *rgbimage.Image, format rgbimage.Format) error {
	tracer := otel.Tracer("spheretrace/sink")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Sink.Write")
	defer span.End()

	span.SetAttributes(
		attribute.String("dest", dest),
		attribute.String("format", format.String()),
	)

	if err := s.write(ctx, dest, img, format); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	imagesWritten.Add(ctx, 1,
		attribute.String("format", format.String()),
		attribute.Bool("gcs", strings.HasPrefix(dest, gcsScheme)),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Sink) write(ctx context.Context, dest string, img *rgbimage.Image, format rgbimage.Format) error {
	bucket, object, isGCS, err := ParseGCS(dest)
	if err != nil {
		return err
	}
	if isGCS {
		return s.writeGCS(ctx, bucket, object, img, format)
	}
	return s.writeLocal(dest, img, format)
}

func (s *Sink) writeLocal(path string, img *rgbimage.Image, format rgbimage.Format) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !s.overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("while opening output file: %w", err)
	}

	if err := rgbimage.Write(img, format, f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("while writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("while closing %s: %w", path, err)
	}
	return nil
}

func (s *Sink) writeGCS(ctx context.Context, bucket, object string, img *rgbimage.Image, format rgbimage.Format) error {
	if s.gcs == nil {
		return ErrNoGCSClient
	}

	data := &bytes.Buffer{}
	if err := rgbimage.Write(img, format, data); err != nil {
		return fmt.Errorf("while encoding image: %w", err)
	}

	obj := s.gcs.Bucket(bucket).Object(object)
	if !s.overwrite {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = format.ContentType()

	// The whole image is already in memory.
	w.ChunkSize = 0

	if _, err := w.Write(data.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("while writing to object writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("while closing object writer for gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}
