package framestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"raycaster/framebuffer"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const gcsKeyPrefix = "frames/"

// GCSStore keeps frames as objects in a GCS bucket.
type GCSStore struct {
	gcs    *storage.Client
	bucket string
}

func NewGCSStore(gcs *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		gcs:    gcs,
		bucket: bucket,
	}
}

func (s *GCSStore) objectName(key string) string {
	return path.Join(gcsKeyPrefix, key)
}

func (s *GCSStore) Put(ctx context.Context, key string, f *framebuffer.Frame) error {
	tracer := otel.Tracer("raycaster/framestore")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCSStore.Put")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	data, err := encode(f)
	if err != nil {
		err := fmt.Errorf("while encoding frame: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	w := s.gcs.Bucket(s.bucket).Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	// Frames are small enough to send in one request.
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		w.Close()
		err := fmt.Errorf("while writing frame to object writer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := w.Close(); err != nil {
		err := fmt.Errorf("while closing object writer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) (*framebuffer.Frame, bool, error) {
	tracer := otel.Tracer("raycaster/framestore")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCSStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	r, err := s.gcs.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			span.SetStatus(codes.Ok, "")
			return nil, false, nil
		}

		err := fmt.Errorf("while opening reader for object: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		err := fmt.Errorf("while reading from object: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	f, err := decode(data)
	if err != nil {
		err := fmt.Errorf("while decoding frame: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	span.SetStatus(codes.Ok, "")
	return f, true, nil
}
