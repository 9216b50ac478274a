package framestore

import (
	"context"
	"errors"
	"fmt"

	"raycaster/framebuffer"

	"github.com/dgraph-io/badger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const badgerKeyPrefix = "frames/"

// BadgerStore caches frames in a local badger database.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(dataDir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir))
	if err != nil {
		return nil, fmt.Errorf("while opening badger database in %q: %w", dataDir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Put(ctx context.Context, key string, f *framebuffer.Frame) error {
	tracer := otel.Tracer("raycaster/framestore")
	var span trace.Span
	_, span = tracer.Start(ctx, "BadgerStore.Put")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	data, err := encode(f)
	if err != nil {
		err := fmt.Errorf("while encoding frame: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), data)
	})
	if err != nil {
		err := fmt.Errorf("while writing frame to badger: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (*framebuffer.Frame, bool, error) {
	tracer := otel.Tracer("raycaster/framestore")
	var span trace.Span
	_, span = tracer.Start(ctx, "BadgerStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		span.SetStatus(codes.Ok, "")
		return nil, false, nil
	}
	if err != nil {
		err := fmt.Errorf("while reading frame from badger: %w", err)
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
