package storage

import (
	"context"
	"time"
)

// OpObserver records storage operation outcomes.
type OpObserver interface {
	StorageOperation(backend, operation string, err error, elapsed time.Duration)
}

// Instrumented reports every operation of a Store to an OpObserver.
type Instrumented struct {
	Store
	observer OpObserver
}

// Instrument wraps store. A nil observer returns store unchanged.
func Instrument(store Store, observer OpObserver) Store {
	if observer == nil {
		return store
	}
	return &Instrumented{Store: store, observer: observer}
}

func (i *Instrumented) observe(operation string, start time.Time, err error) {
	i.observer.StorageOperation(i.Name(), operation, err, time.Since(start))
}

func (i *Instrumented) Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error) {
	start := time.Now()
	obj, err := i.Store.Upload(ctx, folder, filename, data)
	i.observe("upload", start, err)
	return obj, err
}

func (i *Instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, id)
	i.observe("delete", start, err)
	return err
}

func (i *Instrumented) Rename(ctx context.Context, id, newName string) (*Object, error) {
	start := time.Now()
	obj, err := i.Store.Rename(ctx, id, newName)
	i.observe("rename", start, err)
	return obj, err
}

func (i *Instrumented) List(ctx context.Context, folder string) ([]Object, error) {
	start := time.Now()
	objects, err := i.Store.List(ctx, folder)
	i.observe("list", start, err)
	return objects, err
}

func (i *Instrumented) ListFolders(ctx context.Context) ([]Folder, error) {
	start := time.Now()
	folders, err := i.Store.ListFolders(ctx)
	i.observe("list_folders", start, err)
	return folders, err
}

func (i *Instrumented) RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error) {
	start := time.Now()
	removed, err := i.Store.RemoveFolderIfEmpty(ctx, folder)
	i.observe("remove_folder", start, err)
	return removed, err
}

func (i *Instrumented) Ping(ctx context.Context) (*PingInfo, error) {
	start := time.Now()
	info, err := i.Store.Ping(ctx)
	i.observe("ping", start, err)
	return info, err
}
