// Package storage uploads recordings to a remote object store with one
// folder per dialect. Backends: Google Drive, local directory, SFTP and FTP.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// ErrObjectNotFound is returned when an object or folder does not exist.
var ErrObjectNotFound = errors.NewStd("object not found")

// ErrObjectExists is returned when a rename target is already taken.
var ErrObjectExists = errors.NewStd("object already exists")

// Object is a stored file.
type Object struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Folder    string    `json:"folder,omitempty"`
	Size      int64     `json:"size"`
	Link      string    `json:"downloadLink,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Folder is a dialect folder with its file count.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FileCount int    `json:"fileCount"`
}

// PingInfo describes a reachable store.
type PingInfo struct {
	Backend  string         `json:"backend"`
	Location string         `json:"location"`
	User     string         `json:"user,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// Store is a remote object store organized in folders.
type Store interface {
	// Name returns the backend name.
	Name() string
	// Upload stores data as folder/filename, creating the folder on demand.
	Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error)
	// Delete removes an object by ID. A missing object is ErrObjectNotFound.
	Delete(ctx context.Context, id string) error
	// Rename changes the name of an object within its folder. It never
	// replaces another object: a taken name is ErrObjectExists. Backends
	// without unique names (Drive) accept duplicates.
	Rename(ctx context.Context, id, newName string) (*Object, error)
	// List returns the objects of a folder ordered by name. A missing folder is empty.
	List(ctx context.Context, folder string) ([]Object, error)
	// ListFolders returns every folder with its file count, ordered by name.
	ListFolders(ctx context.Context) ([]Folder, error)
	// RemoveFolderIfEmpty deletes folder when it holds no objects.
	RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) (*PingInfo, error)
	// Close releases connections.
	Close() error
}

// GetLogger returns the storage module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("storage")
}

// New creates the store selected by settings.Backend.
func New(ctx context.Context, settings *conf.StorageSettings) (Store, error) {
	retry := RetryConfig{MaxRetries: settings.Retry.MaxAttempts, Backoff: settings.Retry.Backoff}

	switch settings.Backend {
	case conf.StorageGDrive:
		return NewGDriveStore(ctx, &settings.GDrive, WithGDriveRetry(retry))
	case conf.StorageLocal, "":
		return NewLocalStore(settings.Local.Path)
	case conf.StorageSFTP:
		return NewSFTPStore(&settings.SFTP, retry)
	case conf.StorageFTP:
		return NewFTPStore(&settings.FTP, retry)
	default:
		return nil, errors.Newf("unsupported storage backend %q", settings.Backend).
			Component("storage").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// storageError wraps a failed backend operation.
func storageError(backend, operation string, err error) error {
	return errors.New(fmt.Errorf("%s: %s: %w", backend, operation, err)).
		Component("storage").
		Category(errors.CategoryStorage).
		Context("backend", backend).
		Context("operation", operation).
		Build()
}

// exists wraps ErrObjectExists for name.
func exists(backend, name string) error {
	return errors.New(fmt.Errorf("%s: %q: %w", backend, name, ErrObjectExists)).
		Component("storage").
		Category(errors.CategoryConflict).
		Context("backend", backend).
		Build()
}

// notFound wraps ErrObjectNotFound for id.
func notFound(backend, id string) error {
	return errors.New(fmt.Errorf("%s: %q: %w", backend, id, ErrObjectNotFound)).
		Component("storage").
		Category(errors.CategoryNotFound).
		Context("backend", backend).
		Build()
}
