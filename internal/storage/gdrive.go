package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	audioMimeType  = "audio/wav"

	fileFields googleapi.Field = "id, name, size, webViewLink, createdTime"
	listFields googleapi.Field = "nextPageToken, files(id, name, size, webViewLink, createdTime)"

	listPageSize     = 1000
	folderCacheTTL   = 30 * time.Minute
	defaultDriveRate = 10
	defaultBurst     = 5
	httpNotFound     = 404
)

// GDriveStore stores recordings in Google Drive, one folder per dialect
// below a parent folder.
type GDriveStore struct {
	srv      *drive.Service
	parentID string
	retry    RetryConfig
	limiter  *rate.Limiter
	folders  *cache.Cache
	creating singleflight.Group
	log      logger.Logger
}

type gdriveOptions struct {
	httpClient *http.Client
	endpoint   string
	retry      RetryConfig
}

// GDriveOption configures NewGDriveStore.
type GDriveOption func(*gdriveOptions)

// WithHTTPClient uses client instead of an OAuth2 client built from the settings.
func WithHTTPClient(client *http.Client) GDriveOption {
	return func(o *gdriveOptions) { o.httpClient = client }
}

// WithEndpoint overrides the Drive API base URL.
func WithEndpoint(endpoint string) GDriveOption {
	return func(o *gdriveOptions) { o.endpoint = endpoint }
}

// WithGDriveRetry sets the retry policy for Drive calls.
func WithGDriveRetry(cfg RetryConfig) GDriveOption {
	return func(o *gdriveOptions) { o.retry = cfg }
}

// NewGDriveStore creates a Drive store. Credentials come from the refresh
// token in settings unless WithHTTPClient is given.
func NewGDriveStore(ctx context.Context, settings *conf.GDriveSettings, opts ...GDriveOption) (*GDriveStore, error) {
	var o gdriveOptions
	for _, opt := range opts {
		opt(&o)
	}

	if settings.FolderID == "" {
		return nil, configError("gdrive: folder id is required")
	}

	client := o.httpClient
	if client == nil {
		if settings.ClientID == "" || settings.ClientSecret == "" || settings.RefreshToken == "" {
			return nil, configError("gdrive: client id, client secret and refresh token are required")
		}
		oauthCfg := &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveScope},
		}
		// The token source outlives ctx, so it must not be tied to a request context
		ts := oauthCfg.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: settings.RefreshToken})
		client = oauth2.NewClient(context.WithoutCancel(ctx), ts)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}
	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, storageError(conf.StorageGDrive, "init", err)
	}

	rps := settings.RequestsPerSecond
	if rps <= 0 {
		rps = defaultDriveRate
	}
	burst := settings.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &GDriveStore{
		srv:      srv,
		parentID: settings.FolderID,
		retry:    o.retry,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		folders:  cache.New(folderCacheTTL, 2*folderCacheTTL),
		log:      GetLogger().With(logger.String("backend", conf.StorageGDrive)),
	}, nil
}

func configError(msg string) error {
	return errors.Newf("%s", msg).
		Component("storage").
		Category(errors.CategoryConfiguration).
		Build()
}

// Name returns "gdrive".
func (s *GDriveStore) Name() string { return conf.StorageGDrive }

// call throttles and retries op.
func (s *GDriveStore) call(ctx context.Context, operation string, op func() error) error {
	return WithRetry(ctx, s.retry, operation, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return op()
	})
}

// quote escapes a value for a Drive query string literal.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == httpNotFound
}

func toObject(f *drive.File, folder string) Object {
	obj := Object{
		ID:     f.Id,
		Name:   f.Name,
		Folder: folder,
		Size:   f.Size,
		Link:   f.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		obj.CreatedAt = t.UTC()
	}
	return obj
}

// findFolder returns the id of the named folder, or "" when it does not exist.
func (s *GDriveStore) findFolder(ctx context.Context, name string) (string, error) {
	if id, ok := s.folders.Get(name); ok {
		return id.(string), nil
	}

	q := fmt.Sprintf("name=%s and %s in parents and mimeType=%s and trashed=false",
		quote(name), quote(s.parentID), quote(folderMimeType))

	var list *drive.FileList
	err := s.call(ctx, "find folder", func() error {
		var err error
		list, err = s.srv.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", storageError(s.Name(), "find folder", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}

	id := list.Files[0].Id
	s.folders.Set(name, id, cache.DefaultExpiration)
	return id, nil
}

// ensureFolder returns the id of the named folder, creating it when missing.
// Concurrent callers for the same folder share one creation.
func (s *GDriveStore) ensureFolder(ctx context.Context, name string) (string, error) {
	if id, err := s.findFolder(ctx, name); err != nil || id != "" {
		return id, err
	}

	v, err, _ := s.creating.Do(name, func() (any, error) {
		if id, err := s.findFolder(ctx, name); err != nil || id != "" {
			return id, err
		}

		var folder *drive.File
		err := s.call(ctx, "create folder", func() error {
			var err error
			folder, err = s.srv.Files.Create(&drive.File{
				Name:     name,
				MimeType: folderMimeType,
				Parents:  []string{s.parentID},
			}).Fields("id").Context(ctx).Do()
			return err
		})
		if err != nil {
			return "", storageError(s.Name(), "create folder", err)
		}

		s.folders.Set(name, folder.Id, cache.DefaultExpiration)
		s.log.Info("created dialect folder",
			logger.String("folder", name),
			logger.String("folder_id", folder.Id))
		return folder.Id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Upload stores data as filename inside the dialect folder.
func (s *GDriveStore) Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error) {
	if err := validateComponent(filename); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("filename %q: %w", filename, err))
	}
	folderID, err := s.ensureFolder(ctx, folder)
	if err != nil {
		return nil, err
	}

	var file *drive.File
	err = s.call(ctx, "upload", func() error {
		var err error
		file, err = s.srv.Files.Create(&drive.File{
			Name:     filename,
			MimeType: audioMimeType,
			Parents:  []string{folderID},
		}).Media(bytes.NewReader(data), googleapi.ContentType(audioMimeType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}

	obj := toObject(file, folder)
	s.log.Debug("uploaded recording",
		logger.String("id", obj.ID),
		logger.String("name", obj.Name),
		logger.Int64("size", obj.Size))
	return &obj, nil
}

// Delete permanently deletes the file with id.
func (s *GDriveStore) Delete(ctx context.Context, id string) error {
	err := s.call(ctx, "delete", func() error {
		return s.srv.Files.Delete(id).Context(ctx).Do()
	})
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return notFound(s.Name(), id)
	default:
		return storageError(s.Name(), "delete", err)
	}
}

// Rename changes the name of the file with id.
func (s *GDriveStore) Rename(ctx context.Context, id, newName string) (*Object, error) {
	if err := validateComponent(newName); err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	var file *drive.File
	err := s.call(ctx, "rename", func() error {
		var err error
		file, err = s.srv.Files.Update(id, &drive.File{Name: newName}).Fields(fileFields).Context(ctx).Do()
		return err
	})
	switch {
	case err == nil:
		obj := toObject(file, "")
		return &obj, nil
	case isNotFound(err):
		return nil, notFound(s.Name(), id)
	default:
		return nil, storageError(s.Name(), "rename", err)
	}
}

func (s *GDriveStore) listChildren(ctx context.Context, q string, fields googleapi.Field) ([]*drive.File, error) {
	var files []*drive.File
	err := s.call(ctx, "list", func() error {
		files = files[:0]
		return s.srv.Files.List().
			Q(q).
			Fields(fields).
			OrderBy("name").
			PageSize(listPageSize).
			Pages(ctx, func(page *drive.FileList) error {
				files = append(files, page.Files...)
				return nil
			})
	})
	return files, err
}

// List returns the files of the dialect folder.
func (s *GDriveStore) List(ctx context.Context, folder string) ([]Object, error) {
	folderID, err := s.findFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		return []Object{}, nil
	}

	q := fmt.Sprintf("%s in parents and mimeType!=%s and trashed=false", quote(folderID), quote(folderMimeType))
	files, err := s.listChildren(ctx, q, listFields)
	if err != nil {
		return nil, storageError(s.Name(), "list", err)
	}

	objects := make([]Object, 0, len(files))
	for _, f := range files {
		objects = append(objects, toObject(f, folder))
	}
	return objects, nil
}

// ListFolders returns the dialect folders under the parent with file counts.
func (s *GDriveStore) ListFolders(ctx context.Context) ([]Folder, error) {
	q := fmt.Sprintf("%s in parents and mimeType=%s and trashed=false", quote(s.parentID), quote(folderMimeType))
	files, err := s.listChildren(ctx, q, "nextPageToken, files(id, name)")
	if err != nil {
		return nil, storageError(s.Name(), "list folders", err)
	}

	folders := make([]Folder, 0, len(files))
	for _, f := range files {
		s.folders.Set(f.Name, f.Id, cache.DefaultExpiration)
		objects, err := s.List(ctx, f.Name)
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{ID: f.Id, Name: f.Name, FileCount: len(objects)})
	}
	return folders, nil
}

// RemoveFolderIfEmpty deletes the dialect folder when it has no files.
func (s *GDriveStore) RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error) {
	folderID, err := s.findFolder(ctx, folder)
	if err != nil || folderID == "" {
		return false, err
	}
	objects, err := s.List(ctx, folder)
	if err != nil {
		return false, err
	}
	if len(objects) > 0 {
		return false, nil
	}

	err = s.call(ctx, "remove folder", func() error {
		return s.srv.Files.Delete(folderID).Context(ctx).Do()
	})
	if err != nil && !isNotFound(err) {
		return false, storageError(s.Name(), "remove folder", err)
	}
	s.folders.Delete(folder)
	return true, nil
}

// Ping reads the authenticated user and the parent folder.
func (s *GDriveStore) Ping(ctx context.Context) (*PingInfo, error) {
	var about *drive.About
	err := s.call(ctx, "ping", func() error {
		var err error
		about, err = s.srv.About.Get().Fields("user").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, storageError(s.Name(), "ping", err)
	}

	var parent *drive.File
	err = s.call(ctx, "ping", func() error {
		var err error
		parent, err = s.srv.Files.Get(s.parentID).Fields("id, name").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, storageError(s.Name(), "ping parent folder", err)
	}

	info := &PingInfo{
		Backend:  s.Name(),
		Location: parent.Name,
		Details:  map[string]any{"folderId": parent.Id},
	}
	if about.User != nil {
		info.User = about.User.EmailAddress
		info.Details["displayName"] = about.User.DisplayName
	}
	return info, nil
}

// Close flushes the folder cache.
func (s *GDriveStore) Close() error {
	s.folders.Flush()
	return nil
}
