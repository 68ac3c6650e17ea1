// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. All problems are collected.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateWebServerSettings,
		validateDatabaseSettings,
		validateTrackerSettings,
		validateUploadSettings,
		validateAudioSettings,
		validateStorageSettings,
		validateIntegrationSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string

	port, err := strconv.Atoi(s.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("webserver.port must be a number between 1 and 65535, got %q", s.WebServer.Port))
	}
	if len(s.WebServer.AllowedOrigins) == 0 {
		errs = append(errs, "webserver.allowedorigins must list at least one origin")
	}
	if s.WebServer.RateLimit.Enabled && (s.WebServer.RateLimit.Rate <= 0 || s.WebServer.RateLimit.Burst < 1) {
		errs = append(errs, "webserver.ratelimit needs a positive rate and burst when enabled")
	}

	return errs
}

func validateDatabaseSettings(s *Settings) []string {
	db, err := s.Database.Resolved()
	if err != nil {
		return []string{fmt.Sprintf("database.url: %v", err)}
	}

	switch db.Type {
	case DatabaseSQLite:
		if db.SQLite.Path == "" {
			return []string{"database.sqlite.path is required for sqlite"}
		}
	case DatabaseMySQL:
		var errs []string
		if db.MySQL.Host == "" {
			errs = append(errs, "database.mysql.host is required for mysql")
		}
		if db.MySQL.Database == "" {
			errs = append(errs, "database.mysql.database is required for mysql")
		}
		return errs
	default:
		return []string{fmt.Sprintf("database.type must be %s or %s, got %q", DatabaseSQLite, DatabaseMySQL, db.Type)}
	}
	return nil
}

func validateTrackerSettings(s *Settings) []string {
	s.Tracker.Selection = strings.ToLower(strings.TrimSpace(s.Tracker.Selection))
	if s.Tracker.Selection == "" {
		s.Tracker.Selection = SelectionSequential
	}
	if s.Tracker.Selection != SelectionSequential && s.Tracker.Selection != SelectionRandom {
		return []string{fmt.Sprintf("tracker.selection must be %s or %s, got %q", SelectionSequential, SelectionRandom, s.Tracker.Selection)}
	}
	return nil
}

func validateUploadSettings(s *Settings) []string {
	var errs []string

	if n, err := s.Upload.MaxFileSizeBytes(); err != nil || n <= 0 {
		errs = append(errs, fmt.Sprintf("upload.maxfilesize must be a positive size, got %q", s.Upload.MaxFileSize))
	}
	if len(s.Upload.AllowedExtensions) == 0 {
		errs = append(errs, "upload.allowedextensions must not be empty")
	}
	for i, ext := range s.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Upload.AllowedExtensions[i] = ext
	}
	if len(s.Upload.Genders) == 0 {
		errs = append(errs, "upload.genders must not be empty")
	}
	for i, g := range s.Upload.Genders {
		s.Upload.Genders[i] = strings.ToLower(strings.TrimSpace(g))
	}
	if s.Upload.Timeout <= 0 {
		errs = append(errs, "upload.timeout must be positive")
	}

	return errs
}

func validateAudioSettings(s *Settings) []string {
	var errs []string
	if s.Audio.SampleRate < 8000 || s.Audio.SampleRate > 192000 {
		errs = append(errs, fmt.Sprintf("audio.samplerate must be between 8000 and 192000, got %d", s.Audio.SampleRate))
	}
	if s.Audio.Channels != 1 && s.Audio.Channels != 2 {
		errs = append(errs, fmt.Sprintf("audio.channels must be 1 or 2, got %d", s.Audio.Channels))
	}
	if s.Audio.BitDepth != 16 {
		errs = append(errs, fmt.Sprintf("audio.bitdepth must be 16, got %d", s.Audio.BitDepth))
	}
	return errs
}

func validateStorageSettings(s *Settings) []string {
	var errs []string

	st := &s.Storage
	switch st.Backend {
	case StorageGDrive:
		if st.GDrive.ClientID == "" || st.GDrive.ClientSecret == "" || st.GDrive.RefreshToken == "" {
			errs = append(errs, "storage.gdrive needs clientid, clientsecret and refreshtoken")
		}
		if st.GDrive.FolderID == "" {
			errs = append(errs, "storage.gdrive.folderid is required")
		}
		if st.GDrive.RequestsPerSecond <= 0 {
			errs = append(errs, "storage.gdrive.requestspersecond must be positive")
		}
	case StorageLocal:
		if st.Local.Path == "" {
			errs = append(errs, "storage.local.path is required")
		}
	case StorageSFTP:
		if st.SFTP.Host == "" || st.SFTP.Username == "" {
			errs = append(errs, "storage.sftp needs host and username")
		}
		if st.SFTP.Password == "" && st.SFTP.KeyFile == "" {
			errs = append(errs, "storage.sftp needs a password or keyfile")
		}
	case StorageFTP:
		if st.FTP.Host == "" {
			errs = append(errs, "storage.ftp.host is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be one of %s, %s, %s, %s; got %q",
			StorageGDrive, StorageLocal, StorageSFTP, StorageFTP, st.Backend))
	}

	if len(st.Folders) == 0 {
		errs = append(errs, "storage.folders must map at least one dialect")
	}
	if st.Retry.MaxAttempts < 1 {
		errs = append(errs, "storage.retry.maxattempts must be at least 1")
	}

	return errs
}

func validateIntegrationSettings(s *Settings) []string {
	var errs []string

	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		errs = append(errs, "sentry.dsn is required when sentry is enabled")
	}
	if s.MQTT.Enabled && (s.MQTT.Broker == "" || s.MQTT.Topic == "") {
		errs = append(errs, "mqtt needs broker and topic when enabled")
	}
	if s.Notification.Enabled && !slices.ContainsFunc(s.Notification.URLs, func(u string) bool { return strings.TrimSpace(u) != "" }) {
		errs = append(errs, "notification.urls must not be empty when notifications are enabled")
	}
	if s.Metrics.Enabled && !strings.HasPrefix(s.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	return errs
}
