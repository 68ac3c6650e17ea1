package conf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Ridwan414/shobdotori/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the config search paths. If one of them already
// holds a config.yaml, only that path is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "shobdotori"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "shobdotori"),
			"/etc/shobdotori",
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// GetFfmpegBinaryName returns the binary name for ffmpeg based on the current OS.
func GetFfmpegBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// ValidateToolPath returns configuredPath when it points at an executable,
// otherwise looks the tool up in PATH.
func ValidateToolPath(configuredPath, toolName string) (string, error) {
	if configuredPath != "" {
		info, err := os.Stat(configuredPath)
		if err != nil {
			return "", fmt.Errorf("%s not found at %s: %w", toolName, configuredPath, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s path %s is a directory", toolName, configuredPath)
		}
		return configuredPath, nil
	}

	path, err := exec.LookPath(toolName)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("tool", toolName).
			Build()
	}
	return path, nil
}
