package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const (
	ffmpegEnv  = "ANUVAD_FFMPEG_PATH"
	ffprobeEnv = "ANUVAD_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure locates ffmpeg and ffprobe once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = locate(os.Getenv, exec.LookPath)
	})
	return ensurePath, ensureErr
}

// locate prefers the environment overrides and falls back to PATH.
func locate(
	getenv func(string) string,
	lookPath func(string) (string, error),
) (BinaryPaths, error) {
	ffmpegPath, err := resolveBinary("ffmpeg", ffmpegEnv, getenv, lookPath)
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := resolveBinary("ffprobe", ffprobeEnv, getenv, lookPath)
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func resolveBinary(
	name, envKey string,
	getenv func(string) string,
	lookPath func(string) (string, error),
) (string, error) {
	if override := strings.TrimSpace(getenv(envKey)); override != "" {
		if !fileExists(override) {
			return "", fmt.Errorf("%s=%s does not point to a file", envKey, override)
		}
		return override, nil
	}

	found, err := lookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s not found in PATH: install it or set %s", name, envKey)
		}
		return "", fmt.Errorf("look up %s: %w", name, err)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
