package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// CompressedSuffix marks snapshot files stored zstd-compressed
const CompressedSuffix = ".zst"

// FileStore exposes the JSON file helpers as methods for the services
type FileStore struct{}

// LoadSnapshot reads a snapshot file
func (FileStore) LoadSnapshot(path string) (*models.Snapshot, error) { return LoadSnapshot(path) }

// SaveSnapshot writes a snapshot file
func (FileStore) SaveSnapshot(path string, s *models.Snapshot) error { return SaveSnapshot(path, s) }

// LoadUserDirectory reads the user directory file
func (FileStore) LoadUserDirectory(path string) (*models.UserDirectory, error) {
	return LoadUserDirectory(path)
}

// SaveUserDirectory writes the user directory file
func (FileStore) SaveUserDirectory(path string, d *models.UserDirectory) error {
	return SaveUserDirectory(path, d)
}

// LoadSnapshot reads a snapshot file. A missing or unreadable file is
// reported as missing data.
func LoadSnapshot(path string) (*models.Snapshot, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, apperrors.NewMissingDataError(path, err)
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, apperrors.NewMissingDataError(path, fmt.Errorf("failed to decode snapshot: %w", err))
	}
	return snapshot, nil
}

// SaveSnapshot writes a snapshot file, keeping the player order
func SaveSnapshot(path string, snapshot *models.Snapshot) error {
	return writeJSONFile(path, snapshot)
}

// LoadUserDirectory reads the user directory file
func LoadUserDirectory(path string) (*models.UserDirectory, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, apperrors.NewMissingDataError(path, err)
	}

	directory := models.NewUserDirectory()
	if err := json.Unmarshal(data, directory); err != nil {
		return nil, apperrors.NewMissingDataError(path, fmt.Errorf("failed to decode user directory: %w", err))
	}
	return directory, nil
}

// SaveUserDirectory writes the user directory file
func SaveUserDirectory(path string, directory *models.UserDirectory) error {
	return writeJSONFile(path, directory)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from operator configuration
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return io.ReadAll(f)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func writeJSONFile(path string, v json.Marshaler) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return fmt.Errorf("failed to indent %s: %w", path, err)
	}
	out.WriteByte('\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// write next to the target then rename, so readers never see a partial file
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := writePayload(f, path, out.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func writePayload(w io.Writer, path string, payload []byte) error {
	if !strings.HasSuffix(path, CompressedSuffix) {
		_, err := w.Write(payload)
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to open zstd stream: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
