package drive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Syncer downloads the pipeline's input files from a shared Drive folder into
// the local input directory before a run.
type Syncer struct {
	service  *Service
	inputDir string
}

// NewSyncer creates a Syncer writing into inputDir.
func NewSyncer(service *Service, inputDir string) *Syncer {
	return &Syncer{service: service, inputDir: inputDir}
}

// SyncFolder downloads every CSV in the folder at the given path and returns
// the local paths written.
func (s *Syncer) SyncFolder(folderPath string) ([]string, error) {
	folderID, err := s.service.FindFolderByPath(folderPath)
	if err != nil {
		return nil, err
	}

	files, err := s.service.ListFiles(folderID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create input dir %s: %w", s.inputDir, err)
	}

	var written []string
	for _, f := range files {
		if filepath.Ext(f.Name) != ".csv" {
			continue
		}
		dest := filepath.Join(s.inputDir, f.Name)
		if err := s.downloadTo(f.ID, dest); err != nil {
			return written, err
		}
		log.Info().Str("file", f.Name).Str("dest", dest).Msg("synced input file")
		written = append(written, dest)
	}

	return written, nil
}

// SyncFile downloads one named file from a folder into the input directory.
func (s *Syncer) SyncFile(folderPath, name string) (string, error) {
	folderID, err := s.service.FindFolderByPath(folderPath)
	if err != nil {
		return "", err
	}

	f, err := s.service.FindFile(folderID, name)
	if err != nil {
		return "", err
	}
	if f == nil {
		return "", fmt.Errorf("file %s not found in drive folder %s", name, folderPath)
	}

	dest := filepath.Join(s.inputDir, f.Name)
	if err := s.downloadTo(f.ID, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (s *Syncer) downloadTo(fileID, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if err := s.service.Download(fileID, out); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
