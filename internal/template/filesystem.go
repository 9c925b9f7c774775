package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const recordExt = ".json"

// FileStore keeps one JSON record per template in a directory.
type FileStore struct {
	basePath string
	log      logrus.FieldLogger
}

// NewFileStore creates basePath if needed.
func NewFileStore(basePath string, log logrus.FieldLogger) (*FileStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	return &FileStore{basePath: basePath, log: log}, nil
}

func (s *FileStore) Dir() string {
	return s.basePath
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	log := s.log.WithField("path", s.basePath)

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		log.WithError(err).Error("Failed to read template directory")
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), recordExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if name == LastUsedName || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Load(ctx context.Context, name string) (Template, error) {
	if err := ValidateName(name); err != nil {
		return Template{}, err
	}
	return s.read(name)
}

func (s *FileStore) Save(ctx context.Context, tpl Template) error {
	if err := ValidateName(tpl.Name); err != nil {
		return err
	}
	return s.write(tpl.Name, tpl)
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	filePath := s.pathFor(name)
	log := s.log.WithFields(logrus.Fields{"template": name, "file_path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		log.WithError(err).Error("Failed to delete template")
		return err
	}
	log.Info("Template deleted")
	return nil
}

func (s *FileStore) LoadLastUsed(ctx context.Context) (Template, error) {
	tpl, err := s.read(LastUsedName)
	tpl.Name = ""
	return tpl, err
}

func (s *FileStore) SaveLastUsed(ctx context.Context, tpl Template) error {
	return s.write(LastUsedName, tpl)
}

func (s *FileStore) pathFor(name string) string {
	return filepath.Join(s.basePath, name+recordExt)
}

func (s *FileStore) read(name string) (Template, error) {
	filePath := s.pathFor(name)
	log := s.log.WithFields(logrus.Fields{"template": name, "file_path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Template not found")
			return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		log.WithError(err).Error("Failed to read template")
		return Template{}, err
	}

	tpl, err := Decode(data)
	if err != nil {
		log.WithError(err).Warn("Template record is unreadable")
		return Template{}, fmt.Errorf("%s: %w", name, err)
	}
	tpl.Name = name
	return tpl, nil
}

func (s *FileStore) write(name string, tpl Template) error {
	filePath := s.pathFor(name)
	log := s.log.WithFields(logrus.Fields{"template": name, "file_path": filePath})

	data, err := Encode(tpl)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, ".template-*.tmp")
	if err != nil {
		log.WithError(err).Error("Failed to create temp file")
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		log.WithError(err).Error("Failed to save template")
		return err
	}

	log.Debug("Template saved")
	return nil
}
