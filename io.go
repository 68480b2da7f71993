package timemachinet

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kimwoo11/TimeMachiNet/models"
)

// checkpoint file extension
const fileExt string = ".dat"

// TimestampLayout names checkpoint directories
const TimestampLayout string = "20060102150405"

// Save writes a checkpoint into a new directory under 'dirPath', named by the current time:
// one file for each network and optimizer. If 'withModels' is false, only the directory is
// made. Save returns the path of the checkpoint directory.
func (net *Network) Save(dirPath string, withModels bool) (string, error) {
	dir := filepath.Join(dirPath, time.Now().Format(TimestampLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "Can't create checkpoint directory %q", dir)
	}

	if !withModels {
		net.logger.Info("Created checkpoint directory", zap.String("dir", dir))
		return dir, nil
	}

	for _, m := range net.modules() {
		m := m
		err := writeFile(dir, m.Name(), func(w io.Writer) error {
			return models.Save(w, m)
		})
		if err != nil {
			return dir, err
		}
	}

	names, opts := net.optimizerFiles()
	for i, opt := range opts {
		if err := writeFile(dir, names[i], opt.Save); err != nil {
			return dir, err
		}
	}

	net.logger.Info("Saved checkpoint", zap.String("dir", dir))
	return dir, nil
}

func writeFile(dir, name string, write func(io.Writer) error) error {
	path := filepath.Join(dir, name+fileExt)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Can't create file %q", path)
	}

	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to write %q", path)
	}

	return f.Close()
}

// Load restores every network and optimizer that has a file in the checkpoint directory
// 'dirPath'. Missing files are skipped; files that are present but don't fit are errors.
// Load returns the names of everything that was restored.
func (net *Network) Load(dirPath string) ([]string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load checkpoint %q", dirPath)
	} else if !info.IsDir() {
		return nil, errors.Errorf("Can't load checkpoint %q, it is not a directory", dirPath)
	}

	var loaded []string
	load := func(name string, read func(io.Reader) error) error {
		path := filepath.Join(dirPath, name+fileExt)

		f, err := os.Open(path)
		if os.IsNotExist(err) {
			net.logger.Debug("Skipping missing checkpoint file", zap.String("file", path))
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "Can't open %q", path)
		}
		defer f.Close()

		if err := read(f); err != nil {
			return errors.Wrapf(err, "Failed to load %q", path)
		}

		loaded = append(loaded, name)
		return nil
	}

	for _, m := range net.modules() {
		m := m
		if err := load(m.Name(), func(r io.Reader) error { return models.Load(r, m) }); err != nil {
			return loaded, err
		}
	}

	names, opts := net.optimizerFiles()
	for i, opt := range opts {
		if err := load(names[i], opt.Load); err != nil {
			return loaded, err
		}
	}

	net.logger.Info("Loaded checkpoint", zap.String("dir", dirPath), zap.Strings("loaded", loaded))
	return loaded, nil
}
