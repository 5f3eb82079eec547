package storage

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/utils"
	"github.com/pkg/errors"
)

// LocalStore keeps objects as files on local disk
type LocalStore struct {
	// Path is the main folder to save into
	Path string
	// PublicURL is a base URL the folder is served from, used for links
	PublicURL string
}

// NewLocalStore creates LocalStore instance
func NewLocalStore(path, publicURL string) (*LocalStore, error) {
	cmdapp.Log.Infof("Init Local File Storage at: %s", path)
	if path == "" {
		return nil, errors.New("no path provided")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrapf(err, "Can't create dir %s", path)
	}
	return &LocalStore{Path: path, PublicURL: publicURL}, nil
}

func (fs *LocalStore) fileName(key string) (string, error) {
	k := filepath.Clean("/" + filepath.FromSlash(key))
	if k == string(filepath.Separator) {
		return "", errors.Errorf("Wrong key '%s'", key)
	}
	return filepath.Join(fs.Path, k), nil
}

// Exists checks if file exists
func (fs *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	fn, err := fs.fileName(key)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(fn)
	if err == nil {
		return !st.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "Can't stat %s", fn)
}

// Get loads file from disk
func (fs *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	fn, err := fs.fileName(key)
	if err != nil {
		return nil, err
	}
	res, err := ioutil.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, key)
		}
		return nil, errors.Wrapf(err, "Can't read %s", fn)
	}
	return res, nil
}

// Put saves file to disk. Data is written to a temp file and renamed
// so readers never see a half written object
func (fs *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	fn, err := fs.fileName(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fn)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "Can't create dir %s", dir)
	}
	f, err := ioutil.TempFile(dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "Can't create file in %s", dir)
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "Can't save file %s", fn)
	}
	if err := os.Rename(tmp, fn); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "Can't save file %s", fn)
	}
	cmdapp.Log.Debugf("Saved file %s. Size = %d", fn, len(data))
	return nil
}

// SignURL returns a link under PublicURL. The local store has no expiring links
func (fs *LocalStore) SignURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if fs.PublicURL == "" {
		return "", ErrSignNotSupported
	}
	return utils.URLJoin(fs.PublicURL, strings.TrimPrefix(key, "/")), nil
}

// Healthy checks the storage dir is accessible
func (fs *LocalStore) Healthy() error {
	st, err := os.Stat(fs.Path)
	if err != nil {
		return errors.Wrap(err, "Can't access storage dir")
	}
	if !st.IsDir() {
		return errors.Errorf("%s is not a dir", fs.Path)
	}
	return nil
}
