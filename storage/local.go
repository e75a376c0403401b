package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// localFS serves inputs from the local file system through afero so
// tests can run against an in-memory tree.
type localFS struct {
	fs  afero.Fs
	tmp string
}

func newLocalFS(opts Options) *localFS {
	return &localFS{fs: afero.NewOsFs(), tmp: opts.TmpPath}
}

// NewLocalFS builds a local adapter over an explicit afero tree.
func NewLocalFS(fs afero.Fs, tmp string) FileSystem {
	return &localFS{fs: fs, tmp: tmp}
}

func (l *localFS) List(ctx context.Context, prefix string) []FileInfo {
	dir := prefix
	base := ""
	if fi, err := l.fs.Stat(prefix); err != nil || !fi.IsDir() {
		dir, base = filepath.Split(prefix)
	}
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		zap.L().Error("list failed", zap.String("prefix", prefix), zap.Error(err))
		return nil
	}
	var out []FileInfo
	for _, e := range entries {
		if base != "" && !strings.HasPrefix(e.Name(), base) {
			continue
		}
		out = append(out, FileInfo{
			Name:  path.Join(dir, e.Name()),
			Size:  e.Size(),
			IsDir: e.IsDir(),
		})
	}
	return out
}

func (l *localFS) Copy(ctx context.Context, key string) (string, error) {
	src, err := l.fs.Open(key)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp := filepath.Join(l.tmp, "nebula.local."+uuid.NewString())
	dst, err := l.fs.Create(tmp)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		l.fs.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func (l *localFS) Read(ctx context.Context, key string, n int) ([]byte, error) {
	f, err := l.fs.Open(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return buf[:read], err
}

func (l *localFS) Sync(ctx context.Context, local, remote string) error {
	src, err := l.fs.Open(local)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := l.fs.MkdirAll(filepath.Dir(remote), os.FileMode(0o755)); err != nil {
		return err
	}
	dst, err := l.fs.Create(remote)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
