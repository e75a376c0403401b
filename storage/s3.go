package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// s3FS lists and fetches objects of one bucket. The client paginates
// listings internally with continuation tokens; a trailing-slash
// delimiter keeps common prefixes separate from objects.
type s3FS struct {
	client *minio.Client
	bucket string
	tmp    string

	// serializes the few mutating operations (sync/upload)
	mu sync.Mutex
}

func newS3FS(opts Options, bucket string) (*s3FS, error) {
	client, err := minio.New(opts.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.S3Key, opts.S3Secret, ""),
		Secure: opts.S3Secure,
		Region: opts.S3Region,
	})
	if err != nil {
		return nil, err
	}
	return &s3FS{client: client, bucket: bucket, tmp: opts.TmpPath}, nil
}

func (s *s3FS) List(ctx context.Context, prefix string) []FileInfo {
	var out []FileInfo
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})
	for obj := range objects {
		if obj.Err != nil {
			zap.L().Error("list failed",
				zap.String("bucket", s.bucket),
				zap.String("prefix", prefix),
				zap.Error(obj.Err))
			return nil
		}
		out = append(out, FileInfo{
			Name:   obj.Key,
			Size:   obj.Size,
			IsDir:  strings.HasSuffix(obj.Key, "/"),
			Domain: s.bucket,
		})
	}
	return out
}

func (s *s3FS) Copy(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	tmp, err := os.CreateTemp(s.tmp, "nebula.s3.*")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, obj); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *s3FS) Read(ctx context.Context, key string, n int) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(0, int64(n)-1); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(obj, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return buf[:read], err
}

func (s *s3FS) Sync(ctx context.Context, local, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(local)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, remote, file, info.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}
