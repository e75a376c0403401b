// Package storage provides the source adapters the ingestion layer
// lists and fetches inputs through: an object store, the local file
// system, and a stream placeholder. Adapters are thread-safe; the object
// store adapter serializes its mutating operation (Sync) on an internal
// mutex, the local adapter takes no lock.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FileInfo describes one listed entry of a namespace.
type FileInfo struct {
	Name   string
	Size   int64
	IsDir  bool
	Domain string
}

// FileSystem is the minimal capability set the ingestion layer needs
// from a source namespace. List returns an empty slice on failure and
// logs the cause; Copy and Read surface errors so a work unit can fail.
type FileSystem interface {
	// List enumerates entries under the prefix.
	List(ctx context.Context, prefix string) []FileInfo
	// Copy fetches a key into a local temp file and returns its path.
	// The caller owns the file and must remove it.
	Copy(ctx context.Context, key string) (string, error)
	// Read returns up to n bytes of the key.
	Read(ctx context.Context, key string, n int) ([]byte, error)
	// Sync uploads a local file to the remote key.
	Sync(ctx context.Context, local, remote string) error
}

// ErrStream marks operations a stream namespace cannot serve.
var ErrStream = errors.New("operation not supported on a stream source")

// Options carries adapter credentials and tuning, filled from the
// runtime configuration at startup.
type Options struct {
	S3Endpoint string
	S3Key      string
	S3Secret   string
	S3Region   string
	S3Secure   bool
	TmpPath    string
	Brokers    []string
}

// Factory builds a FileSystem for a protocol and domain (bucket, root
// directory, or broker list).
type Factory func(protocol, domain string) (FileSystem, error)

// MakeFS returns the factory bound to the given options. Unknown
// protocols are an initialization failure surfaced to the caller, never
// a silently usable handle.
func MakeFS(opts Options) Factory {
	return func(protocol, domain string) (FileSystem, error) {
		switch protocol {
		case "s3":
			return newS3FS(opts, domain)
		case "local":
			return newLocalFS(opts), nil
		case "kafka":
			return newKafkaFS(opts, domain), nil
		}
		return nil, fmt.Errorf("no file system for protocol %q", protocol)
	}
}

// URIInfo is a parsed source location.
type URIInfo struct {
	Protocol string
	Domain   string
	Path     string
}

// ParseURI splits a location such as s3://bucket/prefix/ into protocol,
// domain and path. A bare path is treated as local.
func ParseURI(location string) (URIInfo, error) {
	if !strings.Contains(location, "://") {
		return URIInfo{Protocol: "local", Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return URIInfo{}, fmt.Errorf("bad location %q: %w", location, err)
	}
	return URIInfo{
		Protocol: u.Scheme,
		Domain:   u.Host,
		Path:     strings.TrimPrefix(u.Path, "/"),
	}, nil
}
