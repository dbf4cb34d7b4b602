package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// S3Config holds S3-compatible storage configuration for template packages.
type S3Config struct {
	// Bucket is the bucket name (required).
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every package key (optional).
	Prefix string `yaml:"prefix"`

	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`

	// Endpoint is a custom endpoint URL, for MinIO or other S3-compatible services.
	Endpoint string `yaml:"endpoint"`

	// Region is the AWS region (default: us-east-1).
	Region string `yaml:"region"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `yaml:"pathStyle"`
}

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c S3Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("%w: access key and secret key must be set together", ErrInvalidConfig)
	}
	return nil
}

// S3API is the subset of the S3 client used by S3Loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Loader loads packages from objects under <prefix>/<package>/Resources/.
type S3Loader struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Loader creates a loader with a client built from cfg.
func NewS3Loader(cfg S3Config) (*S3Loader, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			if cfg.AccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
			}
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return NewS3LoaderWithClient(s3.New(s3.Options{}, opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3LoaderWithClient creates a loader around an existing client.
func NewS3LoaderWithClient(client S3API, bucket, prefix string) *S3Loader {
	return &S3Loader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Open implements Loader. The returned fs.FS issues requests with ctx,
// so it should not outlive the operation that opened it.
func (l *S3Loader) Open(ctx context.Context, pkg string) (fs.FS, error) {
	if err := ValidatePackage(pkg); err != nil {
		return nil, err
	}

	root := path.Join(l.prefix, pkg, ResourcesDir)
	fsys := &s3FS{ctx: ctx, client: l.client, bucket: l.bucket, root: root}

	exists, err := fsys.hasPrefix(root + "/")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, pkg)
	}
	return fsys, nil
}

// s3FS is a read-only fs.FS over the objects below root.
type s3FS struct {
	ctx    context.Context
	client S3API
	bucket string
	root   string
}

var (
	_ fs.FS        = (*s3FS)(nil)
	_ fs.StatFS    = (*s3FS)(nil)
	_ fs.ReadDirFS = (*s3FS)(nil)
)

func (f *s3FS) key(name string) string {
	if name == "." {
		return f.root
	}
	return f.root + "/" + name
}

// Open implements fs.FS.
func (f *s3FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &s3Dir{fsys: f, name: name, info: dirInfo(name)}, nil
	}

	out, err := f.client.GetObject(f.ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		wrapped := wrapS3Error(err, ErrReadFailed)
		if !errors.Is(wrapped, errNotFound) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: wrapped}
		}
		isDir, dirErr := f.hasPrefix(f.key(name) + "/")
		if dirErr != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: dirErr}
		}
		if isDir {
			return &s3Dir{fsys: f, name: name, info: dirInfo(name)}, nil
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("%w: %v", ErrReadFailed, err)}
	}

	return &s3File{
		Reader: bytes.NewReader(data),
		info: fileInfo{
			name:    path.Base(name),
			size:    int64(len(data)),
			modTime: aws.ToTime(out.LastModified),
		},
	}, nil
}

// Stat implements fs.StatFS.
func (f *s3FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return dirInfo(name), nil
	}

	out, err := f.client.HeadObject(f.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err == nil {
		return fileInfo{
			name:    path.Base(name),
			size:    aws.ToInt64(out.ContentLength),
			modTime: aws.ToTime(out.LastModified),
		}, nil
	}

	wrapped := wrapS3Error(err, ErrReadFailed)
	if !errors.Is(wrapped, errNotFound) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: wrapped}
	}
	isDir, dirErr := f.hasPrefix(f.key(name) + "/")
	if dirErr != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: dirErr}
	}
	if isDir {
		return dirInfo(name), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (f *s3FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	prefix := f.key(name) + "/"
	var (
		entries []fs.DirEntry
		token   *string
	)
	for {
		out, err := f.client.ListObjectsV2(f.ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(f.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: wrapS3Error(err, ErrReadFailed)}
		}

		for _, p := range out.CommonPrefixes {
			sub := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/")
			if sub != "" {
				entries = append(entries, dirInfo(sub))
			}
		}
		for _, obj := range out.Contents {
			base := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Skip directory markers.
			if base == "" {
				continue
			}
			entries = append(entries, fileInfo{
				name:    base,
				size:    aws.ToInt64(obj.Size),
				modTime: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	if len(entries) == 0 && name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (f *s3FS) hasPrefix(prefix string) (bool, error) {
	out, err := f.client.ListObjectsV2(f.ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		wrapped := wrapS3Error(err, ErrReadFailed)
		if errors.Is(wrapped, errNotFound) {
			return false, nil
		}
		return false, wrapped
	}
	return len(out.Contents) > 0, nil
}

type s3File struct {
	*bytes.Reader
	info fileInfo
}

func (f *s3File) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *s3File) Close() error               { return nil }

type s3Dir struct {
	fsys    *s3FS
	info    fileInfo
	name    string
	entries []fs.DirEntry
	offset  int
	loaded  bool
}

func (d *s3Dir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *s3Dir) Close() error               { return nil }

func (d *s3Dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: errors.New("is a directory")}
}

// ReadDir implements fs.ReadDirFile.
func (d *s3Dir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		entries, err := d.fsys.ReadDir(d.name)
		if err != nil {
			return nil, err
		}
		d.entries, d.loaded = entries, true
	}

	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}

// fileInfo implements fs.FileInfo and fs.DirEntry.
type fileInfo struct {
	modTime time.Time
	name    string
	size    int64
	dir     bool
}

func dirInfo(name string) fileInfo {
	return fileInfo{name: path.Base(name), dir: true}
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func (i fileInfo) Type() fs.FileMode          { return i.Mode().Type() }
func (i fileInfo) Info() (fs.FileInfo, error) { return i, nil }
