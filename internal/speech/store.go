package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioStore persists rendered audio and returns its public location.
type AudioStore interface {
	Save(ctx context.Context, audio []byte) (string, error)
}

// fileName returns audio_<unix>_<id>.mp3.
func fileName(now time.Time) string {
	return fmt.Sprintf("audio_%d_%s.mp3", now.Unix(), uuid.NewString()[:8])
}

// LocalStore writes audio files into a directory served under a URL prefix.
type LocalStore struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, prefix string) (*LocalStore, error) {
	const op = "NewLocalStore"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, WrapSpeechError(op, err, dir)
	}
	return &LocalStore{dir: dir, prefix: prefix, now: time.Now}, nil
}

// Save implements AudioStore.
func (s *LocalStore) Save(ctx context.Context, audio []byte) (string, error) {
	const op = "LocalStore.Save"

	name := fileName(s.now())
	if err := os.WriteFile(filepath.Join(s.dir, name), audio, 0o644); err != nil {
		return "", WrapSpeechError(op, ErrStorageFailed, err.Error())
	}
	return path.Join(s.prefix, name), nil
}

// objectPutter is the part of the MinIO client used here.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioConfig configures object storage for audio.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore uploads audio to an S3-compatible bucket.
type MinioStore struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewMinioStore connects to MinIO and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, config MinioConfig) (*MinioStore, error) {
	const op = "NewMinioStore"

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, WrapSpeechError(op, err, "failed to initialize MinIO client")
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, WrapSpeechError(op, err, "failed to check bucket "+config.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, WrapSpeechError(op, err, "failed to create bucket "+config.Bucket)
		}
	}

	return &MinioStore{client: client, bucket: config.Bucket, now: time.Now}, nil
}

// Save implements AudioStore. The location is s3://<bucket>/<key>.
func (s *MinioStore) Save(ctx context.Context, audio []byte) (string, error) {
	const op = "MinioStore.Save"

	key := fileName(s.now())
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(audio), int64(len(audio)), minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return "", WrapSpeechError(op, ErrStorageFailed, err.Error())
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
