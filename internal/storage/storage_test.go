package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdash/internal/config"
)

func TestNew_UnknownDriver(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Nil(t, s)
	assert.ErrorContains(t, err, `unknown storage driver "ftp"`)
}

func TestNewMinIO_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		msg  string
	}{
		{"missing endpoint", config.MinIOConfig{}, "endpoint is required"},
		{"missing credentials", config.MinIOConfig{Endpoint: "localhost:9000"}, "credentials are required"},
		{"missing bucket", config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(ctx, config.StorageConfig{Driver: DriverMinIO, MinIO: tt.cfg})
			assert.Nil(t, s)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: DriverS3})
	assert.Nil(t, s)
	assert.ErrorContains(t, err, "s3 bucket is required")
}

type fakeS3 struct {
	put    *s3.PutObjectInput
	body   string
	del    *s3.DeleteObjectInput
	getErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
		ContentType:   aws.String("text/plain"),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.del = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3{}
	s := &s3Storage{
		api:    api,
		bucket: "docs",
		presign: func(ctx context.Context, in *s3.GetObjectInput, expiry time.Duration) (string, error) {
			return "https://s3/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?exp=" + expiry.String(), nil
		},
	}

	info, err := s.Put(ctx, "documents/1/a.txt", strings.NewReader("hello"), PutObjectOptions{
		Size:        5,
		ContentType: "text/plain",
		Metadata:    map[string]string{"original-filename": "a.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, `"etag"`, info.ETag)
	assert.Equal(t, "docs", aws.ToString(api.put.Bucket))
	assert.Equal(t, int64(5), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "hello", api.body)

	rc, got, err := s.Get(ctx, "documents/1/a.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, int64(5), got.Size)

	url, err := s.PresignGet(ctx, "documents/1/a.txt", time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/docs/documents/1/a.txt?exp=1m0s", url)

	require.NoError(t, s.Delete(ctx, "documents/1/a.txt"))
	assert.Equal(t, "documents/1/a.txt", aws.ToString(api.del.Key))
}

func TestS3Storage_UnknownSizeOmitsLength(t *testing.T) {
	api := &fakeS3{}
	s := &s3Storage{api: api, bucket: "docs"}

	_, err := s.Put(context.Background(), "k", strings.NewReader("x"), PutObjectOptions{Size: -1})

	require.NoError(t, err)
	assert.Nil(t, api.put.ContentLength)
	assert.Nil(t, api.put.ContentType)
}

func TestS3Storage_PresignDownloadName(t *testing.T) {
	var got *s3.GetObjectInput
	s := &s3Storage{
		api:    &fakeS3{},
		bucket: "docs",
		presign: func(ctx context.Context, in *s3.GetObjectInput, expiry time.Duration) (string, error) {
			got = in
			return "https://signed", nil
		},
	}

	_, err := s.PresignGet(context.Background(), "documents/1/k.pdf", time.Minute, "отчёт Q3.pdf")
	require.NoError(t, err)
	assert.Equal(t, "attachment; filename*=utf-8''%D0%BE%D1%82%D1%87%D1%91%D1%82%20Q3.pdf", aws.ToString(got.ResponseContentDisposition))
}

func TestMinIOStorage_PresignGet(t *testing.T) {
	cli, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	s := &minioStorage{client: cli, bucket: "docs"}

	raw, err := s.PresignGet(context.Background(), "documents/7/a.pdf", 15*time.Minute, "report.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/docs/documents/7/a.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename=report.pdf`, u.Query().Get("response-content-disposition"))

	raw, err = s.PresignGet(context.Background(), "documents/7/a.pdf", time.Minute, "")
	require.NoError(t, err)
	assert.NotContains(t, raw, "response-content-disposition")
}

func TestS3Storage_GetError(t *testing.T) {
	s := &s3Storage{api: &fakeS3{getErr: errors.New("NoSuchKey")}, bucket: "docs"}

	rc, _, err := s.Get(context.Background(), "missing")

	assert.Nil(t, rc)
	assert.ErrorContains(t, err, "NoSuchKey")
}
