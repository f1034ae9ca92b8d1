package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/ferrianes/foodmarket-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: map[string]string{},
		types:   map[string]string{},
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(data)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func Test_S3(t *testing.T) {
	cfg := storage.S3Config{
		Bucket: "foodmarket",
		Region: "ap-southeast-1",
	}

	t.Run("save and delete", func(t *testing.T) {
		client := newFakeS3()
		s, err := storage.NewS3(context.Background(), cfg, storage.WithS3Client(client))
		require.NoError(t, err)

		err = s.Save(context.Background(), "assets/user/a.jpg", strings.NewReader("jpg"), 3, "image/jpeg")
		require.NoError(t, err)

		assert.Equal(t, "jpg", client.objects["foodmarket/assets/user/a.jpg"])
		assert.Equal(t, "image/jpeg", client.types["foodmarket/assets/user/a.jpg"])

		err = s.Delete(context.Background(), "assets/user/a.jpg")
		require.NoError(t, err)
		assert.Empty(t, client.objects)
	})

	t.Run("urls", func(t *testing.T) {
		tests := map[string]struct {
			cfg  storage.S3Config
			want string
		}{
			"aws": {
				cfg:  cfg,
				want: "https://foodmarket.s3.ap-southeast-1.amazonaws.com/assets/user/a.jpg",
			},
			"custom endpoint": {
				cfg: storage.S3Config{
					Bucket:   "foodmarket",
					Region:   "us-east-1",
					Endpoint: "http://localhost:9000/",
				},
				want: "http://localhost:9000/foodmarket/assets/user/a.jpg",
			},
			"base url": {
				cfg: storage.S3Config{
					Bucket:  "foodmarket",
					Region:  "us-east-1",
					BaseURL: "https://cdn.example.com",
				},
				want: "https://cdn.example.com/assets/user/a.jpg",
			},
		}

		for name, tc := range tests {
			t.Run(name, func(t *testing.T) {
				s, err := storage.NewS3(context.Background(), tc.cfg, storage.WithS3Client(newFakeS3()))
				require.NoError(t, err)
				assert.Equal(t, tc.want, s.URL("assets/user/a.jpg"))
			})
		}
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := storage.NewS3(context.Background(), storage.S3Config{Region: "us-east-1"})
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)
	})

	t.Run("invalid path", func(t *testing.T) {
		s, err := storage.NewS3(context.Background(), cfg, storage.WithS3Client(newFakeS3()))
		require.NoError(t, err)

		err = s.Save(context.Background(), "../a.jpg", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, storage.ErrInvalidPath)
	})

	errorTests := map[string]struct {
		err  error
		want error
	}{
		"access denied": {
			err:  &smithy.GenericAPIError{Code: "AccessDenied"},
			want: storage.ErrAccessDenied,
		},
		"no such bucket": {
			err:  &smithy.GenericAPIError{Code: "NoSuchBucket"},
			want: storage.ErrBucketNotFound,
		},
		"slow down": {
			err:  &smithy.GenericAPIError{Code: "SlowDown"},
			want: storage.ErrServiceUnavailable,
		},
		"canceled": {
			err:  context.Canceled,
			want: context.Canceled,
		},
	}

	for name, tc := range errorTests {
		t.Run("error "+name, func(t *testing.T) {
			client := newFakeS3()
			client.err = tc.err

			s, err := storage.NewS3(context.Background(), cfg, storage.WithS3Client(client))
			require.NoError(t, err)

			err = s.Save(context.Background(), "a.jpg", strings.NewReader("x"), 1, "")
			assert.ErrorIs(t, err, tc.want)

			err = s.Delete(context.Background(), "a.jpg")
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("unknown error code is wrapped", func(t *testing.T) {
		client := newFakeS3()
		apiErr := &smithy.GenericAPIError{Code: "Teapot"}
		client.err = apiErr

		s, err := storage.NewS3(context.Background(), cfg, storage.WithS3Client(client))
		require.NoError(t, err)

		err = s.Save(context.Background(), "a.jpg", strings.NewReader("x"), 1, "")
		var got smithy.APIError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, "Teapot", got.ErrorCode())
	})
}
