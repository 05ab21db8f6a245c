package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhotoStoreRequiresEndpointAndBucket(t *testing.T) {
	_, err := NewPhotoStore(Config{Bucket: "b"}, nil)
	assert.ErrorIs(t, err, ErrEndpointRequired)
	_, err = NewPhotoStore(Config{Endpoint: "localhost:9000"}, nil)
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestObjectURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "bare host", cfg: Config{Endpoint: "localhost:9000", Bucket: "photos"}, want: "http://localhost:9000/photos/hotels/h1/a.jpg"},
		{name: "ssl bare host", cfg: Config{Endpoint: "s3.example.com", Bucket: "photos", UseSSL: true}, want: "https://s3.example.com/photos/hotels/h1/a.jpg"},
		{name: "public endpoint", cfg: Config{Endpoint: "http://minio:9000", PublicEndpoint: "https://cdn.example.com/", Bucket: "photos"}, want: "https://cdn.example.com/photos/hotels/h1/a.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewPhotoStore(tc.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.objectURL("/hotels/h1/a.jpg"))
		})
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	s, err := NewPhotoStore(Config{Endpoint: "localhost:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "x", nil, "image/png")
	assert.ErrorIs(t, err, ErrReaderRequired)
	_, err = s.Upload(context.Background(), " / ", strings.NewReader("img"), "image/png")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
}
