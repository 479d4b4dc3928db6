package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploader_Upload(t *testing.T) {
	fake := &fakeS3{}
	u := newUploader(fake, "cuss-media", "https://cdn.cusspwk.id/")
	u.now = func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) }

	url, err := u.Upload(context.Background(), "services", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	key := aws.ToString(fake.input.Key)
	assert.True(t, strings.HasPrefix(key, "services/2026/10/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "https://cdn.cusspwk.id/"+key, url)
	assert.Equal(t, "cuss-media", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "png-bytes", fake.body)
}

func TestUploader_Rejects(t *testing.T) {
	u := newUploader(&fakeS3{}, "b", "https://x")
	_, err := u.Upload(context.Background(), "services", "application/pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var disabled *Uploader
	_, err = disabled.Upload(context.Background(), "services", "image/png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDisabled)

	failing := newUploader(&fakeS3{err: errors.New("denied")}, "b", "https://x")
	_, err = failing.Upload(context.Background(), "services", "image/jpeg", strings.NewReader(""))
	assert.ErrorContains(t, err, "denied")
}
