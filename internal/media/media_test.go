package media

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHead = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type fakeObjectAPI struct {
	puts    []*s3.PutObjectInput
	deletes []string
	failPut bool
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("boom")
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestSniffImage(t *testing.T) {
	ct, ext, err := SniffImage("pothole.PNG", pngHead)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	_, _, err = SniffImage("pothole.svg", pngHead)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = SniffImage("fake.png", []byte("<html><body>hi</body></html>"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "citizencircle/issue-1/abc.jpg", ObjectKey("/citizencircle/", "issue-1", "abc", ".jpg"))
	assert.Equal(t, "issue-1/abc.jpg", ObjectKey("", "issue-1", "abc", ".jpg"))
}

func TestS3HostUploadAndDelete(t *testing.T) {
	api := &fakeObjectAPI{}
	host := newS3Host(api, "photos", "https://cdn.example.com/", zap.NewNop())

	up, err := host.Upload(context.Background(), Object{
		Key:         "citizencircle/i1/a.png",
		ContentType: "image/png",
		Size:        int64(len(pngHead)),
		Body:        bytes.NewReader(pngHead),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/citizencircle/i1/a.png", up.URL)
	assert.Equal(t, "citizencircle/i1/a.png", up.PublicID)
	require.Len(t, api.puts, 1)
	assert.Equal(t, "photos", aws.ToString(api.puts[0].Bucket))

	require.NoError(t, host.Delete(context.Background(), up.PublicID))
	require.NoError(t, host.Delete(context.Background(), ""))
	assert.Equal(t, []string{"citizencircle/i1/a.png"}, api.deletes)
}

func TestS3HostUploadError(t *testing.T) {
	host := newS3Host(&fakeObjectAPI{failPut: true}, "photos", "https://cdn", zap.NewNop())
	_, err := host.Upload(context.Background(), Object{Key: "k", Body: bytes.NewReader(nil)})
	assert.Error(t, err)
}
