package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{uri: "data/survey.csv", want: Location{Scheme: SchemeFile, Path: "data/survey.csv"}},
		{uri: "file:///tmp/survey.csv", want: Location{Scheme: SchemeFile, Path: "/tmp/survey.csv"}},
		{uri: "s3://surveys/2024/wave1.csv", want: Location{Scheme: SchemeS3, Host: "surveys", Path: "2024/wave1.csv"}},
		{uri: "az://acct/responses/wave1.xlsx", want: Location{Scheme: SchemeAzure, Host: "acct", Path: "responses/wave1.xlsx"}},
		{uri: "s3://surveys", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	loc, err := Parse("s3://surveys/2024/wave1.csv")
	require.NoError(t, err)
	assert.Equal(t, "wave1.csv", loc.Name())
	assert.Equal(t, "s3://surveys/2024/wave1.csv", loc.String())
}

func TestRegistry_LocalRoundTrip(t *testing.T) {
	// Given
	ctx := context.Background()
	r := NewRegistry()
	require.NoError(t, r.Register(SchemeFile, func(context.Context) (Bucket, error) { return NewLocalBucket(), nil }))
	path := filepath.Join(t.TempDir(), "out", "crosstabs.xlsx")

	// When
	require.NoError(t, r.Put(ctx, path, strings.NewReader("workbook")))
	rc, loc, err := r.Open(ctx, path)

	// Then
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))
	assert.Equal(t, "crosstabs.xlsx", loc.Name())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	factory := func(context.Context) (Bucket, error) { return NewLocalBucket(), nil }

	require.NoError(t, r.Register("mem", factory))
	assert.Error(t, r.Register("mem", factory))
	assert.Error(t, r.Register("", factory))
	assert.Error(t, r.Register("x", nil))
	assert.Equal(t, []string{"mem"}, r.ListSchemes())

	_, _, err := r.Open(context.Background(), "gs://bucket/key")
	assert.ErrorContains(t, err, `scheme "gs" is not registered`)
}

func TestRegistry_FactoryCalledOnce(t *testing.T) {
	calls := 0
	r := NewRegistry()
	require.NoError(t, r.Register(SchemeFile, func(context.Context) (Bucket, error) {
		calls++
		return NewLocalBucket(), nil
	}))
	dir := t.TempDir()

	require.NoError(t, r.Put(context.Background(), filepath.Join(dir, "a"), strings.NewReader("a")))
	require.NoError(t, r.Put(context.Background(), filepath.Join(dir, "b"), strings.NewReader("b")))

	assert.Equal(t, 1, calls)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{SchemeAzure, SchemeFile, SchemeS3}, NewDefaultRegistry("").ListSchemes())
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestS3Bucket(t *testing.T) {
	ctx := context.Background()
	loc := Location{Scheme: SchemeS3, Host: "surveys", Path: "wave1.csv"}

	t.Run("open", func(t *testing.T) {
		client := new(mockS3)
		client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "surveys" && *in.Key == "wave1.csv"
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("Q1\nYes\n"))}, nil)

		rc, err := newS3Bucket(client).Open(ctx, loc)

		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "Q1\nYes\n", string(data))
		client.AssertExpectations(t)
	})

	t.Run("put", func(t *testing.T) {
		client := new(mockS3)
		var sent *s3.PutObjectInput
		client.On("PutObject", ctx, mock.AnythingOfType("*s3.PutObjectInput")).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*s3.PutObjectInput) }).
			Return(&s3.PutObjectOutput{}, nil)

		err := newS3Bucket(client).Put(ctx, loc, strings.NewReader("data"))

		require.NoError(t, err)
		client.AssertExpectations(t)
		require.NotNil(t, sent)
		assert.Equal(t, "surveys", *sent.Bucket)
		assert.Equal(t, int64(4), *sent.ContentLength)
		body, _ := io.ReadAll(sent.Body)
		assert.Equal(t, "data", string(body))
	})

	t.Run("error", func(t *testing.T) {
		client := new(mockS3)
		client.On("GetObject", ctx, mock.Anything).Return(nil, errors.New("access denied"))

		_, err := newS3Bucket(client).Open(ctx, loc)

		assert.ErrorContains(t, err, "access denied")
	})
}

type mockAzure struct {
	mock.Mock
}

func (m *mockAzure) DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	args := m.Called(ctx, containerName, blobName)
	return args.Get(0).(azblob.DownloadStreamResponse), args.Error(1)
}

func (m *mockAzure) UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error) {
	data, _ := io.ReadAll(body)
	args := m.Called(ctx, containerName, blobName, string(data))
	return args.Get(0).(azblob.UploadStreamResponse), args.Error(1)
}

func TestAzureBucket(t *testing.T) {
	ctx := context.Background()
	client := new(mockAzure)
	accounts := 0
	bucket := newAzureBucket(func(account string) (azureAPI, error) {
		accounts++
		assert.Equal(t, "acct", account)
		return client, nil
	})
	loc := Location{Scheme: SchemeAzure, Host: "acct", Path: "responses/wave1.csv"}

	var resp azblob.DownloadStreamResponse
	resp.DownloadResponse = blob.DownloadResponse{Body: io.NopCloser(bytes.NewBufferString("Q1\n"))}
	client.On("DownloadStream", ctx, "responses", "wave1.csv").Return(resp, nil)
	client.On("UploadStream", ctx, "responses", "wave1.csv", "Q1\n").Return(azblob.UploadStreamResponse{}, nil)

	rc, err := bucket.Open(ctx, loc)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "Q1\n", string(data))

	require.NoError(t, bucket.Put(ctx, loc, bytes.NewBufferString("Q1\n")))
	assert.Equal(t, 1, accounts)
	client.AssertExpectations(t)

	_, err = bucket.Open(ctx, Location{Scheme: SchemeAzure, Host: "acct", Path: "no-container"})
	assert.ErrorContains(t, err, "az://account/container/blob")
}
