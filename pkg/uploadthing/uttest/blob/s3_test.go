package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func (m *mockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *mockS3Client) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *mockS3Client) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.CreateBucketOutput), args.Error(1)
}

func (m *mockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart upload not expected")
}

func (m *mockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not expected")
}

func (m *mockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not expected")
}

func (m *mockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not expected")
}

func TestS3_PutGetDelete(t *testing.T) {
	client := new(mockS3Client)
	store := NewS3WithClient(client, "uploads", "mock/")
	ctx := context.Background()

	var uploaded []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "uploads" && *in.Key == "mock/key-1" && *in.ContentType == "image/png"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, store.Put(ctx, "key-1", "image/png", []byte("png bytes")))
	assert.Equal(t, "png bytes", string(uploaded))

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "mock/key-1"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(uploaded))}, nil)

	data, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	client.On("HeadObject", mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "mock/key-1"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, store.Delete(ctx, "key-1"))
	client.AssertExpectations(t)
}

func TestS3_NotFound(t *testing.T) {
	client := new(mockS3Client)
	store := NewS3WithClient(client, "uploads", "")
	ctx := context.Background()

	client.On("GetObject", mock.Anything, mock.Anything).Return((*s3.GetObjectOutput)(nil), &types.NoSuchKey{})
	client.On("HeadObject", mock.Anything, mock.Anything).Return((*s3.HeadObjectOutput)(nil), &smithy.GenericAPIError{Code: "NotFound"})

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)
	client.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	exists := new(mockS3Client)
	exists.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)
	require.NoError(t, ensureBucket(ctx, exists, "uploads"))
	exists.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)

	missing := new(mockS3Client)
	missing.On("HeadBucket", mock.Anything, mock.Anything).Return((*s3.HeadBucketOutput)(nil), &types.NotFound{})
	missing.On("CreateBucket", mock.Anything, mock.Anything).Return(&s3.CreateBucketOutput{}, nil)
	require.NoError(t, ensureBucket(ctx, missing, "uploads"))
	missing.AssertExpectations(t)

	denied := new(mockS3Client)
	denied.On("HeadBucket", mock.Anything, mock.Anything).Return((*s3.HeadBucketOutput)(nil), &smithy.GenericAPIError{Code: "AccessDenied"})
	assert.Error(t, ensureBucket(ctx, denied, "uploads"))
}

func TestEndpointResolver(t *testing.T) {
	r := &endpointResolver{endpoint: "http://localhost:9000", region: "us-east-1"}
	region, bucket := "us-east-1", "uploads"

	ep, err := r.ResolveEndpoint(context.Background(), s3.EndpointParameters{Region: &region, Bucket: &bucket})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/uploads", ep.URI.String())
}
