package publish

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/framez-app/framez-go/utils"
	"github.com/google/uuid"
)

const (
	DevS3Bucket  = "framez-media-dev"
	ProdS3Bucket = "framez-media-output"

	cloudFrontPrefix = "https://media.framez.app/"
)

// S3MediaStore is the S3 variant of the media store, fronted by a CDN.
type S3MediaStore struct {
	bucket   string
	folder   string
	uploader *s3manager.Uploader
}

func NewS3MediaStore(bucket string, folder string) (*S3MediaStore, error) {
	// AWS client session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String("us-west-1"),
	})
	if err != nil {
		return nil, err
	}

	return &S3MediaStore{
		bucket:   bucket,
		folder:   folder,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *S3MediaStore) Upload(ctx context.Context, image *LocalImage) (string, error) {
	key := s.folder + "/post_" + uuid.New().String() + utils.GetUrlExtNameWithDot(image.Name)

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		ACL:         aws.String("public-read"),
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytesReader(image.Data),
		ContentType: aws.String(image.ContentType),
	})
	if err != nil {
		return "", &UploadError{Err: err}
	}
	return cloudFrontPrefix + key, nil
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
