package publish

import (
	"context"
	"fmt"

	"github.com/framez-app/framez-go/utils"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultUploadEndpoint = "https://api.cloudinary.com/v1_1/%s/image/upload"

// UnsignedMediaStore uploads over an unsigned multipart POST to a fixed
// endpoint parameterized by the account identifier. Failure is signaled by
// the absence of a URL field in the response body, exactly as the hosted
// service behaves.
type UnsignedMediaStore struct {
	client   *resty.Client
	endpoint string
	preset   string
	folder   string
}

type unsignedUploadResponse struct {
	SecureUrl string `json:"secure_url"`
}

func NewUnsignedMediaStore(account string, preset string, folder string) *UnsignedMediaStore {
	return &UnsignedMediaStore{
		client:   resty.New(),
		endpoint: fmt.Sprintf(defaultUploadEndpoint, account),
		preset:   preset,
		folder:   folder,
	}
}

// SetEndpoint overrides the upload endpoint, used by tests.
func (s *UnsignedMediaStore) SetEndpoint(endpoint string) {
	s.endpoint = endpoint
}

func (s *UnsignedMediaStore) Upload(ctx context.Context, image *LocalImage) (string, error) {
	fileName := "post_" + uuid.New().String() + utils.GetUrlExtNameWithDot(image.Name)

	var parsed unsignedUploadResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytesReader(image.Data)).
		SetFormData(map[string]string{
			"upload_preset": s.preset,
			"folder":        s.folder,
		}).
		SetResult(&parsed).
		Post(s.endpoint)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if resp.IsError() {
		return "", &UploadError{Err: errors.Errorf("upload endpoint returned %s", resp.Status())}
	}
	if parsed.SecureUrl == "" {
		return "", &UploadError{Err: errors.New("upload response carried no secure_url")}
	}
	return parsed.SecureUrl, nil
}
