package routes

import (
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoHeader(contentType string, size int64) *multipart.FileHeader {
	mime := make(textproto.MIMEHeader)
	mime.Set("Content-Type", contentType)
	return &multipart.FileHeader{
		Filename: "photo.jpg",
		Header:   mime,
		Size:     size,
	}
}

func TestValidatePhoto(t *testing.T) {
	assert.Nil(t, validatePhoto(photoHeader("image/jpeg", 500_000), 1_000_000))
	assert.Nil(t, validatePhoto(photoHeader("image/png", 1_000_000), 1_000_000))
}

func TestValidatePhotoRejectsNonImage(t *testing.T) {
	apiErr := validatePhoto(photoHeader("application/pdf", 100), 1_000_000)

	require.NotNil(t, apiErr)
	assert.Equal(t, iris.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"Please upload an image file"}, apiErr.Messages)
}

func TestValidatePhotoRejectsOversize(t *testing.T) {
	apiErr := validatePhoto(photoHeader("image/jpeg", 1_000_001), 1_000_000)

	require.NotNil(t, apiErr)
	assert.Equal(t, iris.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"Please upload an image less than 1000000 bytes"}, apiErr.Messages)
}

func TestMaxFileUpload(t *testing.T) {
	os.Unsetenv("MAX_FILE_UPLOAD")
	assert.Equal(t, int64(defaultMaxFileUpload), maxFileUpload())

	os.Setenv("MAX_FILE_UPLOAD", "2000000")
	defer os.Unsetenv("MAX_FILE_UPLOAD")
	assert.Equal(t, int64(2_000_000), maxFileUpload())

	os.Setenv("MAX_FILE_UPLOAD", "not-a-number")
	assert.Equal(t, int64(defaultMaxFileUpload), maxFileUpload())
}

func TestValidateCareers(t *testing.T) {
	assert.Nil(t, validateCareers(nil))
	assert.Nil(t, validateCareers([]string{"Web Development", "UI/UX"}))

	apiErr := validateCareers([]string{"Web Development", "Basket Weaving"})
	require.NotNil(t, apiErr)
	assert.Equal(t, []string{"Basket Weaving is not a valid career"}, apiErr.Messages)
}
