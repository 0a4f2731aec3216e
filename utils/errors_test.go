package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(message string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: message},
		},
	}
}

func TestFromStorageNoDocuments(t *testing.T) {
	apiErr := FromStorage(mongo.ErrNoDocuments)

	assert.Equal(t, iris.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, []string{"Resource not found"}, apiErr.Messages)
}

func TestFromStorageDuplicateKey(t *testing.T) {
	apiErr := FromStorage(duplicateKeyError("E11000 duplicate key error collection: devcamper.users index: email_1"))

	assert.Equal(t, iris.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"Duplicate field value entered"}, apiErr.Messages)
}

func TestFromStorageDuplicateReview(t *testing.T) {
	apiErr := FromStorage(duplicateKeyError("E11000 duplicate key error collection: devcamper.reviews index: bootcamp_1_user_1"))

	assert.Equal(t, iris.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"You have already submitted a review for this bootcamp"}, apiErr.Messages)
}

func TestFromStorageUnknownErrorIsServerError(t *testing.T) {
	apiErr := FromStorage(assert.AnError)

	assert.Equal(t, iris.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, []string{"Server error"}, apiErr.Messages)
}

func TestFromStoragePassesThroughAPIError(t *testing.T) {
	orig := Forbidden("nope")

	assert.Same(t, orig, FromStorage(orig))
}

// failResponse performs a request against a one-handler app that calls Fail
// with the given error and decodes the envelope.
func failResponse(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	app := iris.New()
	app.Get("/", func(ctx iris.Context) {
		Fail(ctx, err)
	})

	require.NoError(t, app.Build())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return resp.Code, body
}

func TestFailSingleMessage(t *testing.T) {
	code, body := failResponse(t, BadRequest("Please add a title."))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	// trailing period stripped
	assert.Equal(t, "Please add a title", body["err"])
}

func TestFailMultipleMessages(t *testing.T) {
	code, body := failResponse(t, NewAPIError(iris.StatusBadRequest, "Please add a title", "Please add some text"))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []interface{}{"Please add a title", "Please add some text"}, body["err"])
}

func TestFailTranslatesStorageErrors(t *testing.T) {
	code, body := failResponse(t, mongo.ErrNoDocuments)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Resource not found", body["err"])
}
