package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// buildUpdateTestApp mounts the update handlers without auth middleware; the
// empty-body rejection happens before any identity or storage access.
func buildUpdateTestApp() *iris.Application {
	api := &API{}
	app := iris.New()
	app.Validator = validator.New()
	app.Put("/courses/{id}", api.UpdateCourse)
	app.Put("/reviews/{id}", api.UpdateReview)
	app.Put("/users/{id}", api.UpdateUser)
	return app
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	app := buildUpdateTestApp()
	require.NoError(t, app.Build())

	for _, path := range []string{
		"/courses/5d725a4a7b292f5f8ceff789",
		"/reviews/5d7a514b5d2c12c7449be027",
		"/users/5c8a1d5b0190b214360dc031",
	} {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 for empty body, got %d", path, resp.Code)
		}

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), path)
		assert.Equal(t, false, body["success"], path)
		assert.Equal(t, "Please provide a field to update", body["err"], path)
	}
}

func TestCourseUpdateDocument(t *testing.T) {
	assert.Empty(t, courseUpdate(UpdateCourseInput{}))

	weeks := 12
	tuition := 9500.0
	update := courseUpdate(UpdateCourseInput{Title: "Full Stack", Weeks: &weeks, Tuition: &tuition})
	assert.Equal(t, "Full Stack", update["title"])
	assert.Equal(t, 12, update["weeks"])
	assert.Equal(t, 9500.0, update["tuition"])
	assert.NotContains(t, update, "description")
}

func TestReviewUpdateDocument(t *testing.T) {
	assert.Empty(t, reviewUpdate(UpdateReviewInput{}))

	rating := 7
	update := reviewUpdate(UpdateReviewInput{Rating: &rating})
	assert.Equal(t, 7, update["rating"])
	assert.NotContains(t, update, "title")
}

func TestUserUpdateDocument(t *testing.T) {
	update, err := userUpdate(UpdateUserInput{})
	require.NoError(t, err)
	assert.Empty(t, update)

	update, err = userUpdate(UpdateUserInput{Email: "John@Gmail.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "john@gmail.com", update["email"])

	hashed, ok := update["password"].(string)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("123456")))
}
