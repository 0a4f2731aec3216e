package routes

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/utils"
)

const resetTokenLifetime = 10 * time.Minute

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateDetailsInput struct {
	Name  string `json:"name" validate:"omitempty,max=50"`
	Email string `json:"email" validate:"omitempty,email"`
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates an account and signs the caller in.
func (api *API) Register(ctx iris.Context) {
	var input RegisterInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hashed, err := hashAndSaltPassword(input.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		Name:      input.Name,
		Email:     strings.ToLower(input.Email),
		Role:      role,
		Password:  hashed,
		CreatedAt: time.Now().UTC(),
	}

	res, err := api.Store.Users().InsertOne(ctx.Request().Context(), &user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	api.sendTokenResponse(ctx, iris.StatusCreated, &user)
}

// Login verifies the credentials and returns a token pair.
func (api *API) Login(ctx iris.Context) {
	var input LoginInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	err := api.Store.Users().FindOne(ctx.Request().Context(),
		bson.M{"email": strings.ToLower(input.Email)}).Decode(&user)
	if err != nil {
		utils.Fail(ctx, utils.Unauthorized("Invalid credentials"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		utils.Fail(ctx, utils.Unauthorized("Invalid credentials"))
		return
	}

	api.sendTokenResponse(ctx, iris.StatusOK, &user)
}

// Logout clears the token cookie and revokes the presented refresh token.
func (api *API) Logout(ctx iris.Context) {
	if refresh := ctx.GetHeader("X-Refresh-Token"); refresh != "" {
		api.Redis.Del(ctx.Request().Context(), refresh)
	}
	ctx.RemoveCookie("token")
	utils.Data(ctx, iris.StatusOK, iris.Map{})
}

// GetMe returns the authenticated user.
func (api *API) GetMe(ctx iris.Context) {
	user, apiErr := api.currentUser(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}
	utils.Data(ctx, iris.StatusOK, user)
}

// UpdateDetails changes the authenticated user's name and email.
func (api *API) UpdateDetails(ctx iris.Context) {
	var input UpdateDetailsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	userID, _ := utils.CurrentUserID(ctx)
	update := bson.M{}
	if input.Name != "" {
		update["name"] = input.Name
	}
	if input.Email != "" {
		update["email"] = strings.ToLower(input.Email)
	}
	if len(update) == 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a name or email to update"))
		return
	}

	var user models.User
	err := api.Store.Users().FindOneAndUpdate(ctx.Request().Context(),
		bson.M{"_id": userID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, user)
}

// UpdatePassword verifies the current password before setting a new one.
func (api *API) UpdatePassword(ctx iris.Context) {
	var input UpdatePasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user, apiErr := api.currentUser(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)) != nil {
		utils.Fail(ctx, utils.Unauthorized("Password is incorrect"))
		return
	}

	hashed, err := hashAndSaltPassword(input.NewPassword)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	_, err = api.Store.Users().UpdateByID(ctx.Request().Context(), user.ID,
		bson.M{"$set": bson.M{"password": hashed}})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.sendTokenResponse(ctx, iris.StatusOK, user)
}

// ForgotPassword issues a short-lived reset token. The raw token is returned
// in the response; its sha256 digest and expiry live on the user document.
func (api *API) ForgotPassword(ctx iris.Context) {
	var input ForgotPasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	err := api.Store.Users().FindOne(ctx.Request().Context(),
		bson.M{"email": strings.ToLower(input.Email)}).Decode(&user)
	if err != nil {
		utils.Fail(ctx, utils.NotFound())
		return
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	_, err = api.Store.Users().UpdateByID(ctx.Request().Context(), user.ID, bson.M{"$set": bson.M{
		"resetPasswordToken":  hash,
		"resetPasswordExpire": time.Now().UTC().Add(resetTokenLifetime),
	}})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, iris.Map{"resetToken": token})
}

// ResetPassword redeems a reset token for a new password.
func (api *API) ResetPassword(ctx iris.Context) {
	var input ResetPasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hash := utils.HashToken(ctx.Params().Get("resettoken"))

	var user models.User
	err := api.Store.Users().FindOne(ctx.Request().Context(), bson.M{
		"resetPasswordToken":  hash,
		"resetPasswordExpire": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&user)
	if err != nil {
		utils.Fail(ctx, utils.BadRequest("Invalid token"))
		return
	}

	hashed, err := hashAndSaltPassword(input.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	_, err = api.Store.Users().UpdateByID(ctx.Request().Context(), user.ID, bson.M{
		"$set":   bson.M{"password": hashed},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	user.Password = hashed
	api.sendTokenResponse(ctx, iris.StatusOK, &user)
}

// RefreshToken rotates a verified refresh token for a new pair. The old token
// must still be on the Redis allow-list and is revoked on use.
func (api *API) RefreshToken(ctx iris.Context) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)

	reqCtx := ctx.Request().Context()
	valid, err := api.Redis.Get(reqCtx, tokenStr).Result()
	if err != nil || valid != "true" {
		utils.Fail(ctx, utils.Unauthorized("Invalid refresh token"))
		return
	}
	api.Redis.Del(reqCtx, tokenStr)

	userID, err := primitive.ObjectIDFromHex(token.StandardClaims.Subject)
	if err != nil {
		utils.Fail(ctx, utils.Unauthorized("Invalid refresh token"))
		return
	}

	var user models.User
	if err := api.Store.Users().FindOne(reqCtx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.sendTokenResponse(ctx, iris.StatusOK, &user)
}

// sendTokenResponse signs a token pair, sets the cookie the verifier also
// accepts, and writes the auth envelope.
func (api *API) sendTokenResponse(ctx iris.Context, status int, user *models.User) {
	pair, err := utils.CreateTokenPair(ctx.Request().Context(), api.Redis, user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	ctx.SetCookieKV("token", string(pair.AccessToken),
		iris.CookieExpires(utils.AccessTokenLifetime),
		iris.CookieHTTPOnly(true))

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"success":      true,
		"token":        string(pair.AccessToken),
		"refreshToken": string(pair.RefreshToken),
		"data":         user,
	})
}

func (api *API) currentUser(ctx iris.Context) (*models.User, *utils.APIError) {
	userID, ok := utils.CurrentUserID(ctx)
	if !ok {
		return nil, utils.Unauthorized("")
	}
	var user models.User
	if err := api.Store.Users().FindOne(ctx.Request().Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, utils.FromStorage(err)
	}
	return &user, nil
}

func hashAndSaltPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
