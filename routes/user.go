package routes

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/query"
	"github.com/gaspartrip/devcamper-api/utils"
)

// Admin-only user management. The role allow-list is enforced by the route
// middleware; handlers here only do the storage work.

type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

type UpdateUserInput struct {
	Name     string `json:"name" validate:"omitempty,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

// GetUsers lists users through the advanced query builder.
func (api *API) GetUsers(ctx iris.Context) {
	var users []models.User
	meta, err := query.Find(ctx.Request().Context(), api.Store.Users(),
		ctx.Request().URL.Query(), &users)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	if users == nil {
		users = []models.User{}
	}
	writePage(ctx, meta, len(users), users)
}

// GetUser returns a single user by id.
func (api *API) GetUser(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var user models.User
	if err := api.Store.Users().FindOne(ctx.Request().Context(), bson.M{"_id": id}).Decode(&user); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, user)
}

// CreateUser creates an account with any role, including admin.
func (api *API) CreateUser(ctx iris.Context) {
	var input CreateUserInput
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

	utils.Data(ctx, iris.StatusCreated, user)
}

// UpdateUser applies a partial update; a new password is rehashed.
func (api *API) UpdateUser(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input UpdateUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	update, err := userUpdate(input)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if len(update) == 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a field to update"))
		return
	}

	var user models.User
	err = api.Store.Users().FindOneAndUpdate(ctx.Request().Context(),
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, user)
}

// userUpdate builds the partial $set document, rehashing a new password.
// Empty when the body carried no updatable field.
func userUpdate(input UpdateUserInput) (bson.M, error) {
	update := bson.M{}
	if input.Name != "" {
		update["name"] = input.Name
	}
	if input.Email != "" {
		update["email"] = strings.ToLower(input.Email)
	}
	if input.Role != "" {
		update["role"] = input.Role
	}
	if input.Password != "" {
		hashed, err := hashAndSaltPassword(input.Password)
		if err != nil {
			return nil, err
		}
		update["password"] = hashed
	}
	return update, nil
}

// DeleteUser removes an account.
func (api *API) DeleteUser(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	res, err := api.Store.Users().DeleteOne(ctx.Request().Context(), bson.M{"_id": id})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if res.DeletedCount == 0 {
		utils.Fail(ctx, utils.NotFound())
		return
	}

	utils.Data(ctx, iris.StatusOK, iris.Map{})
}
