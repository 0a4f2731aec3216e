package utils

import (
	"fmt"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gaspartrip/devcamper-api/models"
)

// ClaimsMiddleware copies the verified token claims into the request values so
// handlers never touch the jwt package directly.
func ClaimsMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("userRole", claims.Role)
	ctx.Next()
}

// RequireRoles enforces a fixed role allow-list for the route. The identity is
// already verified at this point; a role outside the list is Forbidden.
func RequireRoles(roles ...string) iris.Handler {
	return func(ctx iris.Context) {
		claims := jwt.Get(ctx).(*AccessToken)
		for _, role := range roles {
			if claims.Role == role {
				ctx.Values().Set("userID", claims.ID)
				ctx.Values().Set("userRole", claims.Role)
				ctx.Next()
				return
			}
		}
		Fail(ctx, Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", claims.Role)))
	}
}

// CurrentUserID returns the acting user's id from the request values.
func CurrentUserID(ctx iris.Context) (primitive.ObjectID, bool) {
	raw, ok := ctx.Values().Get("userID").(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// IsOwnerOrAdmin implements the ownership check: the acting identity must be
// the resource's recorded owner or hold the admin role.
func IsOwnerOrAdmin(ctx iris.Context, owner primitive.ObjectID) bool {
	if role, _ := ctx.Values().Get("userRole").(string); role == models.RoleAdmin {
		return true
	}
	id, ok := CurrentUserID(ctx)
	return ok && id == owner
}

// ParamObjectID parses a route parameter as an ObjectID. A malformed id is
// reported the same as a missing resource.
func ParamObjectID(ctx iris.Context, name string) (primitive.ObjectID, *APIError) {
	id, err := primitive.ObjectIDFromHex(ctx.Params().Get(name))
	if err != nil {
		return primitive.NilObjectID, NotFound()
	}
	return id, nil
}
