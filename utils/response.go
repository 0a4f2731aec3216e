package utils

import (
	"github.com/kataras/iris/v12"
)

// Data writes the single-resource success envelope.
func Data(ctx iris.Context, status int, data interface{}) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": true, "data": data})
}

// Collection writes the success envelope for listings that bypass the
// advanced query builder (nested child listings).
func Collection(ctx iris.Context, count int, data interface{}) {
	ctx.JSON(iris.Map{"success": true, "count": count, "data": data})
}
