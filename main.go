package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/routes"
	"github.com/gaspartrip/devcamper-api/services"
	"github.com/gaspartrip/devcamper-api/storage"
	"github.com/gaspartrip/devcamper-api/utils"
)

func main() {
	godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	store, err := storage.Connect(ctx, os.Getenv("MONGO_URI"), envOr("MONGO_DB", "devcamper"))
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer store.Disconnect(ctx)

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb := storage.NewRedis()
	geocoder := services.NewMapQuestGeocoder()
	files := newFileStore()

	api := routes.NewAPI(store, rdb, geocoder, files)
	app := newApp(api)

	port := envOr("PORT", "5000")
	log.Info().Str("port", port).Msg("server starting")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newApp(api *routes.API) *iris.Application {
	app := iris.New()
	app.Validator = validator.New()

	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Refresh-Token")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})
	app.AllowMethods(iris.MethodOptions)
	app.Use(iris.Compression)

	accessVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessVerifier.WithDefaultBlocklist()
	// the login cookie is as good as the Authorization header
	accessVerifier.Extractors = append(accessVerifier.Extractors, func(ctx iris.Context) string {
		return ctx.GetCookie("token")
	})
	authenticated := accessVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	refreshVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshVerifier.WithDefaultBlocklist()
	refreshVerifier.Extractors = append(refreshVerifier.Extractors, func(ctx iris.Context) string {
		var input struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := ctx.ReadJSON(&input); err != nil {
			return ""
		}
		return input.RefreshToken
	})
	refreshVerified := refreshVerifier.Verify(func() interface{} { return new(jwt.Claims) })

	publisherOrAdmin := utils.RequireRoles(models.RolePublisher, models.RoleAdmin)
	userOrAdmin := utils.RequireRoles(models.RoleUser, models.RoleAdmin)
	adminOnly := utils.RequireRoles(models.RoleAdmin)

	v1 := app.Party("/api/v1")

	auth := v1.Party("/auth")
	{
		auth.Post("/register", api.Register)
		auth.Post("/login", api.Login)
		auth.Get("/logout", api.Logout)
		auth.Post("/refresh", refreshVerified, api.RefreshToken)
		auth.Get("/me", authenticated, utils.ClaimsMiddleware, api.GetMe)
		auth.Put("/updatedetails", authenticated, utils.ClaimsMiddleware, api.UpdateDetails)
		auth.Put("/updatepassword", authenticated, utils.ClaimsMiddleware, api.UpdatePassword)
		auth.Post("/forgotpassword", api.ForgotPassword)
		auth.Put("/resetpassword/{resettoken}", api.ResetPassword)
	}

	bootcamps := v1.Party("/bootcamps")
	{
		bootcamps.Get("/", api.GetBootcamps)
		bootcamps.Post("/", authenticated, publisherOrAdmin, api.CreateBootcamp)
		bootcamps.Get("/radius/{zipcode}/{distance}", api.GetBootcampsInRadius)
		bootcamps.Get("/{id}", api.GetBootcamp)
		bootcamps.Put("/{id}", authenticated, publisherOrAdmin, api.UpdateBootcamp)
		bootcamps.Delete("/{id}", authenticated, publisherOrAdmin, api.DeleteBootcamp)
		bootcamps.Put("/{id}/photo", authenticated, publisherOrAdmin, api.BootcampPhotoUpload)
		bootcamps.Get("/{id}/courses", api.GetBootcampCourses)
		bootcamps.Post("/{id}/courses", authenticated, publisherOrAdmin, api.CreateCourse)
		bootcamps.Get("/{id}/reviews", api.GetBootcampReviews)
		bootcamps.Post("/{id}/reviews", authenticated, userOrAdmin, api.CreateReview)
	}

	courses := v1.Party("/courses")
	{
		courses.Get("/", api.GetCourses)
		courses.Get("/{id}", api.GetCourse)
		courses.Put("/{id}", authenticated, publisherOrAdmin, api.UpdateCourse)
		courses.Delete("/{id}", authenticated, publisherOrAdmin, api.DeleteCourse)
	}

	reviews := v1.Party("/reviews")
	{
		reviews.Get("/", api.GetReviews)
		reviews.Get("/{id}", api.GetReview)
		reviews.Put("/{id}", authenticated, userOrAdmin, api.UpdateReview)
		reviews.Delete("/{id}", authenticated, userOrAdmin, api.DeleteReview)
	}

	users := v1.Party("/users", authenticated, adminOnly)
	{
		users.Get("/", api.GetUsers)
		users.Post("/", api.CreateUser)
		users.Get("/{id}", api.GetUser)
		users.Put("/{id}", api.UpdateUser)
		users.Delete("/{id}", api.DeleteUser)
	}

	return app
}

func newFileStore() storage.FileStore {
	if cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloudName != "" {
		return storage.NewCloudinaryStore(
			cloudName,
			os.Getenv("CLOUDINARY_API_KEY"),
			os.Getenv("CLOUDINARY_API_SECRET"),
			os.Getenv("CLOUDINARY_FOLDER"),
		)
	}

	dir := envOr("FILE_UPLOAD_PATH", "./public/uploads")
	files, err := storage.NewLocalFileStore(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("upload directory unavailable")
	}
	return files
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
