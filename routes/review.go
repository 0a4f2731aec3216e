package routes

import (
	"time"

	"github.com/kataras/iris/v12"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/query"
	"github.com/gaspartrip/devcamper-api/utils"
)

type CreateReviewInput struct {
	Title  string `json:"title" validate:"required,max=100"`
	Text   string `json:"text" validate:"required,max=500"`
	Rating int    `json:"rating" validate:"required,min=1,max=10"`
}

type UpdateReviewInput struct {
	Title  string `json:"title" validate:"omitempty,max=100"`
	Text   string `json:"text" validate:"omitempty,max=500"`
	Rating *int   `json:"rating" validate:"omitempty,min=1,max=10"`
}

// GetReviews lists all reviews through the advanced query builder.
func (api *API) GetReviews(ctx iris.Context) {
	var reviews []models.Review
	meta, err := query.Find(ctx.Request().Context(), api.Store.Reviews(),
		ctx.Request().URL.Query(), &reviews)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	if err := api.populateReviewBootcamps(ctx, reviews); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if reviews == nil {
		reviews = []models.Review{}
	}
	writePage(ctx, meta, len(reviews), reviews)
}

// GetBootcampReviews lists the reviews of one bootcamp.
func (api *API) GetBootcampReviews(ctx iris.Context) {
	bootcampID, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	cursor, err := api.Store.Reviews().Find(reqCtx, bson.M{"bootcamp": bootcampID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	reviews := []models.Review{}
	if err := cursor.All(reqCtx, &reviews); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Collection(ctx, len(reviews), reviews)
}

// GetReview returns a single review with its bootcamp summary.
func (api *API) GetReview(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var review models.Review
	if err := api.Store.Reviews().FindOne(ctx.Request().Context(), bson.M{"_id": id}).Decode(&review); err != nil {
		utils.Fail(ctx, err)
		return
	}

	reviews := []models.Review{review}
	if err := api.populateReviewBootcamps(ctx, reviews); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, reviews[0])
}

// CreateReview adds a review for a bootcamp. The unique (bootcamp, user) index
// rejects a second review by the same user; the recompute refreshes the
// bootcamp's average rating.
func (api *API) CreateReview(ctx iris.Context) {
	bootcampID, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reqCtx := ctx.Request().Context()
	if err := api.Store.Bootcamps().FindOne(reqCtx, bson.M{"_id": bootcampID}).Err(); err != nil {
		utils.Fail(ctx, err)
		return
	}

	userID, _ := utils.CurrentUserID(ctx)
	review := models.Review{
		Title:     input.Title,
		Text:      input.Text,
		Rating:    input.Rating,
		Bootcamp:  bootcampID,
		User:      userID,
		CreatedAt: time.Now().UTC(),
	}

	res, err := api.Store.Reviews().InsertOne(reqCtx, &review)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	review.ID = res.InsertedID.(primitive.ObjectID)

	api.recomputeAverageRating(ctx, bootcampID)
	utils.Data(ctx, iris.StatusCreated, review)
}

// UpdateReview applies a partial update after the ownership check and
// refreshes the average rating.
func (api *API) UpdateReview(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input UpdateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	update := reviewUpdate(input)
	if len(update) == 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a field to update"))
		return
	}

	reqCtx := ctx.Request().Context()
	var existing models.Review
	if err := api.Store.Reviews().FindOne(reqCtx, bson.M{"_id": id}).Decode(&existing); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, existing.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("update", "review", ctx)))
		return
	}

	var review models.Review
	err := api.Store.Reviews().FindOneAndUpdate(reqCtx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&review)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.recomputeAverageRating(ctx, review.Bootcamp)
	utils.Data(ctx, iris.StatusOK, review)
}

// DeleteReview removes a review and refreshes the bootcamp's average rating.
func (api *API) DeleteReview(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	var review models.Review
	if err := api.Store.Reviews().FindOne(reqCtx, bson.M{"_id": id}).Decode(&review); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, review.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("delete", "review", ctx)))
		return
	}

	if _, err := api.Store.Reviews().DeleteOne(reqCtx, bson.M{"_id": id}); err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.recomputeAverageRating(ctx, review.Bootcamp)
	utils.Data(ctx, iris.StatusOK, iris.Map{})
}

// reviewUpdate builds the partial $set document. Empty when the body carried
// no updatable field.
func reviewUpdate(input UpdateReviewInput) bson.M {
	update := bson.M{}
	if input.Title != "" {
		update["title"] = input.Title
	}
	if input.Text != "" {
		update["text"] = input.Text
	}
	if input.Rating != nil {
		update["rating"] = *input.Rating
	}
	return update
}

func (api *API) recomputeAverageRating(ctx iris.Context, bootcampID primitive.ObjectID) {
	if err := api.Store.RecomputeAverageRating(ctx.Request().Context(), bootcampID); err != nil {
		log.Error().Err(err).Str("bootcamp", bootcampID.Hex()).Msg("average rating recompute failed")
	}
}

func (api *API) populateReviewBootcamps(ctx iris.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(reviews))
	for i, r := range reviews {
		ids[i] = r.Bootcamp
	}

	reqCtx := ctx.Request().Context()
	cursor, err := api.Store.Bootcamps().Find(reqCtx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "description": 1}))
	if err != nil {
		return err
	}

	var summaries []models.BootcampSummary
	if err := cursor.All(reqCtx, &summaries); err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]models.BootcampSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}
	for i := range reviews {
		if s, ok := byID[reviews[i].Bootcamp]; ok {
			summary := s
			reviews[i].BootcampDetail = &summary
		}
	}
	return nil
}
