package routes

import (
	"fmt"
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

type CreateCourseInput struct {
	Title                string  `json:"title" validate:"required,max=50"`
	Description          string  `json:"description" validate:"required,max=500"`
	Weeks                int     `json:"weeks" validate:"required,min=1"`
	Tuition              float64 `json:"tuition" validate:"gte=0"`
	MinimumSkill         string  `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool    `json:"scholarshipAvailable"`
}

type UpdateCourseInput struct {
	Title                string   `json:"title" validate:"omitempty,max=50"`
	Description          string   `json:"description" validate:"omitempty,max=500"`
	Weeks                *int     `json:"weeks" validate:"omitempty,min=1"`
	Tuition              *float64 `json:"tuition" validate:"omitempty,gte=0"`
	MinimumSkill         string   `json:"minimumSkill" validate:"omitempty,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool    `json:"scholarshipAvailable"`
}

// GetCourses lists all courses through the advanced query builder.
func (api *API) GetCourses(ctx iris.Context) {
	var courses []models.Course
	meta, err := query.Find(ctx.Request().Context(), api.Store.Courses(),
		ctx.Request().URL.Query(), &courses)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	if err := api.populateCourseBootcamps(ctx, courses); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if courses == nil {
		courses = []models.Course{}
	}
	writePage(ctx, meta, len(courses), courses)
}

// GetBootcampCourses lists the courses of one bootcamp.
func (api *API) GetBootcampCourses(ctx iris.Context) {
	bootcampID, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	cursor, err := api.Store.Courses().Find(reqCtx, bson.M{"bootcamp": bootcampID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	courses := []models.Course{}
	if err := cursor.All(reqCtx, &courses); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := api.populateCourseBootcamps(ctx, courses); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Collection(ctx, len(courses), courses)
}

// GetCourse returns a single course with its bootcamp summary.
func (api *API) GetCourse(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var course models.Course
	if err := api.Store.Courses().FindOne(ctx.Request().Context(), bson.M{"_id": id}).Decode(&course); err != nil {
		utils.Fail(ctx, err)
		return
	}

	courses := []models.Course{course}
	if err := api.populateCourseBootcamps(ctx, courses); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, courses[0])
}

// CreateCourse adds a course to a bootcamp the caller owns and refreshes the
// bootcamp's average cost.
func (api *API) CreateCourse(ctx iris.Context) {
	bootcampID, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input CreateCourseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reqCtx := ctx.Request().Context()
	var bootcamp models.Bootcamp
	if err := api.Store.Bootcamps().FindOne(reqCtx, bson.M{"_id": bootcampID}).Decode(&bootcamp); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, bootcamp.User) {
		userID, _ := utils.CurrentUserID(ctx)
		utils.Fail(ctx, utils.Forbidden(
			fmt.Sprintf("User %s is not authorized to add a course to bootcamp %s", userID.Hex(), bootcampID.Hex())))
		return
	}

	userID, _ := utils.CurrentUserID(ctx)
	course := models.Course{
		Title:                input.Title,
		Description:          input.Description,
		Weeks:                input.Weeks,
		Tuition:              input.Tuition,
		MinimumSkill:         input.MinimumSkill,
		ScholarshipAvailable: input.ScholarshipAvailable,
		Bootcamp:             bootcampID,
		User:                 userID,
		CreatedAt:            time.Now().UTC(),
	}

	res, err := api.Store.Courses().InsertOne(reqCtx, &course)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	course.ID = res.InsertedID.(primitive.ObjectID)

	api.recomputeAverageCost(ctx, bootcampID)
	utils.Data(ctx, iris.StatusCreated, course)
}

// UpdateCourse applies a partial update after the ownership check and
// refreshes the average cost since the tuition may have changed.
func (api *API) UpdateCourse(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input UpdateCourseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	update := courseUpdate(input)
	if len(update) == 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a field to update"))
		return
	}

	reqCtx := ctx.Request().Context()
	var existing models.Course
	if err := api.Store.Courses().FindOne(reqCtx, bson.M{"_id": id}).Decode(&existing); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, existing.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("update", "course", ctx)))
		return
	}

	var course models.Course
	err := api.Store.Courses().FindOneAndUpdate(reqCtx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&course)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.recomputeAverageCost(ctx, course.Bootcamp)
	utils.Data(ctx, iris.StatusOK, course)
}

// DeleteCourse removes a course and refreshes the bootcamp's average cost.
func (api *API) DeleteCourse(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	var course models.Course
	if err := api.Store.Courses().FindOne(reqCtx, bson.M{"_id": id}).Decode(&course); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, course.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("delete", "course", ctx)))
		return
	}

	if _, err := api.Store.Courses().DeleteOne(reqCtx, bson.M{"_id": id}); err != nil {
		utils.Fail(ctx, err)
		return
	}

	api.recomputeAverageCost(ctx, course.Bootcamp)
	utils.Data(ctx, iris.StatusOK, iris.Map{})
}

// courseUpdate builds the partial $set document. Empty when the body carried
// no updatable field.
func courseUpdate(input UpdateCourseInput) bson.M {
	update := bson.M{}
	if input.Title != "" {
		update["title"] = input.Title
	}
	if input.Description != "" {
		update["description"] = input.Description
	}
	if input.Weeks != nil {
		update["weeks"] = *input.Weeks
	}
	if input.Tuition != nil {
		update["tuition"] = *input.Tuition
	}
	if input.MinimumSkill != "" {
		update["minimumSkill"] = input.MinimumSkill
	}
	if input.ScholarshipAvailable != nil {
		update["scholarshipAvailable"] = *input.ScholarshipAvailable
	}
	return update
}

// recomputeAverageCost runs the rollup right after the write; failures are
// logged, never surfaced, since the triggering write already succeeded.
func (api *API) recomputeAverageCost(ctx iris.Context, bootcampID primitive.ObjectID) {
	if err := api.Store.RecomputeAverageCost(ctx.Request().Context(), bootcampID); err != nil {
		log.Error().Err(err).Str("bootcamp", bootcampID.Hex()).Msg("average cost recompute failed")
	}
}

// populateCourseBootcamps embeds the bootcamp summary into each course.
func (api *API) populateCourseBootcamps(ctx iris.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(courses))
	for i, c := range courses {
		ids[i] = c.Bootcamp
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
	for i := range courses {
		if s, ok := byID[courses[i].Bootcamp]; ok {
			summary := s
			courses[i].BootcampDetail = &summary
		}
	}
	return nil
}
