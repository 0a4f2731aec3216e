package routes

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/query"
	"github.com/gaspartrip/devcamper-api/services"
	"github.com/gaspartrip/devcamper-api/utils"
)

const defaultMaxFileUpload = 1_000_000 // bytes

type CreateBootcampInput struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"required"`
	Careers       []string `json:"careers" validate:"required,min=1"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGi      bool     `json:"acceptGi"`
}

type UpdateBootcampInput struct {
	Name          string   `json:"name" validate:"omitempty,max=50"`
	Description   string   `json:"description" validate:"omitempty,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address"`
	Careers       []string `json:"careers"`
	Housing       *bool    `json:"housing"`
	JobAssistance *bool    `json:"jobAssistance"`
	JobGuarantee  *bool    `json:"jobGuarantee"`
	AcceptGi      *bool    `json:"acceptGi"`
}

// GetBootcamps lists bootcamps through the advanced query builder, with each
// page's course summaries embedded.
func (api *API) GetBootcamps(ctx iris.Context) {
	var bootcamps []models.Bootcamp
	meta, err := query.Find(ctx.Request().Context(), api.Store.Bootcamps(),
		ctx.Request().URL.Query(), &bootcamps)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	if err := api.populateCourses(ctx, bootcamps); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if bootcamps == nil {
		bootcamps = []models.Bootcamp{}
	}
	writePage(ctx, meta, len(bootcamps), bootcamps)
}

// GetBootcamp returns a single bootcamp by id.
func (api *API) GetBootcamp(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var bootcamp models.Bootcamp
	if err := api.Store.Bootcamps().FindOne(ctx.Request().Context(), bson.M{"_id": id}).Decode(&bootcamp); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, bootcamp)
}

// CreateBootcamp geocodes the address, stamps the owner, and enforces the
// one-published-bootcamp rule for non-admin publishers.
func (api *API) CreateBootcamp(ctx iris.Context) {
	var input CreateBootcampInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if apiErr := validateCareers(input.Careers); apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	userID, _ := utils.CurrentUserID(ctx)
	role, _ := ctx.Values().Get("userRole").(string)
	reqCtx := ctx.Request().Context()

	if role != models.RoleAdmin {
		published, err := api.Store.Bootcamps().CountDocuments(reqCtx, bson.M{"user": userID})
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		if published > 0 {
			utils.Fail(ctx, utils.BadRequest(
				fmt.Sprintf("The user with ID %s has already published a bootcamp", userID.Hex())))
			return
		}
	}

	location, err := api.Geocoder.Geocode(reqCtx, input.Address)
	if err != nil {
		log.Error().Err(err).Str("address", input.Address).Msg("geocoding failed")
		utils.Fail(ctx, utils.ServerError())
		return
	}

	bootcamp := models.Bootcamp{
		Name:          input.Name,
		Slug:          utils.Slugify(input.Name),
		Description:   input.Description,
		Website:       input.Website,
		Phone:         input.Phone,
		Email:         input.Email,
		Location:      *location,
		Careers:       input.Careers,
		Housing:       input.Housing,
		JobAssistance: input.JobAssistance,
		JobGuarantee:  input.JobGuarantee,
		AcceptGi:      input.AcceptGi,
		User:          userID,
		CreatedAt:     time.Now().UTC(),
	}

	res, err := api.Store.Bootcamps().InsertOne(reqCtx, &bootcamp)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	bootcamp.ID = res.InsertedID.(primitive.ObjectID)

	utils.Data(ctx, iris.StatusCreated, bootcamp)
}

// UpdateBootcamp applies a partial update after the ownership check.
func (api *API) UpdateBootcamp(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	var input UpdateBootcampInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.Careers != nil {
		if apiErr := validateCareers(input.Careers); apiErr != nil {
			utils.Fail(ctx, apiErr)
			return
		}
	}

	reqCtx := ctx.Request().Context()
	var existing models.Bootcamp
	if err := api.Store.Bootcamps().FindOne(reqCtx, bson.M{"_id": id}).Decode(&existing); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, existing.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("update", "bootcamp", ctx)))
		return
	}

	update := bson.M{}
	if input.Name != "" {
		update["name"] = input.Name
		update["slug"] = utils.Slugify(input.Name)
	}
	if input.Description != "" {
		update["description"] = input.Description
	}
	if input.Website != "" {
		update["website"] = input.Website
	}
	if input.Phone != "" {
		update["phone"] = input.Phone
	}
	if input.Email != "" {
		update["email"] = input.Email
	}
	if input.Careers != nil {
		update["careers"] = input.Careers
	}
	if input.Housing != nil {
		update["housing"] = *input.Housing
	}
	if input.JobAssistance != nil {
		update["jobAssistance"] = *input.JobAssistance
	}
	if input.JobGuarantee != nil {
		update["jobGuarantee"] = *input.JobGuarantee
	}
	if input.AcceptGi != nil {
		update["acceptGi"] = *input.AcceptGi
	}
	if input.Address != "" {
		location, err := api.Geocoder.Geocode(reqCtx, input.Address)
		if err != nil {
			log.Error().Err(err).Str("address", input.Address).Msg("geocoding failed")
			utils.Fail(ctx, utils.ServerError())
			return
		}
		update["location"] = location
	}
	if len(update) == 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a field to update"))
		return
	}

	var bootcamp models.Bootcamp
	err := api.Store.Bootcamps().FindOneAndUpdate(reqCtx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&bootcamp)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, bootcamp)
}

// DeleteBootcamp removes a bootcamp and cascades to its courses and reviews so
// the nested routes never serve orphans.
func (api *API) DeleteBootcamp(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	var bootcamp models.Bootcamp
	if err := api.Store.Bootcamps().FindOne(reqCtx, bson.M{"_id": id}).Decode(&bootcamp); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, bootcamp.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("delete", "bootcamp", ctx)))
		return
	}

	if _, err := api.Store.Courses().DeleteMany(reqCtx, bson.M{"bootcamp": id}); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if _, err := api.Store.Reviews().DeleteMany(reqCtx, bson.M{"bootcamp": id}); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if _, err := api.Store.Bootcamps().DeleteOne(reqCtx, bson.M{"_id": id}); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, iris.Map{})
}

// GetBootcampsInRadius finds bootcamps within distance miles of a zipcode's
// coordinates.
func (api *API) GetBootcampsInRadius(ctx iris.Context) {
	zipcode := ctx.Params().Get("zipcode")
	distance, err := strconv.ParseFloat(ctx.Params().Get("distance"), 64)
	if err != nil || distance <= 0 {
		utils.Fail(ctx, utils.BadRequest("Please provide a valid distance"))
		return
	}

	reqCtx := ctx.Request().Context()
	location, err := api.Geocoder.Geocode(reqCtx, zipcode)
	if err != nil {
		log.Error().Err(err).Str("zipcode", zipcode).Msg("geocoding failed")
		utils.Fail(ctx, utils.ServerError())
		return
	}

	radius := distance / services.EarthRadiusMiles
	filter := bson.M{"location": bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{location.Coordinates, radius},
		},
	}}

	cursor, err := api.Store.Bootcamps().Find(reqCtx, filter)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	bootcamps := []models.Bootcamp{}
	if err := cursor.All(reqCtx, &bootcamps); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Collection(ctx, len(bootcamps), bootcamps)
}

// BootcampPhotoUpload validates and stores a bootcamp photo, persisting only
// the reference the file store returns.
func (api *API) BootcampPhotoUpload(ctx iris.Context) {
	id, apiErr := utils.ParamObjectID(ctx, "id")
	if apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	reqCtx := ctx.Request().Context()
	var bootcamp models.Bootcamp
	if err := api.Store.Bootcamps().FindOne(reqCtx, bson.M{"_id": id}).Decode(&bootcamp); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if !utils.IsOwnerOrAdmin(ctx, bootcamp.User) {
		utils.Fail(ctx, utils.Forbidden(notAuthorizedFor("update", "bootcamp", ctx)))
		return
	}

	file, header, err := ctx.FormFile("file")
	if err != nil {
		utils.Fail(ctx, utils.BadRequest("Please upload a file"))
		return
	}
	defer file.Close()

	if apiErr := validatePhoto(header, maxFileUpload()); apiErr != nil {
		utils.Fail(ctx, apiErr)
		return
	}

	name := fmt.Sprintf("photo_%s%s", id.Hex(), filepath.Ext(header.Filename))
	stored, err := api.Files.Save(reqCtx, name, file)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("photo upload failed")
		utils.Fail(ctx, utils.ServerError())
		return
	}

	if _, err := api.Store.Bootcamps().UpdateByID(reqCtx, id,
		bson.M{"$set": bson.M{"photo": stored}}); err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Data(ctx, iris.StatusOK, stored)
}

// validatePhoto enforces the image MIME prefix and the configured size
// ceiling.
func validatePhoto(header *multipart.FileHeader, maxBytes int64) *utils.APIError {
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image") {
		return utils.BadRequest("Please upload an image file")
	}
	if header.Size > maxBytes {
		return utils.BadRequest(fmt.Sprintf("Please upload an image less than %d bytes", maxBytes))
	}
	return nil
}

func maxFileUpload() int64 {
	if raw := os.Getenv("MAX_FILE_UPLOAD"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultMaxFileUpload
}

func validateCareers(careers []string) *utils.APIError {
	for _, career := range careers {
		valid := false
		for _, known := range models.ValidCareers {
			if career == known {
				valid = true
				break
			}
		}
		if !valid {
			return utils.BadRequest(fmt.Sprintf("%s is not a valid career", career))
		}
	}
	return nil
}

// populateCourses embeds a projected course summary into each bootcamp of the
// page.
func (api *API) populateCourses(ctx iris.Context, bootcamps []models.Bootcamp) error {
	if len(bootcamps) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(bootcamps))
	for i, b := range bootcamps {
		ids[i] = b.ID
	}

	reqCtx := ctx.Request().Context()
	cursor, err := api.Store.Courses().Find(reqCtx,
		bson.M{"bootcamp": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"title": 1, "description": 1, "tuition": 1, "bootcamp": 1}))
	if err != nil {
		return err
	}

	var summaries []models.CourseSummary
	if err := cursor.All(reqCtx, &summaries); err != nil {
		return err
	}

	byBootcamp := make(map[primitive.ObjectID][]models.CourseSummary, len(bootcamps))
	for _, s := range summaries {
		byBootcamp[s.Bootcamp] = append(byBootcamp[s.Bootcamp], s)
	}
	for i := range bootcamps {
		bootcamps[i].Courses = byBootcamp[bootcamps[i].ID]
	}
	return nil
}

// notAuthorizedFor builds the ownership-failure message.
func notAuthorizedFor(action, resource string, ctx iris.Context) string {
	userID, _ := utils.CurrentUserID(ctx)
	return fmt.Sprintf("User %s is not authorized to %s this %s", userID.Hex(), action, resource)
}
