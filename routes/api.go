package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"

	"github.com/gaspartrip/devcamper-api/query"
	"github.com/gaspartrip/devcamper-api/services"
	"github.com/gaspartrip/devcamper-api/storage"
)

// API carries the collaborators every handler needs. Constructed once in main
// and injected, so tests can swap in fakes.
type API struct {
	Store    *storage.Store
	Redis    *redis.Client
	Geocoder services.Geocoder
	Files    storage.FileStore
}

func NewAPI(store *storage.Store, rdb *redis.Client, geocoder services.Geocoder, files storage.FileStore) *API {
	return &API{Store: store, Redis: rdb, Geocoder: geocoder, Files: files}
}

// writePage writes the paginated listing envelope.
func writePage(ctx iris.Context, meta *query.Meta, count int, data interface{}) {
	ctx.JSON(iris.Map{
		"success":    true,
		"count":      count,
		"pagination": meta.Pagination,
		"data":       data,
	})
}
