// Seeder for development data: -import loads the JSON fixtures under _data/,
// -delete wipes the collections.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gaspartrip/devcamper-api/storage"
)

// fixture fields holding ObjectID hex strings.
var idFields = map[string]bool{"_id": true, "bootcamp": true, "user": true}

func main() {
	doImport := flag.Bool("import", false, "import the fixture data")
	doDelete := flag.Bool("delete", false, "delete all data")
	flag.Parse()

	if *doImport == *doDelete {
		log.Fatal("use exactly one of -import or -delete")
	}

	godotenv.Load()
	ctx := context.Background()

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "devcamper"
	}
	store, err := storage.Connect(ctx, os.Getenv("MONGO_URI"), dbName)
	if err != nil {
		log.Fatalf("connecting: %v", err)
	}
	defer store.Disconnect(ctx)

	collections := map[string]*mongo.Collection{
		"users":     store.Users(),
		"bootcamps": store.Bootcamps(),
		"courses":   store.Courses(),
		"reviews":   store.Reviews(),
	}

	if *doDelete {
		for name, coll := range collections {
			if _, err := coll.DeleteMany(ctx, map[string]interface{}{}); err != nil {
				log.Fatalf("deleting %s: %v", name, err)
			}
		}
		fmt.Println("Data destroyed")
		return
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("creating indexes: %v", err)
	}
	for name, coll := range collections {
		docs, err := loadFixture("_data/" + name + ".json")
		if err != nil {
			log.Fatalf("loading %s: %v", name, err)
		}
		if len(docs) == 0 {
			continue
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			log.Fatalf("importing %s: %v", name, err)
		}
		fmt.Printf("Imported %d %s\n", len(docs), name)
	}
}

func loadFixture(path string) ([]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		for field := range idFields {
			if hexID, ok := record[field].(string); ok {
				id, err := primitive.ObjectIDFromHex(hexID)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", field, err)
				}
				record[field] = id
			}
		}
		docs = append(docs, record)
	}
	return docs, nil
}
