package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("vehicles")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "owner",
				Required:     true,
				MaxSelect:    1,
				CollectionId: users.Id,
			},
			&core.TextField{Name: "plate", Required: true, Max: 20},
			&core.TextField{Name: "model", Max: 100},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_vehicles_owner_plate", true, "owner, plate", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("vehicles")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
