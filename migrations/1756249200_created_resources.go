package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("resources")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "owner",
				Required:     true,
				MaxSelect:    1,
				CollectionId: users.Id,
			},
			&core.TextField{Name: "name", Required: true, Max: 200},
			&core.NumberField{Name: "total_units", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "lat"},
			&core.NumberField{Name: "lng"},
			&core.NumberField{Name: "price_per_hour", Required: true, Min: types.Pointer(0.0)},
			&core.BoolField{Name: "active"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_resources_owner", false, "owner", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("resources")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
