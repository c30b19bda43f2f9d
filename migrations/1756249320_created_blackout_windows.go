package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		resources, err := app.FindCollectionByNameOrId("resources")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("blackout_windows")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "resource",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  resources.Id,
				CascadeDelete: true,
			},
			&core.DateField{Name: "starts", Required: true},
			&core.DateField{Name: "ends", Required: true},
			&core.NumberField{Name: "units_affected", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.TextField{Name: "reason", Max: 500},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_blackouts_resource", false, "resource", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("blackout_windows")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
