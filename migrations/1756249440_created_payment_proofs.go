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
		bookings, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("payment_proofs")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "booking",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  bookings.Id,
				CascadeDelete: true,
			},
			&core.TextField{Name: "image_ref", Required: true, Max: 500},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "verified", "rejected"},
			},
			&core.NumberField{Name: "attempts", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.RelationField{
				Name:         "verified_by",
				MaxSelect:    1,
				CollectionId: users.Id,
			},
			&core.DateField{Name: "verified_at"},
			&core.TextField{Name: "notes", Max: 1000},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// One proof row per booking; rejected slips are replaced in place.
		collection.AddIndex("idx_proofs_booking", true, "booking", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payment_proofs")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
