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
		resources, err := app.FindCollectionByNameOrId("resources")
		if err != nil {
			return err
		}
		vehicles, err := app.FindCollectionByNameOrId("vehicles")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("bookings")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "consumer",
				Required:     true,
				MaxSelect:    1,
				CollectionId: users.Id,
			},
			&core.RelationField{
				Name:         "resource",
				Required:     true,
				MaxSelect:    1,
				CollectionId: resources.Id,
			},
			&core.RelationField{
				Name:         "vehicle",
				MaxSelect:    1,
				CollectionId: vehicles.Id,
			},
			&core.DateField{Name: "starts", Required: true},
			&core.DateField{Name: "ends", Required: true},
			&core.NumberField{Name: "units", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "total_cost", Required: true, Min: types.Pointer(0.0)},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "confirmed", "active", "completed", "cancelled"},
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "verified", "rejected"},
			},
			&core.TextField{Name: "code", Required: true, Min: 32, Max: 32},
			&core.TextField{Name: "pin", Required: true, Min: 4, Max: 4},
			&core.DateField{Name: "confirmed_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// The demand query filters on (resource, status) for every
		// reservation check.
		collection.AddIndex("idx_bookings_resource_status", false, "resource, status", "")
		collection.AddIndex("idx_bookings_consumer", false, "consumer", "")
		// Codes are unique among live bookings only; completed and
		// cancelled ones release theirs for reuse.
		collection.AddIndex("idx_bookings_live_code", true, "code", "status NOT IN ('completed', 'cancelled')")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
