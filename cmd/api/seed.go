package main

import (
	"github.com/shopspring/decimal"

	"storefront/pkg/catalog"
)

// demoCatalog is the sample catalog loaded when store.seed is on.
func demoCatalog() []catalog.Product {
	var (
		kitchen = catalog.Category{ID: 1, Slug: "kitchen", Label: "Kitchen"}
		garden  = catalog.Category{ID: 2, Slug: "garden", Label: "Garden"}
		office  = catalog.Category{ID: 3, Slug: "office", Label: "Office"}
	)
	product := func(id int64, slug, label, price string, qty int, cats ...catalog.Category) catalog.Product {
		return catalog.Product{
			ID:          id,
			Slug:        slug,
			Label:       label,
			Description: label + ", shipped within two working days.",
			UnitPrice:   decimal.RequireFromString(price),
			Quantity:    qty,
			Categories:  cats,
		}
	}
	return []catalog.Product{
		product(1, "cast-iron-skillet", "Cast iron skillet", "39.90", 12, kitchen),
		product(2, "chef-knife", "Chef knife", "64.00", 5, kitchen),
		product(3, "espresso-cups", "Set of espresso cups", "18.50", 0, kitchen),
		product(4, "pruning-shears", "Pruning shears", "22.75", 8, garden),
		product(5, "watering-can", "Galvanised watering can", "31.00", 3, garden),
		product(6, "seed-tray", "Seed tray", "6.20", 40, garden),
		product(7, "desk-lamp", "Desk lamp", "45.00", 7, office),
		product(8, "notebook", "Dotted notebook", "9.90", 25, office),
		product(9, "fountain-pen", "Fountain pen", "120.00", 1, office),
		product(10, "herb-planter", "Kitchen herb planter", "27.30", 6, kitchen, garden),
	}
}
