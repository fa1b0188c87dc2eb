package store

import "github.com/dmitrijs2005/tillkeeper/internal/agent/models"

// SampleData returns the static demo dataset the terminal falls back to
// when neither the backend nor a cached snapshot is available. The shape
// matches the production collections.
func SampleData() map[string][]models.Record {
	return map[string][]models.Record{
		"menu_items": {
			{"id": "m1", "name": "Margherita", "category": "pizza", "price": 9.5, "available": true},
			{"id": "m2", "name": "Pepperoni", "category": "pizza", "price": 11.0, "available": true},
			{"id": "m3", "name": "Caesar Salad", "category": "salads", "price": 7.0, "available": true},
			{"id": "m4", "name": "Tiramisu", "category": "desserts", "price": 5.5, "available": true},
			{"id": "m5", "name": "Espresso", "category": "drinks", "price": 2.0, "available": true},
		},
		"tables": {
			{"id": "t1", "number": 1.0, "seats": 2.0, "occupied": false},
			{"id": "t2", "number": 2.0, "seats": 4.0, "occupied": true},
			{"id": "t3", "number": 3.0, "seats": 6.0, "occupied": false},
		},
		"orders": {
			{
				"id": "o1", "table_id": "t2", "status": "open", "total": 20.5,
				"items": []any{
					map[string]any{"menu_item_id": "m1", "qty": 1.0},
					map[string]any{"menu_item_id": "m2", "qty": 1.0},
				},
			},
		},
		"staff": {
			{"id": "s1", "login": "admin", "role": "admin"},
			{"id": "s2", "login": "cashier", "role": "cashier"},
		},
	}
}
