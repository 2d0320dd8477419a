package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"travel-search/internal/database"
)

type demoItem struct {
	ID     string
	Type   string
	Fields map[string]any
}

var demoCatalog = []demoItem{
	{ID: "F1", Type: "flights", Fields: map[string]any{"airline": "IndiGo", "flightNumber": "6E-201", "from": "Delhi", "to": "Mumbai", "departureTime": "06:00", "arrivalTime": "08:10", "price": 4200, "currency": "INR", "seatsAvailable": 9, "cabin": "ECONOMY"}},
	{ID: "F2", Type: "flights", Fields: map[string]any{"airline": "Vistara", "flightNumber": "UK-995", "from": "Mumbai", "to": "Bengaluru", "departureTime": "12:15", "arrivalTime": "14:00", "price": 5100, "currency": "INR", "seatsAvailable": 4, "cabin": "ECONOMY"}},
	{ID: "F3", Type: "flights", Fields: map[string]any{"airline": "Air India", "flightNumber": "AI-440", "from": "Delhi", "to": "Goa", "departureTime": "18:20", "arrivalTime": "21:05", "price": 6300, "currency": "INR", "seatsAvailable": 12, "cabin": "ECONOMY"}},
	{ID: "H1", Type: "hotels", Fields: map[string]any{"name": "Grand Hotel", "city": "Mumbai", "location": "12 Marine Drive", "country": "IN", "price": 3500, "currency": "INR", "rating": 4, "amenities": []string{"WiFi", "Pool", "Gym"}, "roomsAvailable": 3}},
	{ID: "H2", Type: "hotels", Fields: map[string]any{"name": "Ocean View", "city": "Goa", "location": "5 Calangute Beach Road", "country": "IN", "price": 4200, "currency": "INR", "rating": 5, "amenities": []string{"WiFi", "Spa", "Room Service"}, "roomsAvailable": 2}},
	{ID: "B1", Type: "buses", Fields: map[string]any{"operator": "VRL Travels", "busNumber": "4821", "busType": "AC Sleeper", "from": "Bengaluru", "to": "Goa", "departureTime": "22:00", "arrivalTime": "08:30", "price": 1450, "currency": "INR", "seatsAvailable": 18, "amenities": []string{"WiFi", "AC", "Blanket"}}},
	{ID: "B2", Type: "buses", Fields: map[string]any{"operator": "Neeta Travels", "busNumber": "1177", "busType": "Volvo Multi-Axle", "from": "Mumbai", "to": "Pune", "departureTime": "08:00", "arrivalTime": "11:30", "price": 900, "currency": "INR", "seatsAvailable": 22, "amenities": []string{"AC", "Water"}}},
}

// CatalogSeeder inserts a small fixed catalog; existing ids are left as is.
type CatalogSeeder struct{}

func (CatalogSeeder) Name() string { return "catalog" }

func (CatalogSeeder) Run(ctx context.Context, db database.DB) error {
	if err := requireColumns(ctx, db, "catalog_items", "id", "type", "fields", "created_at", "updated_at"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, it := range demoCatalog {
		b, err := json.Marshal(it.Fields)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO catalog_items (id, type, fields) VALUES ($1, $2, $3) ON CONFLICT (type, id) DO NOTHING`,
			it.ID, it.Type, b,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// requireColumns fails when table lacks any of columns, which means the
// migrations have not run.
func requireColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	var missing []string
	for _, col := range columns {
		var ok bool
		err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2)`,
			table, col,
		).Scan(&ok)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema mismatch: %s is missing %v", table, missing)
	}
	return nil
}
