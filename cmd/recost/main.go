// Command recost audits order financial totals against their line items
// and repairs any drift. Totals are a pure function of the lines and VAT
// rate; drift means some code path mutated them independently and this
// tool is the safety net.
//
// Runs dry by default; pass -apply to persist corrections.
package main

import (
	"flag"
	"log"

	"go-fulfillment-ws/internal/fulfillment"
	"go-fulfillment-ws/internal/model"
	"go-fulfillment-ws/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	apply := flag.Bool("apply", false, "persist corrected totals instead of only reporting drift")
	flag.Parse()

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	// 2. Setup Database
	db := database.ConnectDB()

	// 3. Walk orders
	var orders []model.Order
	if err := db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_line_items.line_index ASC")
	}).Find(&orders).Error; err != nil {
		log.Fatalf("Failed to load orders: %v", err)
	}

	drifted := 0
	for i := range orders {
		order := orders[i]
		before := order

		fulfillment.RecomputeTotals(&order)

		if order.Subtotal.Equal(before.Subtotal) &&
			order.VATAmount.Equal(before.VATAmount) &&
			order.TotalAmount.Equal(before.TotalAmount) {
			continue
		}

		drifted++
		log.Printf("Order %s: subtotal %s -> %s, vat %s -> %s, total %s -> %s",
			order.Number,
			before.Subtotal, order.Subtotal,
			before.VATAmount, order.VATAmount,
			before.TotalAmount, order.TotalAmount)

		if !*apply {
			continue
		}

		if err := db.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"subtotal":     order.Subtotal,
				"vat_amount":   order.VATAmount,
				"total_amount": order.TotalAmount,
				"updated_by":   "recost",
			}).Error; err != nil {
			log.Fatalf("Failed to repair order %s: %v", order.Number, err)
		}
	}

	if drifted == 0 {
		log.Printf("Checked %d order(s), totals are consistent", len(orders))
		return
	}
	if *apply {
		log.Printf("Repaired %d of %d order(s)", drifted, len(orders))
	} else {
		log.Printf("Found drift on %d of %d order(s); re-run with -apply to repair", drifted, len(orders))
	}
}
