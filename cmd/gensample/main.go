package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Generates synthetic source extracts for local development: a retail sales
// extract with injected quality defects, plus the users, transactions and
// activity extracts the churn pipeline consumes.

var (
	stores    = []string{"NAIVAS WESTLANDS", "NAIVAS KILIMANI", "QUICKMART NGONG RD", "CARREFOUR TWO RIVERS", "CHANDARANA YAYA"}
	suppliers = []string{"BIDCO AFRICA", "KAPA OIL REFINERIES", "PWANI OIL", "UNILEVER KENYA", "MENENGAI OIL"}
	sections  = []string{"EDIBLE OILS", "HOME CARE", "PERSONAL CARE"}
	regions   = []string{"Lagos", "Abuja", "Kano", "Port Harcourt", "Ibadan"}
	channels  = []string{"organic", "referral", "paid_ads", "social"}
	events    = []string{"page_view", "page_view", "page_view", "add_to_cart", "purchase"}
	devices   = []string{"android", "ios", "web"}
)

type item struct {
	code     string
	desc     string
	supplier string
	section  string
	rrp      float64
}

func main() {
	outDir := flag.String("out", "data/datasets", "output directory for generated extracts")
	itemCount := flag.Int("items", 40, "distinct retail items")
	days := flag.Int("days", 30, "days of retail sales history")
	userCount := flag.Int("users", 500, "synthetic app users")
	seed := flag.Int64("seed", 42, "random seed, fixed for reproducible extracts")
	flag.Parse()

	faker := gofakeit.New(*seed)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := writeRetailSales(faker, *outDir, *itemCount, *days); err != nil {
		slog.Error("failed to generate retail extract", "error", err)
		os.Exit(1)
	}
	if err := writeChurnExtracts(faker, *outDir, *userCount); err != nil {
		slog.Error("failed to generate churn extracts", "error", err)
		os.Exit(1)
	}

	fmt.Printf("sample extracts written to %s\n", *outDir)
}

func writeRetailSales(faker *gofakeit.Faker, outDir string, itemCount, days int) error {
	items := make([]item, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, item{
			code:     fmt.Sprintf("IT%05d", 10000+i),
			desc:     fmt.Sprintf("%s %s %dML", faker.Word(), faker.Word(), faker.Number(250, 2000)),
			supplier: suppliers[i%len(suppliers)],
			section:  sections[i%len(sections)],
			rrp:      float64(faker.Number(80, 900)),
		})
	}

	rows := [][]string{{
		"store_name", "item_code", "item_barcode", "description", "category",
		"department", "sub_department", "section", "quantity", "total_sales",
		"rrp", "supplier", "date_of_sale",
	}}

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day).Format("2006-01-02")
		for _, store := range stores {
			for _, it := range items {
				if faker.Number(0, 9) < 3 {
					continue
				}

				qty := float64(faker.Number(1, 60))
				price := it.rrp
				// A slice of item-days trades at a promo price well below RRP.
				if faker.Number(0, 9) < 2 {
					price = it.rrp * float64(faker.Number(70, 88)) / 100
				}
				sales := qty * price

				row := []string{
					store, it.code, "4" + strconv.Itoa(faker.Number(100000000000, 999999999999)),
					it.desc, "OILS", "FOOD", "COOKING", it.section,
					strconv.FormatFloat(qty, 'f', 0, 64),
					strconv.FormatFloat(sales, 'f', 2, 64),
					strconv.FormatFloat(it.rrp, 'f', 2, 64),
					it.supplier, date,
				}

				// Inject the defect classes the quality stage must catch.
				switch faker.Number(0, 99) {
				case 0:
					row[8] = strconv.FormatFloat(-qty, 'f', 0, 64)
				case 1:
					row[10] = ""
				case 2:
					rows = append(rows, row)
				}
				rows = append(rows, row)
			}
		}
	}

	return writeCSV(filepath.Join(outDir, "retail_sales.csv"), rows)
}

func writeChurnExtracts(faker *gofakeit.Faker, outDir string, userCount int) error {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	userRows := [][]string{{"user_id", "email", "signup_date", "region", "channel"}}
	txRows := [][]string{{"transaction_id", "user_id", "amount", "status", "created_at"}}
	activityRows := [][]string{{"user_id", "session_id", "event_name", "event_timestamp", "device", "app_version"}}

	for i := 0; i < userCount; i++ {
		userID := 1000 + i
		tenure := faker.Number(1, 365)
		signup := now.AddDate(0, 0, -tenure)

		userRows = append(userRows, []string{
			strconv.Itoa(userID),
			faker.Email(),
			signup.Format("2006-01-02"),
			regions[faker.Number(0, len(regions)-1)],
			channels[faker.Number(0, len(channels)-1)],
		})

		// Activity density skews toward recent signups; a tail of users
		// goes quiet entirely, which is what the churn flag should find.
		dormant := faker.Number(0, 9) < 3
		lastActive := faker.Number(0, 20)
		if dormant {
			lastActive = faker.Number(40, tenure+40)
		}

		sessions := faker.Number(1, 12)
		for s := 0; s < sessions; s++ {
			sessionID := faker.UUID()
			sessionStart := now.AddDate(0, 0, -lastActive-faker.Number(0, tenure/2)).
				Add(-time.Duration(faker.Number(0, 12)) * time.Hour)
			if sessionStart.Before(signup) {
				sessionStart = signup.Add(time.Hour)
			}
			eventCount := faker.Number(1, 8)
			for e := 0; e < eventCount; e++ {
				ts := sessionStart.Add(time.Duration(e*faker.Number(1, 5)) * time.Minute)
				activityRows = append(activityRows, []string{
					strconv.Itoa(userID),
					sessionID,
					events[faker.Number(0, len(events)-1)],
					ts.Format("2006-01-02 15:04:05"),
					devices[faker.Number(0, len(devices)-1)],
					fmt.Sprintf("%d.%d.%d", faker.Number(1, 3), faker.Number(0, 9), faker.Number(0, 9)),
				})
			}
		}

		txCount := faker.Number(0, 15)
		if dormant {
			txCount = faker.Number(0, 3)
		}
		for tx := 0; tx < txCount; tx++ {
			createdAt := signup.AddDate(0, 0, faker.Number(0, tenure-1))
			status := "success"
			switch faker.Number(0, 9) {
			case 0:
				status = "failed"
			case 1:
				status = "pending"
			}
			txRows = append(txRows, []string{
				faker.UUID(),
				strconv.Itoa(userID),
				strconv.FormatFloat(float64(faker.Number(500, 150000)), 'f', 2, 64),
				status,
				createdAt.Format("2006-01-02 15:04:05"),
			})
		}
	}

	if err := writeCSV(filepath.Join(outDir, "users.csv"), userRows); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, "transactions.csv"), txRows); err != nil {
		return err
	}
	return writeCSV(filepath.Join(outDir, "user_activities.csv"), activityRows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
