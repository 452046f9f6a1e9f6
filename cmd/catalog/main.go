package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/config"
	"github.com/thraizz/kingdom-server-go/internal/game"
	"github.com/thraizz/kingdom-server-go/internal/game/catalog"
	"github.com/thraizz/kingdom-server-go/internal/repository"
)

func main() {
	file := flag.String("file", "", "catalog YAML file (default: embedded catalog)")
	list := flag.Bool("list", false, "print every card")
	importCards := flag.Bool("import", false, "upsert the catalog into Postgres")
	configPath := flag.String("config", "config/config.yaml", "configuration file for -import")
	flag.Parse()

	entries, err := loadEntries(*file)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Binding to the rulebook catches cards whose rules are missing.
	cat, err := game.NewCatalog(entries, game.StandardRules())
	if err != nil {
		log.Fatalf("Catalog is invalid: %v", err)
	}
	fmt.Printf("Catalog OK: %d cards, %d kingdom-eligible\n", len(cat.Cards()), len(cat.KingdomEligible()))

	if *list {
		printEntries(entries)
	}

	if !*importCards {
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Database.Enabled() {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			cfg.Database.URL = url
		} else {
			log.Fatal("No database configured: set database.url or DATABASE_URL")
		}
	}

	ctx := context.Background()
	db, err := repository.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Database connection established")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	records := make([]repository.CardRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, toRecord(e))
	}

	start := time.Now()
	repo := repository.NewCardRepository(db.Pool)
	written, err := repo.Upsert(ctx, records)
	if err != nil {
		log.Fatalf("Import stopped after %d cards: %v", written, err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count cards: %v", err)
	}
	fmt.Printf("Imported %d cards in %s (%d in database)\n", written, time.Since(start).Round(time.Millisecond), total)
}

func loadEntries(path string) ([]catalog.Entry, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func toRecord(e catalog.Entry) repository.CardRecord {
	return repository.CardRecord{
		Name:   e.Name,
		Set:    e.Set,
		Type:   strings.Join(e.Types, " - "),
		Cost:   e.Cost,
		Text:   e.Text,
		VP:     e.VP,
		Supply: e.Supply,
	}
}

func printEntries(entries []catalog.Entry) {
	sorted := append([]catalog.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Set != sorted[j].Set {
			return sorted[i].Set < sorted[j].Set
		}
		if sorted[i].Cost != sorted[j].Cost {
			return sorted[i].Cost < sorted[j].Cost
		}
		return sorted[i].Name < sorted[j].Name
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tCOST\tNAME\tTYPES\tSUPPLY\tTEXT")
	for _, e := range sorted {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", e.Set, e.Cost, e.Name, strings.Join(e.Types, "-"), e.Supply, e.Text)
	}
	w.Flush()
}
