package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/db"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
)

// allocctl is the operator tool for the monthly allocation ledger: diagnose
// one product, verify the whole catalog, or rebuild ledgers from the
// association rows.
//
// Usage:
//
//	allocctl -mode diagnose -product REF-001
//	allocctl -mode verify [-product REF-001]
//	allocctl -mode rebuild -product REF-001 -user <uuid> [-yes]
//	allocctl -mode rebuild-all -user <uuid> [-workers 4] [-yes]
func main() {
	mode := flag.String("mode", "diagnose", "diagnose | verify | rebuild | rebuild-all")
	product := flag.String("product", "", "product reference or uuid")
	user := flag.String("user", "", "acting user uuid (required for rebuild modes)")
	workers := flag.Int("workers", 4, "parallel workers for rebuild-all")
	yes := flag.Bool("yes", false, "skip the interactive confirmation")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	productRepo := repos.NewProductRepo(thePG, log)
	rowRepo := repos.NewProductLocationRepo(thePG, log)
	ledgerRepo := repos.NewMonthlyAllocationRepo(thePG, log)
	eventRepo := repos.NewProductEventRepo(thePG, log)
	reconciler := allocation.NewReconciler(log, rowRepo, ledgerRepo)
	checker := allocation.NewChecker(log, rowRepo, ledgerRepo)
	rebuilder := allocation.NewRebuilder(thePG, log, rowRepo, ledgerRepo, eventRepo, reconciler, nil)

	ctx := context.Background()
	app := &cli{
		log:         log,
		productRepo: productRepo,
		checker:     checker,
		rebuilder:   rebuilder,
	}

	var runErr error
	switch *mode {
	case "diagnose":
		runErr = app.diagnose(ctx, *product)
	case "verify":
		runErr = app.verify(ctx, *product)
	case "rebuild":
		runErr = app.rebuild(ctx, *product, *user, *yes)
	case "rebuild-all":
		runErr = app.rebuildAll(ctx, *user, *workers, *yes)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
	if runErr != nil {
		log.Error("Command failed", "mode", *mode, "error", runErr)
		os.Exit(1)
	}
}

type cli struct {
	log         *logger.Logger
	productRepo repos.ProductRepo
	checker     allocation.Checker
	rebuilder   allocation.Rebuilder
}

// resolveProduct accepts either a catalog reference or a raw uuid.
func (a *cli) resolveProduct(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, fmt.Errorf("-product is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	p, err := a.productRepo.GetByReference(ctx, nil, ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("product %q: %w", ref, err)
	}
	return p.ID, nil
}

func (a *cli) diagnose(ctx context.Context, ref string) error {
	productID, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}
	report, err := a.checker.Check(ctx, productID)
	if err != nil {
		return err
	}
	printReport(report)
	if !report.Consistent {
		return fmt.Errorf("ledger inconsistent for product %s", productID)
	}
	return nil
}

// verify checks one product when -product is given, otherwise the whole
// catalog.
func (a *cli) verify(ctx context.Context, ref string) error {
	var ids []uuid.UUID
	if strings.TrimSpace(ref) != "" {
		id, err := a.resolveProduct(ctx, ref)
		if err != nil {
			return err
		}
		ids = []uuid.UUID{id}
	} else {
		var err error
		ids, err = a.productRepo.ListIDs(ctx, nil)
		if err != nil {
			return err
		}
	}
	bad := 0
	for _, id := range ids {
		report, err := a.checker.Check(ctx, id)
		if err != nil {
			return fmt.Errorf("check product %s: %w", id, err)
		}
		if !report.Consistent {
			bad++
			fmt.Printf("INCONSISTENTE %s (associacoes=%d ledger=%d)\n",
				id, report.EligibleSum, report.LedgerSum)
		}
	}
	fmt.Printf("%d produtos verificados, %d inconsistentes\n", len(ids), bad)
	if bad > 0 {
		return fmt.Errorf("%d inconsistent products", bad)
	}
	return nil
}

func (a *cli) rebuild(ctx context.Context, ref, user string, yes bool) error {
	productID, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}
	userID, err := parseUser(user)
	if err != nil {
		return err
	}
	if !yes && !confirm(fmt.Sprintf("Reconstruir o ledger do produto %s?", productID)) {
		fmt.Println("Abortado.")
		return nil
	}
	result, err := a.rebuilder.Rebuild(ctx, productID, userID)
	if err != nil {
		return err
	}
	fmt.Printf("produto %s: %d entradas removidas, %d criadas, %d linhas sem data ignoradas\n",
		result.ProductID, result.DeletedEntries, result.CreatedEntries, result.SkippedRows)
	return nil
}

func (a *cli) rebuildAll(ctx context.Context, user string, workers int, yes bool) error {
	userID, err := parseUser(user)
	if err != nil {
		return err
	}
	ids, err := a.productRepo.ListIDs(ctx, nil)
	if err != nil {
		return err
	}
	if !yes && !confirm(fmt.Sprintf("Reconstruir o ledger de TODOS os %d produtos?", len(ids))) {
		fmt.Println("Abortado.")
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			result, err := a.rebuilder.Rebuild(gctx, id, userID)
			if err != nil {
				return fmt.Errorf("rebuild product %s: %w", id, err)
			}
			a.log.Info("Rebuilt ledger",
				"product_id", result.ProductID,
				"deleted", result.DeletedEntries,
				"created", result.CreatedEntries,
				"skipped", result.SkippedRows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("%d produtos reconstruidos\n", len(ids))
	return nil
}

func parseUser(user string) (uuid.UUID, error) {
	userID, err := uuid.Parse(strings.TrimSpace(user))
	if err != nil {
		return uuid.Nil, fmt.Errorf("-user must be a uuid: %w", err)
	}
	return userID, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s\nDigite 'SIM' para confirmar: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "SIM"
}

func printReport(r *allocation.Report) {
	status := "OK"
	if !r.Consistent {
		status = "INCONSISTENTE"
	}
	fmt.Printf("produto %s: %s\n", r.ProductID, status)
	fmt.Printf("  linhas ativas: %d (quantidade total %d, elegivel %d)\n",
		len(r.AssociationRows), r.AssociationSum, r.EligibleSum)
	fmt.Printf("  entradas no ledger: %d (quantidade %d)\n", len(r.LedgerEntries), r.LedgerSum)
	if !r.TotalsMatch {
		fmt.Printf("  somas divergentes: elegivel=%d ledger=%d\n", r.EligibleSum, r.LedgerSum)
	}
	for _, g := range r.DuplicateGroups {
		op := g.Key.ProductionOrder
		if op == "" {
			op = "sem-op"
		}
		fmt.Printf("  duplicado: local=%s mes=%02d/%d op=%s (%d entradas)\n",
			g.Key.LocationID, g.Key.Month, g.Key.Year, op, len(g.Entries))
	}
	for _, e := range r.OrphanEntries {
		fmt.Printf("  orfao: entrada %s mes=%02d/%d quantidade=%d\n", e.ID, e.Month, e.Year, e.Quantity)
	}
}
