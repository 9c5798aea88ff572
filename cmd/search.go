package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repriselab/prospect-cli/internal/export"
	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/pipeline"
	"github.com/repriselab/prospect-cli/internal/store"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
)

var (
	searchSector         string
	searchRegion         string
	searchDepartment     string
	searchCity           string
	searchLegalForm      string
	searchRevenueMin     int
	searchRevenueMax     int
	searchNetIncomeMin   int
	searchNetIncomeMax   int
	searchRCSStatus      string
	searchExecAgeMin     int
	searchWorkforceMin   int
	searchWorkforceMax   int
	searchCreatedAfter   int
	searchIncludeCeased  bool
	searchMaxResults     int
	searchMaxEnrichments int
	searchOutput         string
	searchFormat         string
	searchSaveLeads      bool
	searchYes            bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the registry and export matching companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, enricher, err := initPipeline()
		if err != nil {
			return err
		}

		criteria := buildCriteria(cmd)
		companies, err := p.Run(ctx, criteria)
		if err != nil {
			if len(companies) == 0 {
				return eris.Wrap(err, "registry search")
			}
			// Batch mode keeps whatever the search accumulated.
			zap.L().Warn("continuing with partial search results", zap.Error(err))
		}

		if len(companies) == 0 {
			fmt.Println("Aucune entreprise trouvée avec ces critères.")
			return nil
		}
		fmt.Printf("%d entreprise(s) extraite(s).\n", len(companies))

		if maxEnrich := effectiveMaxEnrichments(cmd); maxEnrich > 0 {
			runEnrichment(ctx, os.Stdout, os.Stdin, p, enricher, companies, maxEnrich, searchYes)
		} else {
			fmt.Println("Enrichissement désactivé (--max-enrichissements 0).")
		}

		if err := writeResults(companies); err != nil {
			return err
		}

		if searchSaveLeads {
			return saveLeads(ctx, os.Stdout, companies)
		}
		return nil
	},
}

// flagInt returns the flag's value when it was set on the command line and
// nil otherwise, so zero and negative bounds stay expressible.
func flagInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func buildCriteria(cmd *cobra.Command) model.Criteria {
	maxResults := searchMaxResults
	if maxResults <= 0 {
		maxResults = cfg.Search.MaxResults
	}
	return model.Criteria{
		Sector:           searchSector,
		Region:           searchRegion,
		Department:       searchDepartment,
		City:             searchCity,
		LegalForm:        searchLegalForm,
		RevenueMin:       flagInt(cmd, "ca-min", searchRevenueMin),
		RevenueMax:       flagInt(cmd, "ca-max", searchRevenueMax),
		NetIncomeMin:     flagInt(cmd, "resultat-min", searchNetIncomeMin),
		NetIncomeMax:     flagInt(cmd, "resultat-max", searchNetIncomeMax),
		ExecutiveAgeMin:  flagInt(cmd, "age-min-dirigeant", searchExecAgeMin),
		WorkforceMin:     flagInt(cmd, "effectif-min", searchWorkforceMin),
		WorkforceMax:     flagInt(cmd, "effectif-max", searchWorkforceMax),
		RCSStatus:        searchRCSStatus,
		CreatedAfterYear: searchCreatedAfter,
		IncludeCeased:    searchIncludeCeased,
		MaxResults:       maxResults,
	}
}

// effectiveMaxEnrichments resolves the enrichment cap: the flag when set,
// the configured default otherwise.
func effectiveMaxEnrichments(cmd *cobra.Command) int {
	if cmd.Flags().Changed("max-enrichissements") {
		return searchMaxEnrichments
	}
	return cfg.Search.MaxEnrichments
}

// runEnrichment shows the credit cost estimate and balance, asks for
// confirmation, then enriches in place. Enrichment failures are reported but
// never block the export.
func runEnrichment(ctx context.Context, out io.Writer, in io.Reader, p *pipeline.Pipeline, enricher fullenrich.Client, companies []model.Company, max int, assumeYes bool) {
	n := pipeline.EnrichableCount(companies, max)
	if n == 0 {
		fmt.Fprintln(out, "Aucun dirigeant identifié — enrichissement ignoré.")
		return
	}

	fmt.Fprintf(out, "\nEnrichissement Fullenrich\n")
	fmt.Fprintf(out, "  Dirigeants à soumettre : %d\n", n)
	fmt.Fprintf(out, "  Crédits consommés      : 0 à %d\n", n)
	if balance, err := enricher.Credits(ctx); err != nil {
		fmt.Fprintln(out, "  Solde actuel           : indisponible")
	} else {
		fmt.Fprintf(out, "  Solde actuel           : %d crédit(s)\n", balance)
		if balance < n {
			fmt.Fprintln(out, "  Attention : solde potentiellement insuffisant.")
		}
	}

	if !assumeYes && !confirm(in, out, "Lancer l'enrichissement ? [o/N] : ") {
		fmt.Fprintln(out, "Enrichissement annulé.")
		return
	}

	outcome, err := p.Enrich(ctx, companies, max)
	if err != nil {
		switch {
		case errors.Is(err, fullenrich.ErrInsufficientCredits):
			fmt.Fprintln(out, "Crédits insuffisants — enrichissement interrompu.")
		case errors.Is(err, fullenrich.ErrTimeout):
			fmt.Fprintln(out, "Délai dépassé — les résultats ne sont pas encore disponibles.")
		default:
			zap.L().Error("enrichment failed", zap.Error(err))
		}
		return
	}
	fmt.Fprintf(out, "Enrichissement terminé : %d/%d contact(s), %d crédit(s) consommé(s).\n",
		outcome.Enriched, outcome.Submitted, outcome.CreditsUsed)
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "o", "oui", "y", "yes":
		return true
	}
	return false
}

func writeResults(companies []model.Company) error {
	rows := model.Rows(companies)

	path := searchOutput
	if path == "" {
		ext := "csv"
		if searchFormat == "xlsx" {
			ext = "xlsx"
		}
		name := fmt.Sprintf("resultats_%s.%s", time.Now().Format("20060102_150405"), ext)
		path = filepath.Join(cfg.Search.OutputDir, name)
	}

	var err error
	if searchFormat == "xlsx" || strings.HasSuffix(path, ".xlsx") {
		err = export.WriteRowsXLSXFile(path, rows)
	} else {
		err = export.WriteCSVFile(path, rows)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Export terminé : %s (%d ligne(s))\n", path, len(rows))
	return nil
}

// saveLeads stores the extracted companies as prospect leads, skipping
// SIRENs already present in the database.
func saveLeads(ctx context.Context, out io.Writer, companies []model.Company) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	saved, skipped := 0, 0
	for _, c := range companies {
		if _, err := st.CreateLead(ctx, model.LeadFromCompany(c)); err != nil {
			if eris.Is(err, store.ErrDuplicateLead) {
				skipped++
				continue
			}
			return err
		}
		saved++
	}

	fmt.Fprintf(out, "Leads enregistrés : %d nouveau(x), %d déjà connu(s).\n", saved, skipped)
	return nil
}

func init() {
	searchCmd.Flags().StringVar(&searchSector, "secteur", "", "activity keyword or NAF code (required)")
	searchCmd.Flags().StringVar(&searchRegion, "region", "", "French region name or INSEE code")
	searchCmd.Flags().StringVar(&searchDepartment, "departement", "", "department number")
	searchCmd.Flags().StringVar(&searchCity, "ville", "", "city name")
	searchCmd.Flags().StringVar(&searchLegalForm, "forme-juridique", "", "legal category code")
	searchCmd.Flags().IntVar(&searchRevenueMin, "ca-min", 0, "minimum revenue in euros")
	searchCmd.Flags().IntVar(&searchRevenueMax, "ca-max", 0, "maximum revenue in euros")
	searchCmd.Flags().IntVar(&searchNetIncomeMin, "resultat-min", 0, "minimum net income in euros")
	searchCmd.Flags().IntVar(&searchNetIncomeMax, "resultat-max", 0, "maximum net income in euros")
	searchCmd.Flags().StringVar(&searchRCSStatus, "statut-rcs", "", "RCS registration status")
	searchCmd.Flags().IntVar(&searchExecAgeMin, "age-min-dirigeant", 0, "minimum executive age in years")
	searchCmd.Flags().IntVar(&searchWorkforceMin, "effectif-min", 0, "minimum workforce")
	searchCmd.Flags().IntVar(&searchWorkforceMax, "effectif-max", 0, "maximum workforce")
	searchCmd.Flags().IntVar(&searchCreatedAfter, "date-creation-min", 0, "earliest creation year")
	searchCmd.Flags().BoolVar(&searchIncludeCeased, "inclure-cessees", false, "include ceased companies")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-resultats", 0, "maximum companies to fetch")
	searchCmd.Flags().IntVar(&searchMaxEnrichments, "max-enrichissements", 0, "maximum executives to enrich (0 disables)")
	searchCmd.Flags().StringVar(&searchOutput, "output", "", "output file path")
	searchCmd.Flags().StringVar(&searchFormat, "format", "csv", "output format: csv or xlsx")
	searchCmd.Flags().BoolVar(&searchSaveLeads, "save-leads", false, "store results as prospect leads")
	searchCmd.Flags().BoolVar(&searchYes, "yes", false, "skip the enrichment confirmation prompt")
	_ = searchCmd.MarkFlagRequired("secteur")
	rootCmd.AddCommand(searchCmd)
}
