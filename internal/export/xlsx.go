package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/repriselab/prospect-cli/internal/model"
)

// rowHeaders is the XLSX column order for search results, matching the CSV
// column order.
var rowHeaders = []string{
	"nom_entreprise", "siren", "chiffre_affaires", "effectif", "adresse",
	"site_web", "nom_dirigeant", "age_dirigeant", "email_dirigeant",
	"mobile_dirigeant", "pappers_url",
}

// leadHeaders is the XLSX column order for stored leads.
var leadHeaders = []string{
	"siren", "nom_entreprise", "chiffre_affaires", "effectif", "adresse",
	"site_web", "nom_dirigeant", "age_dirigeant", "email_dirigeant",
	"mobile_dirigeant", "pappers_url", "statut", "notes", "raison_cession",
}

// WriteRowsXLSX writes search results as a single-sheet XLSX workbook.
func WriteRowsXLSX(w io.Writer, rows []model.Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Entreprises")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	addHeaderRow(sheet, rowHeaders)
	for _, r := range rows {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Name)
		xr.AddCell().SetString(r.SIREN)
		setIntCell(xr.AddCell(), r.Revenue)
		xr.AddCell().SetString(r.Workforce)
		xr.AddCell().SetString(r.Address)
		xr.AddCell().SetString(r.Website)
		xr.AddCell().SetString(r.Executive)
		setIntCell(xr.AddCell(), r.ExecutiveAge)
		xr.AddCell().SetString(r.Email)
		xr.AddCell().SetString(r.Phone)
		xr.AddCell().SetString(r.RegistryURL)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// WriteLeadsXLSX writes stored leads as a single-sheet XLSX workbook.
func WriteLeadsXLSX(w io.Writer, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	addHeaderRow(sheet, leadHeaders)
	for _, l := range leads {
		xr := sheet.AddRow()
		xr.AddCell().SetString(l.SIREN)
		xr.AddCell().SetString(l.Name)
		setIntCell(xr.AddCell(), l.Revenue)
		xr.AddCell().SetString(l.Workforce)
		xr.AddCell().SetString(l.Address)
		xr.AddCell().SetString(l.Website)
		xr.AddCell().SetString(l.Executive)
		setIntCell(xr.AddCell(), l.ExecutiveAge)
		xr.AddCell().SetString(l.Email)
		xr.AddCell().SetString(l.Phone)
		xr.AddCell().SetString(l.RegistryURL)
		xr.AddCell().SetString(l.Status)
		xr.AddCell().SetString(l.Notes)
		xr.AddCell().SetString(l.CessionReason)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// WriteRowsXLSXFile writes search results to path, creating parent
// directories as needed.
func WriteRowsXLSXFile(path string, rows []model.Row) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create xlsx file")
	}

	if err := WriteRowsXLSX(f, rows); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "export: close xlsx file")
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func setIntCell(cell *xlsx.Cell, v *int) {
	if v != nil {
		cell.SetInt(*v)
	}
}
