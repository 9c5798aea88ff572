package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/repriselab/prospect-cli/internal/export"
	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/store"
)

var (
	leadStatus        string
	leadNotes         string
	leadCessionReason string
	leadListStatus    string
	leadListLimit     int
	leadExportOutput  string
	leadExportFormat  string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage the curated lead database",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(cmd.Context(), store.LeadFilter{
			Status: leadListStatus,
			Limit:  leadListLimit,
		})
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			fmt.Println("Aucun lead enregistré.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSIREN\tENTREPRISE\tSTATUT\tEMAIL")
		for _, l := range leads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.SIREN, l.Name, l.Status, l.Email)
		}
		return w.Flush()
	},
}

var leadsAddCmd = &cobra.Command{
	Use:   "add <file.json>",
	Short: "Add a lead from a JSON file",
	Long:  "Reads a lead record from a JSON file (or stdin with \"-\") and stores it. Duplicate SIRENs are rejected.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return eris.Wrap(err, "read lead")
		}

		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return eris.Wrap(err, "parse lead")
		}
		if lead.SIREN == "" {
			return eris.New("lead requires a siren")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		created, err := st.CreateLead(cmd.Context(), lead)
		if err != nil {
			if eris.Is(err, store.ErrDuplicateLead) {
				return eris.Errorf("lead with SIREN %s already exists", lead.SIREN)
			}
			return err
		}
		fmt.Printf("Lead créé : %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var leadsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a lead's status, notes, or cession reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		lead, err := st.GetLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("statut") {
			lead.Status = leadStatus
		}
		if cmd.Flags().Changed("notes") {
			lead.Notes = leadNotes
		}
		if cmd.Flags().Changed("raison-cession") {
			lead.CessionReason = leadCessionReason
		}

		if err := st.UpdateLead(cmd.Context(), *lead); err != nil {
			return err
		}
		fmt.Printf("Lead mis à jour : %s\n", lead.ID)
		return nil
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteLead(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Lead supprimé : %s\n", args[0])
		return nil
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(cmd.Context(), store.LeadFilter{Status: leadListStatus})
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			fmt.Println("Aucun lead à exporter.")
			return nil
		}

		path := leadExportOutput
		if path == "" {
			path = "leads.csv"
			if leadExportFormat == "xlsx" {
				path = "leads.xlsx"
			}
		}

		if leadExportFormat == "xlsx" || strings.HasSuffix(path, ".xlsx") {
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "create export file")
			}
			if err := export.WriteLeadsXLSX(f, leads); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrap(err, "close export file")
			}
		} else if err := export.WriteCSVFile(path, leads); err != nil {
			return err
		}

		fmt.Printf("Export terminé : %s (%d lead(s))\n", path, len(leads))
		return nil
	},
}

func init() {
	leadsListCmd.Flags().StringVar(&leadListStatus, "statut", "", "filter by status")
	leadsListCmd.Flags().IntVar(&leadListLimit, "limit", 0, "maximum leads to list")

	leadsUpdateCmd.Flags().StringVar(&leadStatus, "statut", "", "new status")
	leadsUpdateCmd.Flags().StringVar(&leadNotes, "notes", "", "free-form notes")
	leadsUpdateCmd.Flags().StringVar(&leadCessionReason, "raison-cession", "", "reason the owner is selling")

	leadsExportCmd.Flags().StringVar(&leadListStatus, "statut", "", "filter by status")
	leadsExportCmd.Flags().StringVar(&leadExportOutput, "output", "", "output file path")
	leadsExportCmd.Flags().StringVar(&leadExportFormat, "format", "csv", "output format: csv or xlsx")

	leadsCmd.AddCommand(leadsListCmd, leadsAddCmd, leadsUpdateCmd, leadsDeleteCmd, leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}
