package report

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"svcadmin/auth"
	"svcadmin/config"
	"svcadmin/database"
	"svcadmin/incentive"
	"svcadmin/model"
	"svcadmin/respond"
)

func StatementCSVHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := incentive.StatementFor(db, r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var buf bytes.Buffer
		if err := WriteStatementCSV(&buf, st, config.GetConfig().CurrencySymbol); err != nil {
			respond.Error(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", ContentDisposition(statementName(st, "csv")))
		w.Write(buf.Bytes())
	}
}

func StatementHTMLHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := incentive.StatementFor(db, r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var buf bytes.Buffer
		if err := WriteStatementHTML(&buf, st, config.GetConfig().CurrencySymbol); err != nil {
			respond.Error(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

// StatementPDFHandler renders the statement and keeps a copy in the
// configured statement directory when one is set.
func StatementPDFHandler(db *sqlx.DB, renderer PDFRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := incentive.StatementFor(db, r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		cfg := config.GetConfig()
		var html bytes.Buffer
		if err := WriteStatementHTML(&html, st, cfg.CurrencySymbol); err != nil {
			respond.Error(w, err)
			return
		}
		pdf, err := renderer.RenderPDF(r.Context(), html.String())
		if err != nil {
			respond.Error(w, err)
			return
		}

		name := statementName(st, "pdf")
		if cfg.StatementDir != "" {
			if err := archive(cfg.StatementDir, name, pdf); err != nil {
				zap.S().Warnf("failed to archive statement %s: %v", name, err)
			}
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", ContentDisposition(name))
		w.Write(pdf)
	}
}

func archive(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func statementName(st *model.PayoutStatement, ext string) string {
	return fmt.Sprintf("statement_%s_%s.%s", st.Employee.Code, st.Payout.ID, ext)
}

// ExportIncentivesHandler streams the filtered incentive list as CSV.
func ExportIncentivesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f, err := incentive.FilterFromRequest(r, p)
		if err != nil {
			respond.Error(w, err)
			return
		}
		list, err := database.GetIncentives(db, f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		all, err := database.GetAllEmployees(db, model.EmployeeFilter{})
		if err != nil {
			respond.Error(w, err)
			return
		}
		employees := make(map[int64]model.Employee, len(all))
		for _, e := range all {
			employees[e.ID] = e
		}

		var buf bytes.Buffer
		if err := WriteIncentivesCSV(&buf, list, employees, config.GetConfig().CurrencySymbol); err != nil {
			respond.Error(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", ContentDisposition("incentives.csv"))
		w.Write(buf.Bytes())
	}
}
