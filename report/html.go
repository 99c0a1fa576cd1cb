package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"svcadmin/model"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templates = template.Must(template.New("root").
	Funcs(template.FuncMap{"day": day}).
	ParseFS(templateFiles, "templates/*.tmpl"))

type statementView struct {
	Payout   model.Payout
	Employee model.Employee
	Lines    []StatementLine
	Total    string
}

// WriteStatementHTML renders a printable statement page.
func WriteStatementHTML(w io.Writer, st *model.PayoutStatement, symbol string) error {
	view := statementView{
		Payout:   st.Payout,
		Employee: st.Employee,
		Lines:    toLines(st.Lines, symbol),
		Total:    FormatMoney(st.Payout.TotalCents, symbol),
	}
	if err := templates.ExecuteTemplate(w, "statement", view); err != nil {
		return fmt.Errorf("failed to render statement: %w", err)
	}
	return nil
}
