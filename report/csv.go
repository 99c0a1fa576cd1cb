package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"svcadmin/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteStatementCSV writes a payout statement with a BOM so spreadsheet
// programs open it as UTF-8. The last row carries the total.
func WriteStatementCSV(w io.Writer, st *model.PayoutStatement, symbol string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	rows := [][]string{
		{"payout", st.Payout.ID},
		{"employee", st.Employee.Code, st.Employee.Name},
		{"date", day(st.Payout.CreatedAt)},
		{},
		{"date", "source", "reference", "note", "amount_cents", "amount"},
	}
	for _, l := range toLines(st.Lines, symbol) {
		rows = append(rows, []string{l.Date, l.Source, l.Reference, l.Note, strconv.FormatInt(l.Cents, 10), l.Amount})
	}
	rows = append(rows, []string{"total", "", "", "",
		strconv.FormatInt(st.Payout.TotalCents, 10), FormatMoney(st.Payout.TotalCents, symbol)})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write statement csv: %w", err)
	}
	return nil
}

// WriteIncentivesCSV exports incentives with the employee's code and name.
func WriteIncentivesCSV(w io.Writer, list []model.Incentive, employees map[int64]model.Employee, symbol string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write([]string{"id", "employee_code", "employee_name", "source", "reference", "status",
		"amount_cents", "amount", "created_at", "paid_at", "payout_id", "note"}); err != nil {
		return err
	}
	for _, inc := range list {
		e := employees[inc.EmployeeID]
		var paidAt, payoutID string
		if inc.PaidAt != nil {
			paidAt = *inc.PaidAt
		}
		if inc.PayoutID != nil {
			payoutID = *inc.PayoutID
		}
		rec := []string{
			strconv.FormatInt(inc.ID, 10), e.Code, e.Name, string(inc.Source), reference(inc), string(inc.Status),
			strconv.FormatInt(inc.AmountCents, 10), FormatMoney(inc.AmountCents, symbol),
			inc.CreatedAt, paidAt, payoutID, inc.Note,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ContentDisposition builds an attachment header whose filename survives
// non-ASCII characters (RFC 5987).
func ContentDisposition(filename string) string {
	return "attachment; filename*=UTF-8''" + url.PathEscape(filename)
}
