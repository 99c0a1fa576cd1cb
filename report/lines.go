package report

import (
	"fmt"

	"svcadmin/model"
)

// StatementLine is one incentive as printed on a statement.
type StatementLine struct {
	Date      string
	Source    string
	Reference string
	Note      string
	Amount    string
	Cents     int64
}

func reference(inc model.Incentive) string {
	switch {
	case inc.CouponID != nil:
		return fmt.Sprintf("coupon #%d", *inc.CouponID)
	case inc.MilestoneKey != nil:
		return *inc.MilestoneKey
	default:
		return fmt.Sprintf("adjustment #%d", inc.ID)
	}
}

// day trims a stored timestamp to its date.
func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func toLines(lines []model.Incentive, symbol string) []StatementLine {
	out := make([]StatementLine, 0, len(lines))
	for _, inc := range lines {
		out = append(out, StatementLine{
			Date:      day(inc.CreatedAt),
			Source:    string(inc.Source),
			Reference: reference(inc),
			Note:      inc.Note,
			Amount:    FormatMoney(inc.AmountCents, symbol),
			Cents:     inc.AmountCents,
		})
	}
	return out
}
