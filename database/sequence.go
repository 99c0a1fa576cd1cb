package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	SeqEmployee = "EM"
	SeqCustomer = "CL"
	SeqCoupon   = "CP"
)

// NextSequenceInTx advances the named sequence and returns the new
// zero-padded code, e.g. CL00012.
func NextSequenceInTx(tx *sqlx.Tx, name string) (string, error) {
	var seq struct {
		Prefix  string `db:"prefix"`
		Padding int    `db:"padding"`
		LastNo  int    `db:"last_no"`
	}
	q := tx.Rebind(`
		UPDATE code_sequences SET last_no = last_no + 1
		WHERE name = ?
		RETURNING prefix, padding, last_no`)
	if err := tx.Get(&seq, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("sequence '%s' not found", name)
		}
		return "", fmt.Errorf("failed to advance sequence '%s': %w", name, err)
	}
	return fmt.Sprintf("%s%0*d", seq.Prefix, seq.Padding, seq.LastNo), nil
}

// InitializeSequenceFromMaxCode moves the sequence forward to the largest
// numeric suffix already present in table.code, so codes written by an
// import never collide with freshly minted ones. It never moves backwards.
func InitializeSequenceFromMaxCode(tx *sqlx.Tx, name, table string) error {
	var prefix string
	if err := tx.Get(&prefix, tx.Rebind(`SELECT prefix FROM code_sequences WHERE name = ?`), name); err != nil {
		return fmt.Errorf("sequence '%s' not found: %w", name, err)
	}

	var codes []string
	q := tx.Rebind(fmt.Sprintf(`SELECT code FROM %s WHERE code LIKE ?`, table))
	if err := tx.Select(&codes, q, prefix+"%"); err != nil {
		return err
	}

	maxNum := 0
	for _, code := range codes {
		numPart := strings.TrimPrefix(code, prefix)
		if i := strings.IndexByte(numPart, '-'); i >= 0 {
			numPart = numPart[:i]
		}
		if n, err := strconv.Atoi(numPart); err == nil && n > maxNum {
			maxNum = n
		}
	}

	res, err := tx.Exec(tx.Rebind(`UPDATE code_sequences SET last_no = ? WHERE name = ? AND last_no < ?`), maxNum, name, maxNum)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		zap.S().Infof("[Sequence] Setting '%s' last_no to %d", name, maxNum)
	}
	return nil
}
