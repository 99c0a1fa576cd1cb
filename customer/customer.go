package customer

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/parsers"
	"svcadmin/respond"
)

func normalize(in *model.CustomerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.Name == "" {
		return respond.BadRequest("name is required")
	}
	if in.Phone == "" && in.Email == "" {
		return respond.BadRequest("phone or email is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return respond.BadRequest("invalid email address")
		}
	}
	return nil
}

func Create(db *sqlx.DB, in model.CustomerInput) (*model.Customer, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var c *model.Customer
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		c, err = database.CreateCustomerInTx(tx, in)
		return err
	})
	return c, err
}

func Update(db *sqlx.DB, id int64, in model.CustomerInput) (*model.Customer, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var c *model.Customer
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		c, err = database.UpdateCustomerInTx(tx, id, in)
		return err
	})
	return c, err
}

func Delete(db *sqlx.DB, id int64) error {
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetCustomer(tx, id); err != nil {
			return err
		}
		return database.DeleteCustomerInTx(tx, id)
	})
}

type ImportResult struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Messages []string `json:"messages"`
}

// Import loads a customer CSV in one transaction. Rows carrying a code update
// (or create) that customer, rows without one get a fresh code. Invalid rows
// are skipped and reported.
func Import(db *sqlx.DB, r io.Reader) (*ImportResult, error) {
	records, skipped, err := parsers.ParseCustomerCSV(r)
	if err != nil {
		return nil, respond.BadRequest("failed to parse CSV: " + err.Error())
	}
	if len(records) == 0 {
		return nil, respond.BadRequest("no rows to import")
	}

	result := &ImportResult{Skipped: len(skipped), Messages: append([]string{}, skipped...)}
	err = database.WithTx(db, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			in := model.CustomerInput{
				Name:    rec.Name,
				Phone:   rec.Phone,
				Email:   rec.Email,
				Address: rec.Address,
				Notes:   rec.Notes,
			}
			if err := normalize(&in); err != nil {
				result.Skipped++
				result.Messages = append(result.Messages, fmt.Sprintf("line %d: %v", rec.Line, err))
				continue
			}

			if rec.Code == "" {
				if _, err := database.CreateCustomerInTx(tx, in); err != nil {
					return fmt.Errorf("line %d: %w", rec.Line, err)
				}
				result.Created++
				continue
			}

			created, err := database.UpsertCustomerInTx(tx, rec.Code, in)
			if err != nil {
				return fmt.Errorf("line %d (code %s): %w", rec.Line, rec.Code, err)
			}
			if !created {
				result.Updated++
				continue
			}
			result.Created++
			// later codeless rows must not mint a code this row just took
			if err := database.InitializeSequenceFromMaxCode(tx, database.SeqCustomer, "customers"); err != nil {
				return fmt.Errorf("line %d (code %s): %w", rec.Line, rec.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infof("Customer import: %d created, %d updated, %d skipped", result.Created, result.Updated, result.Skipped)
	return result, nil
}
