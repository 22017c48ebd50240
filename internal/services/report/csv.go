// Package report writes batch results as a spreadsheet friendly CSV and a bilingual summary
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/services/recognize/domain"
)

// Columns is the CSV header, in order
var Columns = []string{
	"overall_status", "person_name", "front_image", "back_image",
	"name", "gender", "nation", "birth", "address", "id_num",
	"authority", "valid_date",
	"front_status", "back_status", "front_error", "back_error",
}

// Row flattens one result into Columns order
// The ID number gets a leading apostrophe so spreadsheets keep it as text
func Row(r domain.PersonResult) []string {
	id := r.Field("id_num")
	if id != "" {
		id = "'" + id
	}
	return []string{
		string(r.Overall), r.Person, r.FrontImage, r.BackImage,
		r.Field("name"), r.Field("gender"), r.Field("nation"), r.Field("birth"), r.Field("address"), id,
		r.Field("authority"), r.Field("valid_date"),
		string(r.Front.Status), string(r.Back.Status), r.Front.Error, r.Back.Error,
	}
}

// EncodeCSV writes a UTF-8 BOM, the header and one row per result
func EncodeCSV(w io.Writer, results []domain.PersonResult) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	cw.UseCRLF = true
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}

// WriteCSV writes results to path, replacing it atomically
func WriteCSV(path string, results []domain.PersonResult) error {
	return writeAtomic(path, func(w io.Writer) error { return EncodeCSV(w, results) })
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "create temp for %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "rename into %s", path)
	}
	return nil
}
