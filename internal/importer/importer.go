// Package importer loads a farmer's produce catalog from CSV.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"produce-marketplace/internal/domain"
)

// CatalogWriter is the subset of the product repository the importer needs.
type CatalogWriter interface {
	UpsertFarmer(ctx context.Context, id, name string) error
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog rows with the header
// id,name,description,price_cents,unit,farmer_id,farmer_name.
// Columns may come in any order and unknown columns are ignored.
type CSVImporter struct {
	reader *csv.Reader
	repo   CatalogWriter
}

func NewCSVImporter(r io.Reader, repo CatalogWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // spreadsheet exports pad short rows
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, repo: repo}
}

type csvRow struct {
	line       int
	ID         string
	Name       string
	Desc       string
	Cents      int64
	Unit       string
	FarmerID   string
	FarmerName string
}

// Run upserts every product and its farmer. It stops at the first invalid row
// and returns how many products were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price_cents", "farmer_id"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("%w: missing column %q", domain.ErrValidation, required)
		}
	}

	var (
		current  *csvRow
		imported int
		farmers  = map[string]bool{}
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := i.save(ctx, current, farmers); err != nil {
			return err
		}
		imported++
		return nil
	}

	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		// A nameless row repeating the previous id continues its description.
		if row.Name == "" && current != nil && row.ID != "" && row.ID == current.ID {
			current.Desc = strings.TrimSpace(current.Desc + " " + row.Desc)
			continue
		}
		if err := flush(); err != nil {
			return imported, err
		}
		current = row
	}

	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, farmers map[string]bool) error {
	if row.Name == "" || row.FarmerID == "" || row.Cents <= 0 {
		return fmt.Errorf("%w: row %d needs name, farmer_id and a positive price_cents", domain.ErrValidation, row.line)
	}

	if !farmers[row.FarmerID] {
		name := row.FarmerName
		if name == "" {
			name = row.FarmerID
		}
		if err := i.repo.UpsertFarmer(ctx, row.FarmerID, name); err != nil {
			return fmt.Errorf("upsert farmer %q: %w", row.FarmerID, err)
		}
		farmers[row.FarmerID] = true
	}

	p := domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  row.Cents,
		Unit:        row.Unit,
		FarmerID:    row.FarmerID,
	}
	if _, err := i.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q (row %d): %w", row.Name, row.line, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{
		line:       line,
		ID:         pick(record, index, "id"),
		Name:       pick(record, index, "name"),
		Desc:       pick(record, index, "description"),
		Unit:       pick(record, index, "unit"),
		FarmerID:   pick(record, index, "farmer_id"),
		FarmerName: pick(record, index, "farmer_name"),
	}
	if row.ID == "" && row.Name == "" && row.Desc == "" {
		return nil, nil
	}
	if s := pick(record, index, "price_cents"); s != "" {
		cents, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d price_cents %q", domain.ErrValidation, line, s)
		}
		row.Cents = cents
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
