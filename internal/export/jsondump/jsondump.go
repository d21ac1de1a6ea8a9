// Package jsondump writes the semi-cleaned dataset as an indented JSON array
// of records. InvoiceDate is epoch milliseconds; absent values are null.
package jsondump

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"retailetl/pkg/records"
)

const checkEvery = 4096

// Row is the JSON shape of one semi-cleaned record. Field order follows the
// join order: transaction columns, then continent, then supplier.
type Row struct {
	InvoiceNo   string      `json:"InvoiceNo"`
	StockCode   string      `json:"StockCode"`
	Description *string     `json:"Description"`
	Quantity    *int64      `json:"Quantity"`
	InvoiceDate int64       `json:"InvoiceDate"`
	UnitPrice   json.Number `json:"UnitPrice"`
	CustomerID  *int64      `json:"CustomerID"`
	Country     string      `json:"Country"`
	Continent   *string     `json:"Continent"`
	Supplier    *string     `json:"Supplier"`
}

// FromEnriched converts one record.
func FromEnriched(r records.Enriched) Row {
	return Row{
		InvoiceNo:   r.InvoiceNo,
		StockCode:   r.StockCode,
		Description: r.Description,
		Quantity:    r.Quantity,
		InvoiceDate: r.InvoiceDate.UnixMilli(),
		UnitPrice:   json.Number(r.UnitPrice.String()),
		CustomerID:  r.CustomerID,
		Country:     r.Country,
		Continent:   r.Continent,
		Supplier:    r.Supplier,
	}
}

// Write encodes rows into w with four-space indentation.
func Write(ctx context.Context, w io.Writer, rows []records.Enriched) error {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = FromEnriched(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

// WriteFile writes rows to path, removing the file again on failure.
func WriteFile(ctx context.Context, path string, rows []records.Enriched) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	err = Write(ctx, bw, rows)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Join(err, os.Remove(path))
	}
	return nil
}
