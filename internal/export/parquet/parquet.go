// Package parquet writes the cleaned_data snapshot as a Parquet file using
// Apache Arrow. Text columns, including InvoiceDate and YearMonth, are
// strings; Quantity and CustomerID are int64; UnitPrice and TotalAmount are
// float64.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"retailetl/internal/aggregate"
	"retailetl/pkg/records"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	pq "github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
)

// DateLayout formats InvoiceDate in the snapshot.
const DateLayout = "2006-01-02 15:04:05"

const checkEvery = 4096

// Column order of the snapshot.
const (
	colInvoiceNo = iota
	colStockCode
	colDescription
	colQuantity
	colInvoiceDate
	colUnitPrice
	colCustomerID
	colCountry
	colTotalAmount
	colYearMonth
	colSupplier
	colContinent
)

// Schema is the Arrow schema of the snapshot.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "InvoiceNo", Type: arrow.BinaryTypes.String},
	{Name: "StockCode", Type: arrow.BinaryTypes.String},
	{Name: "Description", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "Quantity", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "InvoiceDate", Type: arrow.BinaryTypes.String},
	{Name: "UnitPrice", Type: arrow.PrimitiveTypes.Float64},
	{Name: "CustomerID", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "Country", Type: arrow.BinaryTypes.String},
	{Name: "TotalAmount", Type: arrow.PrimitiveTypes.Float64},
	{Name: "YearMonth", Type: arrow.BinaryTypes.String},
	{Name: "Supplier", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "Continent", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// Write encodes rows as a Snappy-compressed Parquet file into w. It does not
// close w.
func Write(ctx context.Context, w io.Writer, rows []records.Enriched) error {
	b := array.NewRecordBuilder(memory.DefaultAllocator, Schema)
	defer b.Release()

	for i, r := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		appendRow(b, r)
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := pq.NewWriterProperties(pq.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(Schema, nopCloser{w}, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(ctx context.Context, path string, rows []records.Enriched) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(ctx, f, rows); err != nil {
		_ = f.Close()
		return errors.Join(err, os.Remove(path))
	}
	return f.Close()
}

func appendRow(b *array.RecordBuilder, r records.Enriched) {
	str := func(col int, s string) { b.Field(col).(*array.StringBuilder).Append(s) }
	optStr := func(col int, s *string) {
		fb := b.Field(col).(*array.StringBuilder)
		if s == nil {
			fb.AppendNull()
			return
		}
		fb.Append(*s)
	}
	optInt := func(col int, n *int64) {
		fb := b.Field(col).(*array.Int64Builder)
		if n == nil {
			fb.AppendNull()
			return
		}
		fb.Append(*n)
	}

	str(colInvoiceNo, r.InvoiceNo)
	str(colStockCode, r.StockCode)
	optStr(colDescription, r.Description)
	optInt(colQuantity, r.Quantity)
	str(colInvoiceDate, r.InvoiceDate.Format(DateLayout))
	b.Field(colUnitPrice).(*array.Float64Builder).Append(r.UnitPrice.InexactFloat64())
	optInt(colCustomerID, r.CustomerID)
	str(colCountry, r.Country)
	b.Field(colTotalAmount).(*array.Float64Builder).Append(r.TotalAmount().InexactFloat64())
	str(colYearMonth, aggregate.MonthOf(r.InvoiceDate).String())
	optStr(colSupplier, r.Supplier)
	optStr(colContinent, r.Continent)
}

// nopCloser keeps the file writer from closing the caller's writer.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
