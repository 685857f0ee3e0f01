// README: Ledger export to Parquet files, optionally shipped to S3.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"courier/internal/modules/order"
)

// Row is one ledger entry as written to Parquet.
type Row struct {
	OrderID        string  `parquet:"name=orderId, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status         string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	Restaurant     string  `parquet:"name=restaurant, type=BYTE_ARRAY, convertedtype=UTF8"`
	Customer       string  `parquet:"name=customer, type=BYTE_ARRAY, convertedtype=UTF8"`
	Items          string  `parquet:"name=items, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemCount      int32   `parquet:"name=itemCount, type=INT32"`
	DistanceKm     float64 `parquet:"name=distanceKm, type=DOUBLE"`
	EarningsMinor  int64   `parquet:"name=earningsMinor, type=INT64"`
	Currency       string  `parquet:"name=currency, type=BYTE_ARRAY, convertedtype=UTF8"`
	PaymentType    string  `parquet:"name=paymentType, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAtMilli int64   `parquet:"name=createdAt, type=INT64"`
	Day            string  `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toRow(o order.Order, loc *time.Location) Row {
	names := make([]string, 0, len(o.Items))
	var count int32
	for _, it := range o.Items {
		names = append(names, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		count += int32(it.Quantity)
	}
	return Row{
		OrderID:        string(o.ID),
		Status:         string(o.Status),
		Restaurant:     o.Restaurant.Name,
		Customer:       o.Customer.Name,
		Items:          strings.Join(names, ", "),
		ItemCount:      count,
		DistanceKm:     o.DistanceKm,
		EarningsMinor:  o.Earnings.Amount,
		Currency:       o.Earnings.Currency,
		PaymentType:    string(o.PaymentType),
		CreatedAtMilli: o.CreatedAt.UnixMilli(),
		Day:            o.CreatedAt.In(loc).Format("2006-01-02"),
	}
}

// WriteParquet writes orders to path and returns the number of rows.
// Progress is drawn on progress when it is non-nil.
func WriteParquet(path string, orders []order.Order, loc *time.Location, progress io.Writer) (int, error) {
	if loc == nil {
		loc = time.Local
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		return 0, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 16 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions64(int64(len(orders)),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("exporting ledger"),
			progressbar.OptionShowCount(),
		)
	}
	for _, o := range orders {
		if err := pw.Write(toRow(o, loc)); err != nil {
			_ = pw.WriteStop()
			return 0, fmt.Errorf("write order %s: %w", o.ID, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("finish parquet: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return len(orders), nil
}
