// Command mergejournal merges POS journal CSV exports (CP932 encoded,
// named ジャーナル履歴_*.csv) into one UTF-8 file sorted by sales date and
// time, optionally emitting a daily visitor/sales summary.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/storefront-labs/storecast/history"
)

// Journal export column positions.
const (
	colReceiptNo = 0
	colSalesDate = 2
	colSalesTime = 3
	colSubtotal  = 30
	colTax       = 41
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func main() {
	dir := flag.String("dir", ".", "directory holding journal csv exports")
	out := flag.String("out", "merged_journal.csv", "merged output path")
	summary := flag.String("summary", "", "optional daily summary output path")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	paths, err := filepath.Glob(filepath.Join(*dir, "ジャーナル履歴_*.csv"))
	if err != nil || len(paths) == 0 {
		logger.Fatal().Err(err).Str("dir", *dir).Msg("no journal files found")
	}
	sort.Strings(paths)

	var header []string
	var rows [][]string
	seen := make(map[string]struct{})
	for _, path := range paths {
		fileRows, err := readCP932CSV(path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("reading journal file")
		}
		if len(fileRows) == 0 {
			continue
		}
		if header == nil {
			header = fileRows[0]
		}
		for _, row := range fileRows[1:] {
			key := strings.Join(row, "\x1f")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, row)
		}
		logger.Info().Str("path", path).Int("rows", len(fileRows)-1).Msg("loaded")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rowTime(rows[i]), rowTime(rows[j])
		return ti.Before(tj)
	})

	if err := writeCSV(*out, header, rows); err != nil {
		logger.Fatal().Err(err).Msg("writing merged output")
	}
	logger.Info().Str("path", *out).Int("rows", len(rows)).Msg("merged")

	if *summary == "" {
		return
	}
	if err := writeSummary(*summary, rows); err != nil {
		logger.Fatal().Err(err).Msg("writing summary")
	}
	logger.Info().Str("path", *summary).Msg("summary written")
}

func readCP932CSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, japanese.ShiftJIS.NewDecoder()))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func rowTime(row []string) time.Time {
	if len(row) <= colSalesTime {
		return time.Time{}
	}
	t, err := time.Parse("2006/01/02 15:04:05", row[colSalesDate]+" "+row[colSalesTime])
	if err != nil {
		return time.Time{}
	}
	return t
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Excel needs the BOM to pick UTF-8 over CP932
	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// writeSummary aggregates the merged rows into daily visitor and sales
// totals using the same rollup the history store applies to journal data.
func writeSummary(path string, rows [][]string) error {
	entries := make([]history.JournalEntry, 0, len(rows))
	for _, row := range rows {
		if len(row) <= colTax {
			continue
		}
		ts := rowTime(row)
		if ts.IsZero() {
			continue
		}
		subtotal, _ := strconv.ParseFloat(row[colSubtotal], 64)
		tax, _ := strconv.ParseFloat(row[colTax], 64)
		entries = append(entries, history.JournalEntry{
			Date:      ts,
			ReceiptNo: row[colReceiptNo],
			Subtotal:  subtotal,
			Tax:       tax,
		})
	}

	daily := history.AggregateJournal(entries)
	out := make([][]string, 0, len(daily))
	for _, d := range daily {
		out = append(out, []string{
			d.Date.Format("2006-01-02"),
			strconv.Itoa(int(d.VisitorCount)),
			fmt.Sprintf("%.0f", d.SalesAmount),
		})
	}
	return writeCSV(path, []string{"date", "visitor_count", "sales_amount"}, out)
}
