package train

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mbd888/fraudwatch/internal/feature"
)

// Row is one labeled historical transaction. Label 1 means confirmed fraud.
type Row struct {
	Tx    feature.Transaction
	Label int
}

// LoadCSV reads a labeled dataset. The file must have a header row with at
// least the columns amount, ts, status, retry, memo and label; extra columns
// are ignored. Feature columns tolerate missing or malformed values the same
// way live extraction does, but every label must parse as 0 or 1.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows tolerated, label still required

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	labelIdx, ok := idx["label"]
	if !ok {
		return nil, fmt.Errorf("dataset is missing the label column")
	}
	col := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}
	amountIdx, tsIdx, statusIdx, retryIdx, memoIdx :=
		col("amount"), col("ts"), col("status"), col("retry"), col("memo")

	var rows []Row
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", line+1, err)
		}
		line++

		label, err := parseLabel(field(record, labelIdx))
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", line, err)
		}

		tx := feature.Transaction{}
		if v := field(record, amountIdx); v != "" {
			if amount, err := strconv.ParseFloat(v, 64); err == nil {
				tx["amount"] = amount
			}
		}
		if v := field(record, tsIdx); v != "" {
			if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
				tx["ts"] = ts
			}
		}
		if v := field(record, statusIdx); v != "" {
			tx["status"] = v
		}
		if v := field(record, retryIdx); v != "" {
			tx["retry"] = v
		}
		if v := field(record, memoIdx); v != "" {
			tx["memo"] = v
		}

		rows = append(rows, Row{Tx: tx, Label: label})
	}

	return rows, nil
}

// field returns record[i], or "" when the column is absent in the header or
// the row is too short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseLabel(v string) (int, error) {
	switch v {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("label must be 0 or 1, got %q", v)
	}
}
