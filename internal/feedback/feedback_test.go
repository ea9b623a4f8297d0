package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, path string) []Record {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec), "every line must be standalone JSON")
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestRecordAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	r := NewRecorder(path)

	require.NoError(t, r.Record("tx_1", 1))
	require.NoError(t, r.Record("tx_2", 0))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "tx_1", records[0].TxID)
	assert.Equal(t, 1, records[0].Label)
	assert.Equal(t, "tx_2", records[1].TxID)
	assert.Equal(t, 0, records[1].Label)
	assert.False(t, records[0].RecordedAt.IsZero())
}

func TestRecordCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "feedback.jsonl")
	r := NewRecorder(path)

	require.NoError(t, r.Record("tx_1", 1))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRecordRejectsBadInput(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "feedback.jsonl"))

	assert.Error(t, r.Record("", 1))
	assert.Error(t, r.Record("tx_1", 2))
	assert.Error(t, r.Record("tx_1", -1))
}

func TestRecordPreservesPriorEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	require.NoError(t, NewRecorder(path).Record("tx_old", 0))
	// A fresh recorder on the same path must append, not truncate.
	require.NoError(t, NewRecorder(path).Record("tx_new", 1))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "tx_old", records[0].TxID)
	assert.Equal(t, "tx_new", records[1].TxID)
}

func TestRecordConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	r := NewRecorder(path)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, r.Record(fmt.Sprintf("tx_%d", n), n%2))
		}(i)
	}
	wg.Wait()

	records := readRecords(t, path)
	assert.Len(t, records, 50)
}
