package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/meteo-vigilance/vigilance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phenomenonTable() vigilance.PhenomenonTable {
	return vigilance.PhenomenonTable{
		{
			Echeance:        vigilance.EcheanceToday,
			DomainID:        "13",
			PhenomenonID:    "1",
			PhenomenonLabel: "vent",
			BeginTime:       time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC),
			EndTime:         time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC),
			ColorID:         3,
			ColorName:       "Orange",
		},
		{
			Echeance:        vigilance.EcheanceTomorrow,
			DomainID:        "2A",
			PhenomenonID:    "5",
			PhenomenonLabel: "neige / verglas",
			ColorID:         2,
			ColorName:       "Jaune",
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = ParseFormat("parquet")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, phenomenonTable(), CSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, phenomenonTable().Columns(), rows[0])
	assert.Equal(t, []string{"J", "13", "1", "vent", "2026-01-15T06:00:00Z", "2026-01-16T00:00:00Z", "3", "Orange"}, rows[1])
	assert.Equal(t, []string{"J1", "2A", "5", "neige / verglas", "", "", "2", "Jaune"}, rows[2])
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, vigilance.TimelapseTable{}))

	assert.Equal(t, "domain_id,phenomenon_id,phenomenon_label,max_color_id,max_color_name\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, phenomenonTable(), JSON))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "13", first["domain_id"])
	assert.Equal(t, "2026-01-15T06:00:00Z", first["begin_time"])
	assert.InDelta(t, 3, first["color_id"], 0)
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, phenomenonTable(), Format("xml")))
}
