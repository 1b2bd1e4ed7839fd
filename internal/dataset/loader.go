// Package dataset loads historical game tables for training. Two sources
// are supported: a CSV file on disk, and a table in the games warehouse
// (ClickHouse) addressed as "ch://<table>", where the data-fetch
// collaborator lands rows it has pulled from upstream providers.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/features"
	"github.com/hoopcast/prediction-api/internal/models"
)

const warehousePrefix = "ch://"

// warehouseColumns is the fixed contract with the games warehouse. home_win
// is UInt8, everything else Float64.
var warehouseColumns = []string{
	"home_pts", "away_pts",
	"home_reb", "away_reb",
	"home_ast", "away_ast",
	"home_tov", "away_tov",
	"home_elo", "away_elo",
	"home_injuries", "away_injuries",
	"home_roll5_pts", "away_roll5_pts",
	"home_roll5_reb", "away_roll5_reb",
	"home_roll5_ast", "away_roll5_ast",
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

type Loader struct {
	ch     driver.Conn
	logger *zap.SugaredLogger
}

// NewLoader creates a loader. ch may be nil when no warehouse is configured;
// CSV loading still works.
func NewLoader(ch driver.Conn, logger *zap.Logger) *Loader {
	return &Loader{ch: ch, logger: logger.Sugar()}
}

// Load resolves a dataset source into a column table.
func (l *Loader) Load(ctx context.Context, path string) (*features.Table, error) {
	if strings.HasPrefix(path, warehousePrefix) {
		return l.loadWarehouse(ctx, strings.TrimPrefix(path, warehousePrefix))
	}
	return l.loadCSV(path)
}

func (l *Loader) loadCSV(path string) (*features.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrDataNotFound, path)
		}
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", models.ErrDataNotFound, path)
	}

	header := records[0]
	rows := records[1:]

	table := features.NewTable(len(rows))
	for col, name := range header {
		values := make([]float64, len(rows))
		for i, row := range rows {
			if col >= len(row) {
				values[i] = math.NaN()
				continue
			}
			values[i] = parseCell(row[col])
		}
		table.SetColumn(strings.TrimSpace(name), values)
	}

	l.logger.Infow("Dataset loaded", "source", path, "rows", len(rows), "columns", len(header))
	return table, nil
}

// parseCell parses a CSV cell as a number, accepting booleans for outcome
// columns. Non-numeric cells (team names, dates) become NaN and are ignored
// by the feature builder.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	switch strings.ToLower(s) {
	case "true", "t", "yes":
		return 1
	case "false", "f", "no":
		return 0
	}
	return math.NaN()
}

func (l *Loader) loadWarehouse(ctx context.Context, tableName string) (*features.Table, error) {
	if l.ch == nil {
		return nil, fmt.Errorf("%w: warehouse source %q requested but CLICKHOUSE_URL is not configured", models.ErrDataNotFound, tableName)
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("%w: invalid warehouse table name %q", models.ErrValidation, tableName)
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s",
		strings.Join(warehouseColumns, ", "), features.LabelColumn, tableName)

	rows, err := l.ch.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: warehouse table %s: %v", models.ErrDataNotFound, tableName, err)
	}
	defer rows.Close()

	columns := make([][]float64, len(warehouseColumns))
	var labels []float64

	scan := make([]float64, len(warehouseColumns))
	dest := make([]interface{}, 0, len(warehouseColumns)+1)
	for rows.Next() {
		dest = dest[:0]
		for i := range scan {
			dest = append(dest, &scan[i])
		}
		var homeWin uint8
		dest = append(dest, &homeWin)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan warehouse row: %w", err)
		}
		for i, v := range scan {
			columns[i] = append(columns[i], v)
		}
		labels = append(labels, float64(homeWin))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read warehouse rows: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: warehouse table %s is empty", models.ErrDataNotFound, tableName)
	}

	table := features.NewTable(len(labels))
	for i, name := range warehouseColumns {
		table.SetColumn(name, columns[i])
	}
	table.SetColumn(features.LabelColumn, labels)

	l.logger.Infow("Dataset loaded", "source", warehousePrefix+tableName, "rows", len(labels))
	return table, nil
}
