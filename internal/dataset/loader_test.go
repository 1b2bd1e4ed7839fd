package dataset

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/models"
)

// fakeConn satisfies driver.Conn for paths that never reach a query.
type fakeConn struct{ driver.Conn }

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `home_team,away_team,home_pts,away_pts,home_win
LAL,GSW,110,100,1
BOS,MIA,98,104,false
NYK,CHI,105.5,101,true
`)

	loader := NewLoader(nil, zap.NewNop())
	table, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}

	pts, ok := table.Column("home_pts")
	if !ok {
		t.Fatal("home_pts column missing")
	}
	if pts[2] != 105.5 {
		t.Errorf("home_pts[2] = %v, want 105.5", pts[2])
	}

	wins, ok := table.Column("home_win")
	if !ok {
		t.Fatal("home_win column missing")
	}
	if wins[0] != 1 || wins[1] != 0 || wins[2] != 1 {
		t.Errorf("home_win = %v, want [1 0 1]", wins)
	}

	// Text columns parse to NaN and are ignored downstream.
	teams, _ := table.Column("home_team")
	if !math.IsNaN(teams[0]) {
		t.Errorf("home_team[0] = %v, want NaN", teams[0])
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	loader := NewLoader(nil, zap.NewNop())
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, models.ErrDataNotFound) {
		t.Fatalf("err = %v, want ErrDataNotFound", err)
	}
}

func TestLoadCSVHeaderOnly(t *testing.T) {
	path := writeCSV(t, "home_pts,away_pts,home_win\n")
	loader := NewLoader(nil, zap.NewNop())
	if _, err := loader.Load(context.Background(), path); !errors.Is(err, models.ErrDataNotFound) {
		t.Fatalf("err = %v, want ErrDataNotFound", err)
	}
}

func TestLoadWarehouseUnconfigured(t *testing.T) {
	loader := NewLoader(nil, zap.NewNop())
	_, err := loader.Load(context.Background(), "ch://games")
	if !errors.Is(err, models.ErrDataNotFound) {
		t.Fatalf("err = %v, want ErrDataNotFound", err)
	}
}

func TestWarehouseTableNameValidation(t *testing.T) {
	loader := NewLoader(&fakeConn{}, zap.NewNop())
	_, err := loader.Load(context.Background(), "ch://games; DROP TABLE users")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
