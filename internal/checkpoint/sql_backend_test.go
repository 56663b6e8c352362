package checkpoint

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"streamvault/internal/database"
)

// flakyRowsConnector backs a database/sql handle whose result sets fail
// partway through iteration, after yielding one good row.
type flakyRowsConnector struct{}

func (flakyRowsConnector) Connect(context.Context) (driver.Conn, error) { return flakyConn{}, nil }
func (flakyRowsConnector) Driver() driver.Driver                        { return flakyDriver{} }

type flakyDriver struct{}

func (flakyDriver) Open(string) (driver.Conn, error) { return flakyConn{}, nil }

type flakyConn struct{}

func (flakyConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (flakyConn) Close() error              { return nil }
func (flakyConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

func (flakyConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return &flakyRows{}, nil
}

type flakyRows struct {
	served int
}

func (r *flakyRows) Columns() []string {
	return []string{"id", "thread_id", "research_topic", "report_style", "messages", "ts"}
}

func (r *flakyRows) Close() error { return nil }

func (r *flakyRows) Next(dest []driver.Value) error {
	if r.served > 0 {
		return errors.New("connection reset during iteration")
	}
	r.served++
	dest[0] = "id-1"
	dest[1] = "thread-1"
	dest[2] = "quantum computing"
	dest[3] = "academic"
	dest[4] = int64(3)
	dest[5] = time.Now()
	return nil
}

func TestListReplaySummariesIterationFailure(t *testing.T) {
	db := &database.DB{DB: sql.OpenDB(flakyRowsConnector{})}
	t.Cleanup(func() { db.Close() })

	backend := newSQLBackend(db)

	// The rows fetched before the failure are still returned; the iteration
	// error is logged and swallowed like every other backend failure.
	summaries := backend.ListReplaySummaries(context.Background(), 10, "ts")
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want the 1 row served before the failure", len(summaries))
	}
	if summaries[0].ThreadID != "thread-1" {
		t.Errorf("ThreadID = %q, want thread-1", summaries[0].ThreadID)
	}
	if summaries[0].Messages != 3 {
		t.Errorf("Messages = %d, want 3", summaries[0].Messages)
	}
}
