package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeRows serves preloaded rows through the pgx.Rows interface.
type fakeRows struct {
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, value := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = value.(string)
		case *int:
			*d = value.(int)
		case *[]float64:
			*d = value.([]float64)
		case *[]string:
			*d = value.([]string)
		case *[]byte:
			if value != nil {
				*d = value.([]byte)
			}
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

type fakeQuerier struct {
	rows    *fakeRows
	err     error
	sql     string
	args    []any
	queries int
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.queries++
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func caseRow(id string, age int, vitals []byte) []any {
	return []any{
		id, []float64{0.1, 0.2}, age, "F", "adm-" + id,
		[]string{"J18.9"}, []string{"Pneumonia"}, "productive cough",
		vitals, nil, nil, nil, nil,
	}
}

func TestSource_List(t *testing.T) {
	rows := &fakeRows{data: [][]any{
		caseRow("c-001", 71, []byte(`{"temp":"38.9"}`)),
		caseRow("c-002", 0, nil),
	}}
	db := &fakeQuerier{rows: rows}

	records, err := NewSource(db).List(context.Background(), "c-000", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []any{"c-000", 2}, db.args)
	require.Contains(t, db.sql, "ORDER BY id")
	require.True(t, rows.closed)

	first := records[0]
	require.Equal(t, "c-001", first.ID)
	require.Equal(t, []float64{0.1, 0.2}, first.Embedding)
	require.Equal(t, 71, first.Age)
	require.Equal(t, []string{"J18.9"}, first.ICDCodes)
	require.JSONEq(t, `{"temp":"38.9"}`, string(first.Vitals))
	require.Nil(t, first.Outcomes)

	require.Nil(t, records[1].Vitals)
}

func TestSource_List_Errors(t *testing.T) {
	_, err := NewSource(&fakeQuerier{err: errors.New("connection refused")}).List(context.Background(), "", 10)
	require.ErrorContains(t, err, "query case_records")

	rows := &fakeRows{err: errors.New("conn closed")}
	_, err = NewSource(&fakeQuerier{rows: rows}).List(context.Background(), "", 10)
	require.ErrorContains(t, err, "iterate case_records")
}

func TestSource_List_ZeroLimit(t *testing.T) {
	db := &fakeQuerier{}

	records, err := NewSource(db).List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, 0, db.queries)
}

func TestNewPool_RequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), &Config{})
	require.Error(t, err)
}
