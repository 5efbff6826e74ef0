package tilefix

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mitchellh/go-homedir"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqlInsertRun = `INSERT INTO runs (id, source, source_sum, output, output_sum, tile_width, tile_height, margin, spacing, tile_columns, tile_rows, created)
		VALUES (:id, :source, :source_sum, :output, :output_sum, :tile_width, :tile_height, :margin, :spacing, :tile_columns, :tile_rows, :created);`
	sqlProduced = `SELECT count(*) FROM runs WHERE output_sum=?;`
	sqlRuns     = `SELECT * FROM runs ORDER BY created ASC;`
)

// Ledger is an on disk journal of padded tilesets. It lets us notice when
// we're handed one of our own outputs, padding that again would add a
// second halo.
type Ledger struct {
	filename string
	db       *sqlx.DB
}

// Run is one recorded invocation
type Run struct {
	ID         string `db:"id"`
	Source     string `db:"source"`
	SourceSum  string `db:"source_sum"`
	Output     string `db:"output"`
	OutputSum  string `db:"output_sum"`
	TileWidth  int    `db:"tile_width"`
	TileHeight int    `db:"tile_height"`
	Margin     int    `db:"margin"`
	Spacing    int    `db:"spacing"`
	Columns    int    `db:"tile_columns"`
	Rows       int    `db:"tile_rows"`
	Created    int64  `db:"created"` // unix seconds
}

// NewRun crafts a Run from a plan and the data read & written
func NewRun(source, output string, plan *Plan, in, out []byte) *Run {
	return &Run{
		ID:         uuid.New().String(),
		Source:     source,
		SourceSum:  Checksum(in),
		Output:     output,
		OutputSum:  Checksum(out),
		TileWidth:  plan.Config.TileWidth,
		TileHeight: plan.Config.TileHeight,
		Margin:     plan.Config.Margin,
		Spacing:    plan.Config.Spacing,
		Columns:    plan.Columns,
		Rows:       plan.Rows,
		Created:    time.Now().Unix(),
	}
}

// Checksum returns the hex sha256 of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OpenLedger given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenLedger(fname string) (*Ledger, error) {
	fpath, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", fpath)
	if err != nil {
		return nil, err
	}

	l := &Ledger{db: db, filename: fpath}
	if err := l.init(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Filename returns the path to the ledger on disk
func (l *Ledger) Filename() string {
	return l.filename
}

// Close the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record a run
func (l *Ledger) Record(r *Run) error {
	_, err := l.db.NamedExec(sqlInsertRun, r)
	return err
}

// Produced returns if some run wrote a file with the given checksum
func (l *Ledger) Produced(sum string) (bool, error) {
	var num int64
	err := l.db.Get(&num, sqlProduced, sum)
	if err != nil {
		return false, err
	}
	return num > 0, nil
}

// Check returns ErrAlreadyPadded if `data` is the output of a recorded run
func (l *Ledger) Check(data []byte) error {
	seen, err := l.Produced(Checksum(data))
	if err != nil {
		return err
	}
	if seen {
		return fmt.Errorf("%w: input was written by a previous run (see %s)", ErrAlreadyPadded, l.filename)
	}
	return nil
}

// Runs returns all recorded runs, oldest first
func (l *Ledger) Runs() ([]*Run, error) {
	runs := []*Run{}
	err := l.db.Select(&runs, sqlRuns)
	return runs, err
}

// init creates our table if it doesn't exist
func (l *Ledger) init() error {
	createRuns := `CREATE TABLE IF NOT EXISTS runs(
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_sum TEXT NOT NULL,
		output TEXT NOT NULL,
		output_sum TEXT NOT NULL,
		tile_width INTEGER NOT NULL,
		tile_height INTEGER NOT NULL,
		margin INTEGER NOT NULL,
		spacing INTEGER NOT NULL,
		tile_columns INTEGER NOT NULL,
		tile_rows INTEGER NOT NULL,
		created INTEGER NOT NULL
	    );`
	_, err := l.db.Exec(createRuns)
	if err != nil {
		return err
	}

	_, err = l.db.Exec(`CREATE INDEX IF NOT EXISTS runs_output_sum ON runs(output_sum);`)
	return err
}
