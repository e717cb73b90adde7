// Package datarecording stores flat records produced during a simulation in
// a SQLite database.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables created by the recorder.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

type table struct {
	structType reflect.Type
	columns    []string
	entries    []any
}

// SQLiteRecorder is a DataRecorder that writes into a SQLite database.
type SQLiteRecorder struct {
	*sql.DB

	dbName     string
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
}

// New creates a DataRecorder that writes to <path>.sqlite3. A random name is
// used if path is empty. The file must not exist yet. Buffered entries are
// flushed when the program exits through atexit.
func New(path string) *SQLiteRecorder {
	r := newRecorder()
	r.dbName = path
	r.open()

	atexit.Register(func() { r.Flush() })

	return r
}

// NewWithDB creates a DataRecorder with a given database.
func NewWithDB(db *sql.DB) *SQLiteRecorder {
	r := newRecorder()
	r.DB = db

	atexit.Register(func() { r.Flush() })

	return r
}

func newRecorder() *SQLiteRecorder {
	return &SQLiteRecorder{
		batchSize: 100000,
		tables:    make(map[string]*table),
	}
}

// WithBatchSize sets how many entries are buffered before an automatic flush.
func (r *SQLiteRecorder) WithBatchSize(n int) *SQLiteRecorder {
	r.batchSize = n
	return r
}

// Filename returns the database file, or an empty string if the recorder
// was given an open database.
func (r *SQLiteRecorder) Filename() string {
	if r.dbName == "" {
		return ""
	}

	return r.dbName + ".sqlite3"
}

func (r *SQLiteRecorder) open() {
	if r.dbName == "" {
		r.dbName = "vmsim_record_" + xid.New().String()
	}

	filename := r.Filename()

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	err = db.Ping()
	if err != nil {
		panic(err)
	}

	r.DB = db

	// SQLite does not create the file until the first write.
	r.mustExecute("PRAGMA user_version = 1")

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return errors.New("entry must be a struct")
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of kind %s cannot be recorded",
				field.Name, field.Type.Kind())
		}
	}

	return nil
}

// CreateTable creates a table named after tableName. Creating a table that
// the recorder already knows panics.
func (r *SQLiteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if _, exists := r.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns := structs.Names(sampleEntry)
	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + strings.Join(columns, ", \n\t") + "\n" + `);`
	r.mustExecute(createTableSQL)

	r.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		columns:    columns,
	}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry. The entry must have the same type as the
// sample entry of the table.
func (r *SQLiteRecorder) InsertData(tableName string, entry any) {
	t, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	t.entries = append(t.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.Flush()
	}
}

// ListTables returns the table names in creation order.
func (r *SQLiteRecorder) ListTables() []string {
	return append([]string(nil), r.tableNames...)
}

// Flush writes the buffered entries of all tables in one transaction.
func (r *SQLiteRecorder) Flush() {
	if r.entryCount == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range r.tableNames {
		t := r.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		r.insertEntries(tableName, t)
		t.entries = nil
	}

	r.entryCount = 0
}

func (r *SQLiteRecorder) insertEntries(tableName string, t *table) {
	placeholders := make([]string, len(t.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := r.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		v := reflect.ValueOf(entry)
		values := make([]any, 0, v.NumField())

		for i := 0; i < v.NumField(); i++ {
			values = append(values, v.Field(i).Interface())
		}

		if _, err := stmt.Exec(values...); err != nil {
			panic(err)
		}
	}
}

// Close flushes the buffered entries and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.Flush()
	return r.DB.Close()
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
