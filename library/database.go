package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableResources    = "resources"
	tableMembers      = "members"
	tableIssued       = "issued"
	tableTransactions = "transactions"
)

// Database persists a Library in SQLite. The whole library is written as a
// snapshot by Save and rebuilt by Load.
type Database struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, dialect: goqu.Dialect("sqlite3")}, nil
}

func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errors.Wrap(err, "enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return errors.Wrap(err, "create meta")
	}

	var current int
	_ = db.Get(&current, `SELECT value FROM meta WHERE key='schema_version';`)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS resources (
            seq INTEGER PRIMARY KEY,
            resource_id INTEGER NOT NULL,
            kind TEXT NOT NULL,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            year INTEGER NOT NULL DEFAULT 0,
            available BOOLEAN NOT NULL DEFAULT 1,
            publisher TEXT NOT NULL DEFAULT '',
            isbn TEXT NOT NULL DEFAULT '',
            file_size TEXT NOT NULL DEFAULT '',
            format TEXT NOT NULL DEFAULT '',
            journal_name TEXT NOT NULL DEFAULT '',
            volume INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_resources_resource_id ON resources(resource_id);`,
		`CREATE TABLE IF NOT EXISTS members (
            seq INTEGER PRIMARY KEY,
            member_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            total_fine INTEGER NOT NULL DEFAULT 0
        );`,
		// resource_seq is NULL when the resource was removed from the
		// catalog while still issued.
		`CREATE TABLE IF NOT EXISTS issued (
            member_seq INTEGER NOT NULL REFERENCES members(seq) ON DELETE CASCADE,
            depth INTEGER NOT NULL,
            resource_seq INTEGER,
            resource_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            PRIMARY KEY (member_seq, depth)
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            seq INTEGER PRIMARY KEY,
            txn_id TEXT NOT NULL UNIQUE,
            resource_id INTEGER NOT NULL,
            member_id INTEGER NOT NULL,
            occurred_at INTEGER NOT NULL,
            action TEXT NOT NULL,
            fine_amount INTEGER NOT NULL DEFAULT 0
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrap(err, "apply migration")
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return errors.Wrap(err, "record schema version")
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Rows
// ---------------------------------------------------------------------------

type resourceRow struct {
	Seq         int64  `db:"seq"`
	ResourceID  int64  `db:"resource_id"`
	Kind        string `db:"kind"`
	Title       string `db:"title"`
	Author      string `db:"author"`
	Year        int    `db:"year"`
	Available   bool   `db:"available"`
	Publisher   string `db:"publisher"`
	ISBN        string `db:"isbn"`
	FileSize    string `db:"file_size"`
	Format      string `db:"format"`
	JournalName string `db:"journal_name"`
	Volume      int    `db:"volume"`
}

var resourceColumns = []any{
	"seq", "resource_id", "kind", "title", "author", "year", "available",
	"publisher", "isbn", "file_size", "format", "journal_name", "volume",
}

type memberRow struct {
	Seq       int64  `db:"seq"`
	MemberID  int64  `db:"member_id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	TotalFine int    `db:"total_fine"`
}

type issuedRow struct {
	MemberSeq   int64  `db:"member_seq"`
	Depth       int    `db:"depth"`
	ResourceSeq *int64 `db:"resource_seq"`
	ResourceID  int64  `db:"resource_id"`
	Title       string `db:"title"`
	Author      string `db:"author"`
}

type transactionRow struct {
	Seq        int64  `db:"seq"`
	TxnID      string `db:"txn_id"`
	ResourceID int64  `db:"resource_id"`
	MemberID   int64  `db:"member_id"`
	OccurredAt int64  `db:"occurred_at"`
	Action     string `db:"action"`
	FineAmount int    `db:"fine_amount"`
}

func toResourceRow(seq int64, r *Resource) resourceRow {
	row := resourceRow{
		Seq:        seq,
		ResourceID: r.ID,
		Kind:       string(r.Kind()),
		Title:      r.Title,
		Author:     r.Author,
		Year:       r.Year,
		Available:  r.Available,
	}
	switch v := r.Variant.(type) {
	case BookInfo:
		row.Publisher, row.ISBN = v.Publisher, v.ISBN
	case EBookInfo:
		row.FileSize, row.Format = v.FileSize, v.Format
	case JournalInfo:
		row.JournalName, row.Volume = v.JournalName, v.Volume
	}
	return row
}

func (row resourceRow) toResource() *Resource {
	r := &Resource{
		ID:        row.ResourceID,
		Title:     row.Title,
		Author:    row.Author,
		Year:      row.Year,
		Available: row.Available,
	}
	switch Kind(row.Kind) {
	case KindBook:
		r.Variant = BookInfo{Publisher: row.Publisher, ISBN: row.ISBN}
	case KindEBook:
		r.Variant = EBookInfo{FileSize: row.FileSize, Format: row.Format}
	case KindJournal:
		r.Variant = JournalInfo{JournalName: row.JournalName, Volume: row.Volume}
	}
	return r
}

// ---------------------------------------------------------------------------
// Snapshot persistence
// ---------------------------------------------------------------------------

// Save replaces the stored state with lib in a single transaction.
func (d *Database) Save(lib *Library) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	for _, table := range []string{tableIssued, tableMembers, tableResources, tableTransactions} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	seqOf := make(map[*Resource]int64, len(lib.resources))
	for i, r := range lib.resources {
		seq := int64(i + 1)
		seqOf[r] = seq
		if err := d.insert(tx, tableResources, toResourceRow(seq, r)); err != nil {
			return err
		}
	}

	for i, m := range lib.members {
		memberSeq := int64(i + 1)
		row := memberRow{Seq: memberSeq, MemberID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, TotalFine: m.totalFine}
		if err := d.insert(tx, tableMembers, row); err != nil {
			return err
		}
		for depth, r := range m.issued {
			ir := issuedRow{MemberSeq: memberSeq, Depth: depth, ResourceID: r.ID, Title: r.Title, Author: r.Author}
			if seq, ok := seqOf[r]; ok {
				ir.ResourceSeq = &seq
			}
			if err := d.insert(tx, tableIssued, ir); err != nil {
				return err
			}
		}
	}

	for i, t := range lib.transactions {
		row := transactionRow{
			Seq:        int64(i + 1),
			TxnID:      t.ID,
			ResourceID: t.ResourceID,
			MemberID:   t.MemberID,
			OccurredAt: t.Date.Unix(),
			Action:     string(t.Action),
			FineAmount: t.FineAmount,
		}
		if err := d.insert(tx, tableTransactions, row); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit save")
}

func (d *Database) insert(tx *sqlx.Tx, table string, row any) error {
	query, args, err := d.dialect.Insert(table).Prepared(true).Rows(row).ToSQL()
	if err != nil {
		return errors.Wrapf(err, "build insert into %s", table)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "insert into %s", table)
	}
	return nil
}

func (d *Database) selectAll(q sqlx.Queryer, dest any, table string, cols ...any) error {
	query, args, err := d.dialect.From(table).Prepared(true).Select(cols...).Order(goqu.C("seq").Asc()).ToSQL()
	if err != nil {
		return errors.Wrapf(err, "build select from %s", table)
	}
	return errors.Wrapf(sqlx.Select(q, dest, query, args...), "select from %s", table)
}

// Load rebuilds a Library from the stored snapshot. opts configure the
// returned Library as they would for New.
func (d *Database) Load(opts ...Option) (*Library, error) {
	lib := New(opts...)

	var resources []resourceRow
	if err := d.selectAll(d.db, &resources, tableResources, resourceColumns...); err != nil {
		return nil, err
	}
	bySeq := make(map[int64]*Resource, len(resources))
	for _, row := range resources {
		r := row.toResource()
		bySeq[row.Seq] = r
		lib.resources = append(lib.resources, r)
	}

	var members []memberRow
	if err := d.selectAll(d.db, &members, tableMembers, "seq", "member_id", "name", "email", "phone", "total_fine"); err != nil {
		return nil, err
	}

	var issued []issuedRow
	query, args, err := d.dialect.From(tableIssued).Prepared(true).
		Select("member_seq", "depth", "resource_seq", "resource_id", "title", "author").
		Order(goqu.C("member_seq").Asc(), goqu.C("depth").Asc()).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build select from issued")
	}
	if err := d.db.Select(&issued, query, args...); err != nil {
		return nil, errors.Wrap(err, "select from issued")
	}
	stacks := make(map[int64][]*Resource)
	for _, row := range issued {
		var r *Resource
		if row.ResourceSeq != nil {
			r = bySeq[*row.ResourceSeq]
		}
		if r == nil {
			r = &Resource{ID: row.ResourceID, Title: row.Title, Author: row.Author}
		}
		stacks[row.MemberSeq] = append(stacks[row.MemberSeq], r)
	}

	for _, row := range members {
		m := NewMember(row.MemberID, row.Name, row.Email, row.Phone)
		m.SetPolicy(lib.policy)
		m.restore(stacks[row.Seq], row.TotalFine)
		lib.members = append(lib.members, m)
	}

	var txns []transactionRow
	if err := d.selectAll(d.db, &txns, tableTransactions, "seq", "txn_id", "resource_id", "member_id", "occurred_at", "action", "fine_amount"); err != nil {
		return nil, err
	}
	for _, row := range txns {
		t := Transaction{
			ID:         row.TxnID,
			ResourceID: row.ResourceID,
			MemberID:   row.MemberID,
			Date:       time.Unix(row.OccurredAt, 0),
			Action:     Action(row.Action),
			FineAmount: row.FineAmount,
		}
		lib.RecordTransaction(t)
	}

	return lib, nil
}

// SearchResources returns stored resources whose title or author contains
// q, ignoring ASCII case. The results are detached copies.
func (d *Database) SearchResources(q string) ([]*Resource, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*Resource{}, nil
	}
	pattern := "%" + q + "%"
	query, args, err := d.dialect.From(tableResources).Prepared(true).
		Select(resourceColumns...).
		Where(goqu.Or(goqu.C("title").Like(pattern), goqu.C("author").Like(pattern))).
		Order(goqu.C("seq").Asc()).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build search")
	}

	var rows []resourceRow
	if err := d.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "search resources")
	}
	results := make([]*Resource, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResource())
	}
	return results, nil
}
