// Package txdb implements the transaction database: ingestion of raw
// transactions, per-item occurrence counting, and the frequency filter that
// fixes the canonical item order every prefix tree is built in.
//
// Input Format
// ============
//
// One transaction per non-blank line. Items are separated by whitespace
// and/or commas, so all of the following describe the same transaction:
//
//	bread milk eggs
//	bread,milk,eggs
//	bread, milk  eggs,
//
// Duplicates inside one line collapse to a single occurrence. A directory is
// read file by file in lexical name order and all files are concatenated into
// one database.
//
// Counting
// ========
//
// Item counts are accumulated during ingestion, so the first pass over the
// data happens while it is read. Counts are the number of transactions that
// contain the item, never the number of token occurrences.
package txdb

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	pkgerrors "github.com/pkg/errors"

	"fpm.lopezb.com/internal/fpm"
)

// maxLineSize bounds a single transaction line. Scanner's default of 64KB is
// too small for wide basket datasets.
const maxLineSize = 16 * 1024 * 1024

var (
	// ErrNotDirectory is returned when the input path is not a directory.
	ErrNotDirectory = errors.New("txdb: input is not a directory")

	// ErrNoFiles is returned when the input directory holds no regular files.
	ErrNoFiles = errors.New("txdb: no files in input directory")
)

// Transaction is a set of items. Order follows first appearance in the input
// and carries no meaning.
type Transaction []string

// DB is an in-memory transaction database with per-item counts.
type DB struct {
	txs    []Transaction
	counts map[string]int
	seen   map[string]struct{}
}

// New returns an empty database.
func New() *DB {
	return &DB{
		counts: make(map[string]int),
		seen:   make(map[string]struct{}),
	}
}

// FromTransactions builds a database over already-split transactions. Each
// transaction is deduplicated and counted exactly like ingested input.
func FromTransactions(txs []Transaction) *DB {
	db := New()
	db.txs = make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		db.Add(tx)
	}
	return db
}

// Add deduplicates tokens into a transaction and counts its items. Empty
// tokens are dropped; a transaction left with no items is not stored and Add
// reports false.
func (db *DB) Add(tokens []string) bool {
	clear(db.seen)
	tx := make(Transaction, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := db.seen[tok]; dup {
			continue
		}
		db.seen[tok] = struct{}{}
		tx = append(tx, tok)
	}
	if len(tx) == 0 {
		return false
	}

	for _, item := range tx {
		db.counts[item]++
	}
	db.txs = append(db.txs, tx)
	return true
}

// Ingest reads transactions line by line from r and returns how many were
// added. Blank lines are skipped.
func (db *DB) Ingest(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	added := 0
	for scanner.Scan() {
		if db.Add(Tokenize(scanner.Text())) {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return added, pkgerrors.Wrap(err, "scan transactions")
	}
	return added, nil
}

// Tokenize splits a line on whitespace and commas.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// LoadDir reads every regular file of dir into a new database. Failures are
// reported as *fpm.InputError.
func LoadDir(dir string) (*DB, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &fpm.InputError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &fpm.InputError{Path: dir, Err: ErrNotDirectory}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &fpm.InputError{Path: dir, Err: err}
	}

	db := New()
	files := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files++

		path := filepath.Join(dir, entry.Name())
		if err := db.ingestFile(path); err != nil {
			return nil, &fpm.InputError{Path: path, Err: err}
		}
	}
	if files == 0 {
		return nil, &fpm.InputError{Path: dir, Err: ErrNoFiles}
	}
	return db, nil
}

func (db *DB) ingestFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = db.Ingest(f)
	return err
}

// Len returns the number of stored transactions.
func (db *DB) Len() int { return len(db.txs) }

// Transactions returns the stored transactions. The slice is shared and must
// be treated as read-only.
func (db *DB) Transactions() []Transaction { return db.txs }

// Count returns the number of transactions containing item.
func (db *DB) Count(item string) int { return db.counts[item] }

// DistinctItems returns the number of distinct items seen.
func (db *DB) DistinctItems() int { return len(db.counts) }
