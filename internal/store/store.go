// Package store provides record-level access to the incident tables.
//
// Every workflow write goes through a single-record Update or a guarded
// CompareAndSwap; there are no multi-record transactions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zulandar/incidentdesk/internal/fault"
	"gorm.io/gorm"
)

// Filter is a conjunction of column predicates. A slice value matches any of
// its elements; every other value is compared for equality.
type Filter map[string]any

// readOnly lists JSON keys that Patch never writes.
var readOnly = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// Store reads and writes one record kind.
type Store[T any] struct {
	db      *gorm.DB
	kind    string
	table   string
	pkName  string
	pkCol   string
	columns map[string]bool   // db column names
	byJSON  map[string]string // json key -> db column
}

// New builds a store for T. kind names the record in error messages.
func New[T any](db *gorm.DB, kind string) (*Store[T], error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("store: parse %s schema: %w", kind, err)
	}
	sch := stmt.Schema
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("store: %s has no primary key", kind)
	}

	s := &Store[T]{
		db:      db,
		kind:    kind,
		table:   sch.Table,
		pkName:  sch.PrioritizedPrimaryField.Name,
		pkCol:   sch.PrioritizedPrimaryField.DBName,
		columns: make(map[string]bool),
		byJSON:  make(map[string]string),
	}
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		s.columns[f.DBName] = true
		key := strings.Split(f.Tag.Get("json"), ",")[0]
		if key == "" || key == "-" {
			key = f.Name
		}
		s.byJSON[key] = f.DBName
	}
	return s, nil
}

// Kind returns the record kind name.
func (s *Store[T]) Kind() string { return s.kind }

// Table returns the backing table name.
func (s *Store[T]) Table() string { return s.table }

func (s *Store[T]) notFound(id string) error {
	return fault.New(fault.ErrRecordNotFound, "%s not found: %s", s.kind, id)
}

// Create inserts rec and returns its id.
func (s *Store[T]) Create(ctx context.Context, rec *T) (string, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", fmt.Errorf("store: create %s: %w", s.kind, err)
	}
	return reflect.ValueOf(rec).Elem().FieldByName(s.pkName).String(), nil
}

// Get loads one record by id.
func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := s.db.WithContext(ctx).Where(s.pkCol+" = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.notFound(id)
		}
		return nil, fmt.Errorf("store: get %s %s: %w", s.kind, id, err)
	}
	return &rec, nil
}

// List returns records matching f, oldest first with id as tiebreaker.
func (s *Store[T]) List(ctx context.Context, f Filter) ([]T, error) {
	q := s.db.WithContext(ctx).Model(new(T))
	q, err := s.apply(q, f)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := q.Order("created_at ASC, " + s.pkCol + " ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list %s: %w", s.kind, err)
	}
	return out, nil
}

func (s *Store[T]) apply(q *gorm.DB, f Filter) (*gorm.DB, error) {
	cols := make([]string, 0, len(f))
	for c := range f {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		if !s.columns[c] {
			return nil, fault.New(fault.ErrInvalidValue, "%s has no column %q", s.kind, c)
		}
		v := f[c]
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
			q = q.Where(c+" IN ?", v)
		} else {
			q = q.Where(c+" = ?", v)
		}
	}
	return q, nil
}

// Update merges fields (keyed by column) into the record.
func (s *Store[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	for c := range fields {
		if !s.columns[c] {
			return fault.New(fault.ErrInvalidValue, "%s has no column %q", s.kind, c)
		}
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(new(T)).Where(s.pkCol+" = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("store: update %s %s: %w", s.kind, id, err)
	}
	return nil
}

// CompareAndSwap applies fields only while column still holds one of
// expected. It returns false when the guard no longer matches.
func (s *Store[T]) CompareAndSwap(ctx context.Context, id, column string, expected []string, fields map[string]any) (bool, error) {
	if !s.columns[column] {
		return false, fault.New(fault.ErrInvalidValue, "%s has no column %q", s.kind, column)
	}
	res := s.db.WithContext(ctx).Model(new(T)).
		Where(s.pkCol+" = ? AND "+column+" IN ?", id, expected).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("store: compare-and-swap %s %s: %w", s.kind, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Distinguish a lost guard from a missing record.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Delete removes the record. Only the administrative REST surface calls it.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where(s.pkCol+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("store: delete %s %s: %w", s.kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound(id)
	}
	return nil
}

// Columns maps JSON field names to column names. Unknown and read-only keys
// are rejected.
func (s *Store[T]) Columns(jsonKeys []string) ([]string, error) {
	cols := make([]string, 0, len(jsonKeys))
	for _, k := range jsonKeys {
		if readOnly[k] {
			return nil, fault.New(fault.ErrInvalidValue, "field %q is read-only", k)
		}
		c, ok := s.byJSON[k]
		if !ok {
			return nil, fault.New(fault.ErrInvalidValue, "%s has no field %q", s.kind, k)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// FilterFromJSON converts a JSON-keyed equality filter into a column Filter.
func (s *Store[T]) FilterFromJSON(params map[string]string) (Filter, error) {
	f := make(Filter, len(params))
	for k, v := range params {
		c, ok := s.byJSON[k]
		if !ok {
			return nil, fault.New(fault.ErrInvalidValue, "%s has no field %q", s.kind, k)
		}
		f[c] = v
	}
	return f, nil
}

// Patch decodes a JSON object onto the stored record and writes only the
// keys it names.
func (s *Store[T]) Patch(ctx context.Context, id string, body []byte) (*T, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fault.Wrap(fault.ErrInvalidValue, err, "invalid %s body", s.kind)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cols, err := s.Columns(keys)
	if err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fault.Wrap(fault.ErrInvalidValue, err, "invalid %s body", s.kind)
	}
	if err := s.db.WithContext(ctx).Model(rec).Select(cols).Updates(rec).Error; err != nil {
		return nil, fmt.Errorf("store: patch %s %s: %w", s.kind, id, err)
	}
	return rec, nil
}
