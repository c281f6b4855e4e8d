package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"tesatiki/internal/models"
)

var userColumns = columnSet(
	"phone", "password_hash", "full_name", "role", "is_verified",
	"avatar_url", "last_active", "updated_at",
)

var productColumns = columnSet(
	"id", "user_id", "name", "category", "price", "description", "condition",
	"negotiable", "installment", "location", "phone", "images",
	"ad_type", "ad_price", "ad_duration", "is_featured",
	"status", "admin_approved", "created_at", "updated_at", "approved_at",
	"expires_at", "featured_until", "boosted_at", "boosted_until",
)

func columnSet(columns ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}

// sortedColumns returns the keys of fields in a stable order and rejects any
// column outside allowed.
func sortedColumns(fields models.Fields, allowed map[string]struct{}) ([]string, error) {
	columns := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := allowed[key]; !ok {
			return nil, fmt.Errorf("unknown column %q", key)
		}
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns, nil
}

// buildUpdate renders UPDATE <table> SET a = $1, b = $2 WHERE id = $3 RETURNING *.
func buildUpdate(table, id string, fields models.Fields, allowed map[string]struct{}) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}
	columns, err := sortedColumns(fields, allowed)
	if err != nil {
		return "", nil, err
	}

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, columnValue(column, fields[column]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		table, strings.Join(assignments, ", "), len(args))
	return query, args, nil
}

// buildInsert renders INSERT INTO <table> (a, b) VALUES ($1, $2) RETURNING *.
func buildInsert(table string, fields models.Fields, allowed map[string]struct{}) (string, []any, error) {
	columns, err := sortedColumns(fields, allowed)
	if err != nil {
		return "", nil, err
	}

	placeholders := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, columnValue(column, fields[column]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}

func columnValue(column string, value any) any {
	if column == "images" {
		return toStringArray(value)
	}
	return value
}

// toStringArray normalizes image lists decoded from JSON into a text[] value.
func toStringArray(value any) pq.StringArray {
	switch v := value.(type) {
	case pq.StringArray:
		return v
	case []string:
		return pq.StringArray(v)
	case []any:
		out := make(pq.StringArray, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return pq.StringArray{}
	}
}
