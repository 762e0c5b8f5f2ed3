package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Detail: "Key (email)=(a@b.c) already exists."}, domain.ErrAlreadyExists},
		{"foreign key violation", &pq.Error{Code: "23503"}, domain.ErrNotFound},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("translateError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPsql_DollarPlaceholders(t *testing.T) {
	q, args, err := psql.Update("chunks").
		Set("bookmarked_by_user_id", nil).
		Where(squirrel.Eq{"metatext_id": int64(3), "bookmarked_by_user_id": "u1"}).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	if strings.Contains(q, "?") {
		t.Errorf("expected $n placeholders, got %q", q)
	}
	if !strings.Contains(q, "$3") {
		t.Errorf("expected three placeholders, got %q", q)
	}
	if len(args) != 3 || args[0] != nil {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestSchema_DefinesTables(t *testing.T) {
	for _, table := range []string{
		"users", "source_documents", "metatexts", "chunks", "ai_images",
		"rewrites", "view_states", "navigation_requests", "tasks",
	} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema is missing table %s", table)
		}
	}
	if !strings.Contains(schema, "UNIQUE (metatext_id, position)") {
		t.Error("chunk positions must be unique per metatext")
	}
}

func TestNullHelpers(t *testing.T) {
	if NullInt64(0).Valid {
		t.Error("zero should map to NULL")
	}
	if v := NullInt64(5); !v.Valid || v.Int64 != 5 {
		t.Errorf("NullInt64(5) = %+v", v)
	}

	s := "x"
	if p := StringPtr(NullString(&s)); p == nil || *p != "x" {
		t.Errorf("string round trip failed: %v", p)
	}
	if StringPtr(NullString(nil)) != nil {
		t.Error("nil should stay nil")
	}
}
