package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "doc").
		From("user_profiles").
		Where(Eq("own_referral_code", "AB12CD"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, doc FROM user_profiles WHERE own_referral_code = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "AB12CD" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ForUpdateWithIn(t *testing.T) {
	query, args, err := Select("id", "doc").
		From("user_profiles").
		Where(In("id", "u1", "u2")).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, doc FROM user_profiles WHERE id IN ($1, $2) ORDER BY id FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "u2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, _, err := Select("id").From("user_profiles").Where(In("id")).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM user_profiles WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestSelectBuilder_ExprBindsInOrder(t *testing.T) {
	query, args, err := Select("id").
		From("user_profiles").
		Where(Eq("id", "u1"), Expr("(doc->>'premiumUntil')::timestamptz <= ?", "2026-01-01T00:00:00Z")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM user_profiles WHERE id = $1 AND (doc->>'premiumUntil')::timestamptz <= $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	if _, _, err := Select("id").ToSQL(); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("user_profiles").
		Columns("id", "doc").
		Values("u1", `{"username":"Asha"}`).
		Cast("doc", "jsonb").
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO user_profiles (id, doc) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowLengthMismatch(t *testing.T) {
	_, _, err := InsertInto("user_profiles").Columns("id", "doc").Values("u1").ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID      string `db:"id"`
		Doc     string `db:"doc,cast=jsonb"`
		Note    string `db:"note,omitempty"`
		ignored string
		Skip    string `db:"-"`
	}

	query, args, err := InsertModel("user_profiles", &row{ID: "u1", Doc: "{}"}, "ON CONFLICT DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	if query != "INSERT INTO user_profiles (id, doc) VALUES ($1, $2::jsonb) ON CONFLICT DO NOTHING" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "{}" {
		t.Fatalf("unexpected args: %+v", args)
	}

	query, args, err = InsertModel("user_profiles", row{ID: "u2", Doc: "{}", Note: "hi"}, "")
	if err != nil {
		t.Fatalf("build insert model with note: %v", err)
	}
	if query != "INSERT INTO user_profiles (id, doc, note) VALUES ($1, $2::jsonb, $3)" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 3 || args[2] != "hi" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_Rejects(t *testing.T) {
	var nilRow *struct {
		ID string `db:"id"`
	}
	if _, _, err := InsertModel("user_profiles", nilRow, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("user_profiles", "u1", ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	type untagged struct{ ID string }
	if _, _, err := InsertModel("user_profiles", untagged{ID: "u1"}, ""); err == nil {
		t.Fatalf("expected error for model without columns")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("user_profiles").
		SetExpr("doc", "doc || ?::jsonb", `{"language":"hi"}`).
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "u1")).
		Suffix("RETURNING doc").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE user_profiles SET doc = doc || $1::jsonb, updated_at = NOW() WHERE id = $2 RETURNING doc"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != `{"language":"hi"}` || args[1] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
