package query

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlkit/dialect"
	"github.com/Konsultn-Engineering/sqlkit/template"
)

type statementBuilder interface {
	Build() (*template.Statement, error)
}

func assertGolden(t *testing.T, name string, b statementBuilder) {
	t.Helper()

	stmt, err := b.Build()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(fmt.Sprintf("%s\n%v\n", stmt.SQL, stmt.RawValues())))
}

func TestDialectShapesGolden(t *testing.T) {
	dialects := []string{"postgres", "mysql", "tidb", "sqlite", "oracle"}

	for _, name := range dialects {
		d, err := dialect.Lookup(name)
		require.NoError(t, err)
		q := New(d, nil)

		t.Run(name, func(t *testing.T) {
			assertGolden(t, "upsert_"+name, q.Insert("users").
				Columns("id", "name", "email").
				Values(1, "X", nil).
				OnDuplicateUpdate("id"))

			assertGolden(t, "ignore_"+name, q.Insert("users").
				Columns("id", "name", "email").
				Values(1, "X", nil).
				OnDuplicateIgnore("id"))

			assertGolden(t, "select_"+name, q.Select("users").
				Columns("id", "name").
				Eq("active", true).
				Or().RangeOpenClosed("age", 20, 30).
				OrderByDesc("id").
				Page(20, 10))
		})
	}
}
