package sql

import (
	"strconv"
	"testing"

	"github.com/syssam/sqlbridge/dialect"
	"github.com/syssam/sqlbridge/dialect/sqlfunc"
)

var benchDialects = []string{dialect.SQLite, dialect.MySQL, dialect.Postgres, dialect.SQLServer}

func BenchmarkInsertBuilder_Default(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").Query()
			}
		})
	}
}

func BenchmarkInsertBuilder_Named(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").
					Set("name", "Ann").
					Set("email", "ann@example.com").
					Set("age", 30).
					Set("created_at", Raw("CURRENT_TIMESTAMP")).
					Query()
			}
		})
	}
}

func BenchmarkInsertBuilder_Positional(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").
					Positional().
					Columns("id", "age", "first_name", "last_name", "nickname", "spouse_id", "created_at", "updated_at").
					Values(1, 30, "Ann", "Smith", "asmith", 2, "2009-11-10 23:00:00", "2009-11-10 23:00:00").
					Query()
			}
		})
	}
}

func BenchmarkInsertBuilder_Batch(b *testing.B) {
	rows := make([]map[string]any, 100)
	for n := range rows {
		rows[n] = map[string]any{
			"name":  "user" + strconv.Itoa(n),
			"email": "user" + strconv.Itoa(n) + "@example.com",
			"age":   20 + n%50,
		}
	}
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").Positional().Rows(rows...).Query()
			}
		})
	}
}

func BenchmarkInsertBuilder_Expr(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("counters").
					Set("key", "visits").
					Set("total", Expr("COALESCE(?, 0) + ?", 0, 1)).
					Query()
			}
		})
	}
}

func BenchmarkCompile_Memoized(b *testing.B) {
	bld := Dialect(dialect.Postgres).Insert("users").
		Set("name", "Ann").
		Set("email", "ann@example.com")
	if _, err := bld.Compile(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bld.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExpandNamed(b *testing.B) {
	const query = "SELECT id FROM users WHERE a = :p0 AND b = :p1 AND note = ':skip' -- :skip\n OR c = :p2"
	args := map[string]any{"p0": 1, "p1": 2, "p2": 3}
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ExpandNamed(d, query, args)
			}
		})
	}
}

func BenchmarkTranslator_Render(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tr, err := sqlfunc.DefaultRegistry.Translator(d)
				if err != nil {
					b.Fatal(err)
				}
				_ = tr.Concat("first_name", "' '", "last_name")
				_ = tr.DateFormat("created_at", "%Y-%m-%d")
				_ = tr.Now()
			}
		})
	}
}
