package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// dialect isola o que muda entre SQLite e Postgres nas queries compartilhadas
type dialect struct {
	name string

	// coluna que preserva a ordem de inserção (desempate do ORDER BY date)
	insertionOrder string
	// expressão que devolve a data da aposta como texto YYYY-MM-DD
	dateSelect string

	schema  string
	indexes string
	// colunas adicionadas em versões novas, verificadas a cada inicialização
	evolutions []evolution

	columns           func(ctx context.Context, db *sql.DB, table string) (map[string]bool, error)
	isUniqueViolation func(err error) bool
	isForeignKey      func(err error) bool
}

type evolution struct {
	table  string
	column string
	ddl    string // ALTER TABLE ... ADD COLUMN ...
}

// rebind troca os placeholders "?" por "$n" quando o dialeto é postgres
func (d dialect) rebind(q string) string {
	if d.name != "postgres" {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sqliteUnique(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func sqliteForeignKey(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func pqUnique(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}

func pqForeignKey(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23503"
}
