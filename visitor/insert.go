package visitor

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/ast"
	"github.com/Konsultn-Engineering/sqlkit/dialect"
)

// Aliases used by the MERGE form.
const (
	mergeTarget = "TMP"
	mergeSource = "SRC"
)

func (v *SQLVisitor) VisitInsert(stmt *ast.InsertStmt) error {
	if err := checkInsert(stmt); err != nil {
		return err
	}

	switch stmt.Strategy {
	case ast.Into:
		v.insertHead("INSERT INTO ", stmt)
		return v.insertValues(stmt)

	case ast.Ignore:
		switch v.dialect.IgnoreStyle() {
		case dialect.IgnoreOnConflict:
			v.insertHead("INSERT INTO ", stmt)
			if err := v.insertValues(stmt); err != nil {
				return err
			}
			v.sb.WriteString(" ON CONFLICT ")
			if len(stmt.ConflictKeys) > 0 {
				v.identList(stmt.ConflictKeys, "")
				v.sb.WriteByte(' ')
			}
			v.sb.WriteString("DO NOTHING")
			return nil
		case dialect.IgnoreKeyword:
			v.insertHead("INSERT IGNORE INTO ", stmt)
			return v.insertValues(stmt)
		case dialect.IgnoreOrIgnore:
			v.insertHead("INSERT OR IGNORE INTO ", stmt)
			return v.insertValues(stmt)
		case dialect.IgnoreMerge:
			return v.merge(stmt, false)
		}
		return v.unsupported("insert strategy Ignore", "")

	case ast.Update:
		switch v.dialect.UpsertStyle() {
		case dialect.UpsertOnConflict:
			if len(stmt.ConflictKeys) == 0 {
				return v.unsupported("insert strategy Update", "ON CONFLICT needs conflict key columns")
			}
			v.insertHead("INSERT INTO ", stmt)
			if err := v.insertValues(stmt); err != nil {
				return err
			}
			v.sb.WriteString(" ON CONFLICT ")
			v.identList(stmt.ConflictKeys, "")
			cols, nulls := updateColumns(stmt)
			if len(cols) == 0 {
				v.sb.WriteString(" DO NOTHING")
				return nil
			}
			v.sb.WriteString(" DO UPDATE SET ")
			target := v.ident(stmt.Table.Name)
			for i, c := range cols {
				if i > 0 {
					v.sb.WriteString(", ")
				}
				name := v.ident(c)
				if nulls[i] {
					fmt.Fprintf(&v.sb, "%s = COALESCE(EXCLUDED.%s, %s.%s)", name, name, target, name)
				} else {
					fmt.Fprintf(&v.sb, "%s = EXCLUDED.%s", name, name)
				}
			}
			return nil

		case dialect.UpsertOnDuplicateKey:
			v.insertHead("INSERT INTO ", stmt)
			if err := v.insertValues(stmt); err != nil {
				return err
			}
			v.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
			cols, nulls := updateColumns(stmt)
			if len(cols) == 0 {
				name := v.ident(stmt.Columns[0].Name)
				v.sb.WriteString(name + " = " + name)
				return nil
			}
			for i, c := range cols {
				if i > 0 {
					v.sb.WriteString(", ")
				}
				name := v.ident(c)
				if nulls[i] {
					fmt.Fprintf(&v.sb, "%s = COALESCE(VALUES(%s), %s)", name, name, name)
				} else {
					fmt.Fprintf(&v.sb, "%s = VALUES(%s)", name, name)
				}
			}
			return nil

		case dialect.UpsertMerge:
			return v.merge(stmt, true)
		}
		return v.unsupported("insert strategy Update", "")
	}
	return v.unsupported("insert strategy "+stmt.Strategy.String(), "")
}

func checkInsert(stmt *ast.InsertStmt) error {
	if stmt.Table == nil {
		return fmt.Errorf("insert has no table")
	}
	if len(stmt.Columns) == 0 {
		return fmt.Errorf("insert into %s has no columns", stmt.Table.Name)
	}
	if len(stmt.Rows) == 0 {
		return fmt.Errorf("insert into %s has no rows", stmt.Table.Name)
	}
	for i, row := range stmt.Rows {
		if len(row) != len(stmt.Columns) {
			return fmt.Errorf("insert into %s: row %d has %d values for %d columns",
				stmt.Table.Name, i, len(row), len(stmt.Columns))
		}
	}
	return nil
}

func (v *SQLVisitor) insertHead(keyword string, stmt *ast.InsertStmt) {
	v.sb.WriteString(keyword)
	v.tableName(stmt.Table)
	v.sb.WriteByte(' ')
	names := make([]string, len(stmt.Columns))
	for i, c := range stmt.Columns {
		names[i] = c.Name
	}
	v.identList(names, "")
}

func (v *SQLVisitor) insertValues(stmt *ast.InsertStmt) error {
	v.sb.WriteString(" VALUES ")
	for r, row := range stmt.Rows {
		if r > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteByte('(')
		for i, n := range row {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := n.Accept(v); err != nil {
				return err
			}
		}
		v.sb.WriteByte(')')
	}
	return nil
}

// identList writes "(a, b)", each name optionally qualified.
func (v *SQLVisitor) identList(names []string, qualifier string) {
	v.sb.WriteByte('(')
	for i, n := range names {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if qualifier != "" {
			v.sb.WriteString(qualifier)
			v.sb.WriteByte('.')
		}
		v.sb.WriteString(v.ident(n))
	}
	v.sb.WriteByte(')')
}

// merge renders the MERGE form. The source rows are selected from dual;
// with update set, matched rows get every non-key column, null-skipped.
func (v *SQLVisitor) merge(stmt *ast.InsertStmt, update bool) error {
	if len(stmt.ConflictKeys) == 0 {
		return v.unsupported("insert strategy "+stmt.Strategy.String(), "MERGE needs conflict key columns")
	}

	v.sb.WriteString("MERGE INTO ")
	v.tableName(stmt.Table)
	v.sb.WriteString(" " + mergeTarget + " USING (")
	for r, row := range stmt.Rows {
		if r > 0 {
			v.sb.WriteString(" UNION ALL ")
		}
		v.sb.WriteString("SELECT ")
		for i, n := range row {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := n.Accept(v); err != nil {
				return err
			}
			v.sb.WriteByte(' ')
			v.sb.WriteString(v.ident(stmt.Columns[i].Name))
		}
		v.sb.WriteString(" FROM dual")
	}
	v.sb.WriteString(") " + mergeSource + " ON (")
	for i, k := range stmt.ConflictKeys {
		if i > 0 {
			v.sb.WriteString(" AND ")
		}
		name := v.ident(k)
		fmt.Fprintf(&v.sb, "%s.%s = %s.%s", mergeTarget, name, mergeSource, name)
	}
	v.sb.WriteByte(')')

	if update {
		cols, nulls := updateColumns(stmt)
		if len(cols) > 0 {
			v.sb.WriteString(" WHEN MATCHED THEN UPDATE SET ")
			for i, c := range cols {
				if i > 0 {
					v.sb.WriteString(", ")
				}
				name := v.ident(c)
				if nulls[i] {
					fmt.Fprintf(&v.sb, "%s.%s = COALESCE(%s.%s, %s.%s)", mergeTarget, name, mergeSource, name, mergeTarget, name)
				} else {
					fmt.Fprintf(&v.sb, "%s.%s = %s.%s", mergeTarget, name, mergeSource, name)
				}
			}
		}
	}

	names := make([]string, len(stmt.Columns))
	for i, c := range stmt.Columns {
		names[i] = c.Name
	}
	v.sb.WriteString(" WHEN NOT MATCHED THEN INSERT ")
	v.identList(names, "")
	v.sb.WriteString(" VALUES ")
	v.identList(names, mergeSource)
	return nil
}

// updateColumns returns the non-key columns and, for each, whether any row
// supplies NULL for it. Those columns keep the stored value on collision.
func updateColumns(stmt *ast.InsertStmt) ([]string, []bool) {
	keys := make(map[string]struct{}, len(stmt.ConflictKeys))
	for _, k := range stmt.ConflictKeys {
		keys[strings.ToLower(k)] = struct{}{}
	}

	var cols []string
	var nulls []bool
	for i, c := range stmt.Columns {
		if _, isKey := keys[strings.ToLower(c.Name)]; isKey {
			continue
		}
		hasNull := false
		for _, row := range stmt.Rows {
			if val, ok := row[i].(*ast.Value); ok && val.IsNull() {
				hasNull = true
				break
			}
		}
		cols = append(cols, c.Name)
		nulls = append(nulls, hasNull)
	}
	return cols, nulls
}
