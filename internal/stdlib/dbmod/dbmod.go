// Package dbmod registers the "db" builtin module: db.open(driver, dsn)
// returns a NativeClass instance wrapping a *sql.DB, with query/exec/
// close methods. Blank-importing the four SQL drivers here makes each
// register itself with database/sql on package init, the pattern
// internal/module itself borrows for its own Register/Load registry.
//
// This is an opt-in host capability (see SPEC_FULL.md's DOMAIN STACK):
// a CLI embedder pulls this package in to give running programs
// database access; the VM core has no persisted state of its own.
package dbmod

import (
	"database/sql"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"nyra/internal/excn"
	"nyra/internal/module"
	"nyra/internal/value"
)

func init() {
	module.Register("db", load)
}

func load(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "db")

	class := value.NewNativeClass(h, "Connection", func(args []value.Value) (interface{}, *excn.Error) {
		if len(args) != 2 || args[0].Object() == nil || args[1].Object() == nil {
			return nil, excn.New(excn.TypeError, "db.open() takes (driver, dsn) string arguments")
		}
		driver := value.Str(args[0])
		switch driver {
		case "postgres", "mysql", "sqlserver", "sqlite":
		default:
			return nil, excn.New(excn.ValueError, "db.open: unsupported driver %q", driver)
		}
		conn, err := sql.Open(driver, value.Str(args[1]))
		if err != nil {
			return nil, excn.New(excn.RuntimeError, "db.open: %v", err)
		}
		return conn, nil
	})

	class.AddMethod("query", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*sql.DB)
		if len(args) < 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "query() takes a SQL string and optional parameters")
		}
		params := make([]interface{}, len(args)-1)
		for i, a := range args[1:] {
			params[i] = paramOf(a)
		}
		rows, err := conn.Query(value.Str(args[0]), params...)
		if err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "query: %v", err)
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "query: %v", err)
		}
		result := make([]value.Value, 0)
		for rows.Next() {
			scanTargets := make([]interface{}, len(cols))
			scanVals := make([]interface{}, len(cols))
			for i := range scanTargets {
				scanTargets[i] = &scanVals[i]
			}
			if err := rows.Scan(scanTargets...); err != nil {
				return value.Value{}, excn.New(excn.RuntimeError, "query: %v", err)
			}
			rowVal, rowDict := value.DictValue(h)
			for i, col := range cols {
				rowDict.Table.Set(value.StringValue(h, col), valueOf(h, scanVals[i]))
			}
			result = append(result, rowVal)
		}
		return value.ListValue(h, result), nil
	})

	class.AddMethod("exec", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*sql.DB)
		if len(args) < 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "exec() takes a SQL string and optional parameters")
		}
		params := make([]interface{}, len(args)-1)
		for i, a := range args[1:] {
			params[i] = paramOf(a)
		}
		res, err := conn.Exec(value.Str(args[0]), params...)
		if err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "exec: %v", err)
		}
		affected, _ := res.RowsAffected()
		return value.Int(affected), nil
	})

	class.AddMethod("close", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*sql.DB)
		if err := conn.Close(); err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "close: %v", err)
		}
		return value.None(), nil
	})

	mod.Set("open", value.NativeFunctionValue(h, "db.open", func(args []value.Value) (value.Value, *excn.Error) {
		data, cerr := class.Construct(args)
		if cerr != nil {
			return value.Value{}, cerr
		}
		return value.NativeInstanceValue(h, class, data), nil
	}))

	return mod
}

func paramOf(v value.Value) interface{} {
	switch {
	case v.IsNone():
		return nil
	case v.IsBool():
		return v.AsBool()
	case v.IsInt():
		return v.AsInt()
	case v.IsFloat():
		return v.AsFloat()
	default:
		return value.Str(v)
	}
}

func valueOf(h *value.Heap, raw interface{}) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.None()
	case int64:
		return value.Int(x)
	case float64:
		return value.Float(x)
	case bool:
		return value.Bool(x)
	case []byte:
		return value.StringValue(h, string(x))
	case string:
		return value.StringValue(h, x)
	default:
		return value.None()
	}
}
