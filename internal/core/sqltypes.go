package core

import (
	"strconv"
	"strings"
)

// SQLType is the closed set of declared column types the loader understands.
// Catalog type names from every supported dialect are folded into one of
// these tags by ParseSQLType.
type SQLType int

const (
	SQLUnknown SQLType = iota
	SQLVarchar
	SQLChar
	SQLText
	SQLSmallInt
	SQLInteger
	SQLBigInt
	SQLReal
	SQLFloat
	SQLDouble
	SQLDecimal
	SQLBoolean
	SQLDate
	SQLDateTime
	SQLTimestamp
)

var sqlTypeNames = map[SQLType]string{
	SQLUnknown:   "UNKNOWN",
	SQLVarchar:   "VARCHAR",
	SQLChar:      "CHAR",
	SQLText:      "TEXT",
	SQLSmallInt:  "SMALLINT",
	SQLInteger:   "INTEGER",
	SQLBigInt:    "BIGINT",
	SQLReal:      "REAL",
	SQLFloat:     "FLOAT",
	SQLDouble:    "DOUBLE",
	SQLDecimal:   "DECIMAL",
	SQLBoolean:   "BOOLEAN",
	SQLDate:      "DATE",
	SQLDateTime:  "DATETIME",
	SQLTimestamp: "TIMESTAMP",
}

func (t SQLType) String() string {
	if name, ok := sqlTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// expectedKinds maps each declared type to the value representation that
// reconciliation casts into. DECIMAL stays text so exact values reach the
// database unrounded; unknown types are treated as text.
var expectedKinds = map[SQLType]Kind{
	SQLUnknown:   KindText,
	SQLVarchar:   KindText,
	SQLChar:      KindText,
	SQLText:      KindText,
	SQLDecimal:   KindText,
	SQLSmallInt:  KindInteger,
	SQLInteger:   KindInteger,
	SQLBigInt:    KindInteger,
	SQLReal:      KindFloat,
	SQLFloat:     KindFloat,
	SQLDouble:    KindFloat,
	SQLBoolean:   KindBoolean,
	SQLDate:      KindDateTime,
	SQLDateTime:  KindDateTime,
	SQLTimestamp: KindDateTime,
}

// Kind returns the expected in-memory representation for t.
func (t SQLType) Kind() Kind {
	if k, ok := expectedKinds[t]; ok {
		return k
	}
	return KindText
}

// baseTypes maps lowercased catalog type names, stripped of length and
// modifiers, to their tag. Names come from MySQL column_type, Postgres
// data_type/udt_name, SQLite declared types and SQL Server sys.types.
var baseTypes = map[string]SQLType{
	"varchar":           SQLVarchar,
	"character varying": SQLVarchar,
	"nvarchar":          SQLVarchar,
	"varchar2":          SQLVarchar,
	"nvarchar2":         SQLVarchar,
	"string":            SQLVarchar,
	"char":              SQLChar,
	"character":         SQLChar,
	"nchar":             SQLChar,
	"bpchar":            SQLChar,
	"text":              SQLText,
	"tinytext":          SQLText,
	"mediumtext":        SQLText,
	"longtext":          SQLText,
	"ntext":             SQLText,
	"clob":              SQLText,
	"citext":            SQLText,

	"tinyint":   SQLSmallInt,
	"smallint":  SQLSmallInt,
	"int2":      SQLSmallInt,
	"mediumint": SQLInteger,
	"int":       SQLInteger,
	"integer":   SQLInteger,
	"int4":      SQLInteger,
	"serial":    SQLInteger,
	"bigint":    SQLBigInt,
	"int8":      SQLBigInt,
	"bigserial": SQLBigInt,

	"real":             SQLReal,
	"float4":           SQLReal,
	"float":            SQLFloat,
	"float8":           SQLDouble,
	"double":           SQLDouble,
	"double precision": SQLDouble,
	"decimal":          SQLDecimal,
	"numeric":          SQLDecimal,
	"money":            SQLDecimal,

	"boolean": SQLBoolean,
	"bool":    SQLBoolean,
	"bit":     SQLBoolean,

	"date":           SQLDate,
	"datetime":       SQLDateTime,
	"datetime2":      SQLDateTime,
	"smalldatetime":  SQLDateTime,
	"datetimeoffset": SQLDateTime,
	"timestamp":      SQLTimestamp,
	"timestamptz":    SQLTimestamp,
}

// ParseSQLType folds a catalog type name such as "varchar(255)",
// "int(11) unsigned", "timestamp(6) without time zone" or "tinyint(1)" into
// its tag and declared length (0 when none).
func ParseSQLType(declared string) (SQLType, int) {
	s := strings.ToLower(strings.TrimSpace(declared))
	for _, suffix := range []string{" without time zone", " with time zone", " unsigned", " zerofill"} {
		s = strings.ReplaceAll(s, suffix, "")
	}

	var args []string
	if open := strings.IndexByte(s, '('); open >= 0 {
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			end = len(s) - open
		}
		for _, a := range strings.Split(s[open+1:open+end], ",") {
			args = append(args, strings.TrimSpace(a))
		}
		rest := ""
		if open+end+1 < len(s) {
			rest = s[open+end+1:]
		}
		s = strings.TrimSpace(s[:open] + rest)
	}

	t, ok := baseTypes[s]
	if !ok {
		return SQLUnknown, 0
	}

	length := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			length = n
		}
	}

	switch t {
	case SQLSmallInt:
		// MySQL reports BOOLEAN columns as tinyint(1).
		if s == "tinyint" && length == 1 {
			return SQLBoolean, 0
		}
		return t, 0
	case SQLBoolean:
		// bit(n>1) is a bit field, not a flag.
		if s == "bit" && length > 1 {
			return SQLUnknown, 0
		}
		return t, 0
	case SQLVarchar, SQLChar:
		return t, length
	default:
		return t, 0
	}
}

// DeclaredColumnType converts a catalog type name to a ColumnType.
func DeclaredColumnType(declared string) ColumnType {
	t, length := ParseSQLType(declared)
	return ColumnType{Kind: t.Kind(), Length: length, Declared: t}
}
