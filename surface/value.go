package surface

import "strconv"

// ValueRow adapts an untyped column->value map into a Row. Decoders
// produce these; numeric reads coerce across integer and float widths
// and parse numeric strings, so a csv row and a json row behave alike.
type ValueRow struct {
	Values map[string]any
}

func NewValueRow(values map[string]any) *ValueRow {
	return &ValueRow{Values: values}
}

func (r *ValueRow) IsNull(field string) bool {
	v, ok := r.Values[field]
	return !ok || v == nil
}

func (r *ValueRow) ReadBool(field string) bool {
	switch v := r.Values[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return asInt64(r.Values[field]) != 0
}

func (r *ValueRow) ReadByte(field string) int8 {
	return int8(asInt64(r.Values[field]))
}

func (r *ValueRow) ReadShort(field string) int16 {
	return int16(asInt64(r.Values[field]))
}

func (r *ValueRow) ReadInt(field string) int32 {
	return int32(asInt64(r.Values[field]))
}

func (r *ValueRow) ReadLong(field string) int64 {
	return asInt64(r.Values[field])
}

func (r *ValueRow) ReadFloat(field string) float32 {
	return float32(asFloat64(r.Values[field]))
}

func (r *ValueRow) ReadDouble(field string) float64 {
	return asFloat64(r.Values[field])
}

func (r *ValueRow) ReadString(field string) string {
	switch v := r.Values[field].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (r *ValueRow) ReadList(field string) List {
	switch v := r.Values[field].(type) {
	case []any:
		return ValueList(v)
	case []string:
		items := make(ValueList, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items
	case ValueList:
		return v
	}
	return ValueList(nil)
}

func (r *ValueRow) ReadMap(field string) Map {
	if v, ok := r.Values[field].(ValueMap); ok {
		return v
	}
	if v, ok := r.Values[field].(map[string]any); ok {
		m := ValueMap{}
		for k, val := range v {
			m.K = append(m.K, k)
			m.V = append(m.V, val)
		}
		return m
	}
	return ValueMap{}
}

// ValueList is a slice-backed List.
type ValueList []any

func (l ValueList) Items() int {
	return len(l)
}

func (l ValueList) IsNull(i int) bool {
	return l[i] == nil
}

func (l ValueList) ReadBool(i int) bool {
	b, _ := l[i].(bool)
	return b
}

func (l ValueList) ReadInt(i int) int32 {
	return int32(asInt64(l[i]))
}

func (l ValueList) ReadLong(i int) int64 {
	return asInt64(l[i])
}

func (l ValueList) ReadFloat(i int) float32 {
	return float32(asFloat64(l[i]))
}

func (l ValueList) ReadDouble(i int) float64 {
	return asFloat64(l[i])
}

func (l ValueList) ReadString(i int) string {
	s, _ := l[i].(string)
	return s
}

// ValueMap is a pair of parallel key/value slices.
type ValueMap struct {
	K ValueList
	V ValueList
}

func (m ValueMap) Items() int {
	return len(m.K)
}

func (m ValueMap) Keys() List {
	return m.K
}

func (m ValueMap) Values() List {
	return m.V
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return float64(asInt64(v))
	}
}
