package ingest

import (
	"fmt"
	"strings"

	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
)

// CursorFactory opens a single-pass row cursor over a local file.
// schema is the table's declared schema, before time normalization.
type CursorFactory func(t *meta.TableSpec, schema *types.Node, file string) (surface.Cursor, error)

var cursors = map[string]CursorFactory{}

func RegisterCursor(format string, f CursorFactory) {
	cursors[format] = f
}

func init() {
	RegisterCursor("csv", newCSVCursor)
	RegisterCursor("parquet", newParquetCursor)
	RegisterCursor("json", newJSONCursor)
	RegisterCursor("ndjson", newJSONCursor)
	RegisterCursor("lineproto", newLineProtoCursor)
}

// NewCursor dispatches on the table's declared format.
func NewCursor(t *meta.TableSpec, schema *types.Node, file string) (surface.Cursor, error) {
	factory, ok := cursors[strings.ToLower(t.Format)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrFormat, t.Format)
	}
	return factory(t, schema, file)
}
