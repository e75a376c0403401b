package meta

// TestSchema is the canonical four-column schema used by the synthetic
// loader and the buffer tests.
const TestSchema = "ROW<id:int, event:string, items:list<string>, flag:bool>"

// TestTableSpec builds the built-in test table backed by synthetic
// data. Its loader name matches the configured test loader so the
// executor short-circuits to block synthesis.
func TestTableSpec(loader string, start int64, maxHr uint64) *TableSpec {
	return &TableSpec{
		Name:   "nebula.test",
		MaxMB:  10000,
		MaxHr:  maxHr,
		Schema: TestSchema,
		Source: Custom,
		Loader: loader,
		Time: TimeSpec{
			Type:  TimeStatic,
			Value: start,
		},
	}
}
