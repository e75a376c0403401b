// Package server exposes the read-only admin surface of the node:
// prometheus metrics plus JSON snapshots of tables, work units, and
// resident blocks.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/metrico/nebula/execution"
	"github.com/metrico/nebula/ingest"
	"github.com/metrico/nebula/meta"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Admin struct {
	Tables *meta.TableService
	Repo   *ingest.SpecRepo
	Blocks *execution.BlockManager
}

func NewRouter(a *Admin) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/api/tables", a.tables).Methods(http.MethodGet)
	r.HandleFunc("/api/specs", a.specs).Methods(http.MethodGet)
	r.HandleFunc("/api/blocks", a.blocks).Methods(http.MethodGet)
	return r
}

func write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("admin encode failed", zap.Error(err))
	}
}

type tableEntry struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

func (a *Admin) tables(w http.ResponseWriter, _ *http.Request) {
	var out []tableEntry
	for _, t := range a.Tables.All() {
		out = append(out, tableEntry{Name: t.Name, Columns: t.Schema.ColumnNames()})
	}
	write(w, out)
}

type specEntry struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Size  int64  `json:"size"`
}

func (a *Admin) specs(w http.ResponseWriter, _ *http.Request) {
	var out []specEntry
	for id, s := range a.Repo.Specs() {
		out = append(out, specEntry{ID: id, State: s.State().String(), Size: s.Size})
	}
	write(w, out)
}

type blockEntry struct {
	Signature string `json:"signature"`
	Rows      int    `json:"rows"`
	Bytes     int64  `json:"bytes"`
}

func (a *Admin) blocks(w http.ResponseWriter, _ *http.Request) {
	out := map[string][]blockEntry{}
	for _, table := range a.Blocks.Tables() {
		for _, b := range a.Blocks.Blocks(table, 0, 0) {
			out[table] = append(out[table], blockEntry{
				Signature: b.Sig.String(),
				Rows:      b.Data.Rows(),
				Bytes:     b.Bytes(),
			})
		}
	}
	write(w, out)
}
