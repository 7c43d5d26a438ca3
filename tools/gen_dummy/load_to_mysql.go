/*
Kompilasi manual:
  go build -o tools/gen_dummy/load_to_mysql tools/gen_dummy/load_to_mysql.go

Pakai contoh:
  ./tools/gen_dummy/load_to_mysql \
    -table incident_logs \
    -csv tools/gen_dummy/sample_incident_logs.csv \
    -dsn "sla:secret@tcp(127.0.0.1:3306)/sla?parseTime=true&multiStatements=true" \
    -batch 2000 -disable-fk
*/

// [FILE] tools/gen_dummy/load_to_mysql.go
package main

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

var (
	csvPath   = flag.String("csv", "tools/gen_dummy/sample_incident_logs.csv", "CSV path")
	dsn       = flag.String("dsn", "root:password@tcp(127.0.0.1:3306)/sla?parseTime=true&multiStatements=true", "MySQL DSN")
	table     = flag.String("table", "incident_logs", "Target table (cameras|nvrs|nvr_channels|camera_zones|camera_streets|camera_units|buildings|geo_camera_links|incident_logs)")
	batchSize = flag.Int("batch", 1000, "Insert batch size")
	truncate  = flag.Bool("truncate", false, "TRUNCATE target table first")
	disableFK = flag.Bool("disable-fk", false, "Disable foreign key checks")
)

// tableColumns memetakan tabel ke kolom CSV yang diharapkan (urutan = urutan insert).
var tableColumns = map[string][]string{
	"cameras":        {"id", "name"},
	"nvrs":           {"id", "alias", "ip_address"},
	"nvr_channels":   {"id", "nvr_id", "camera_id"},
	"camera_zones":   {"id", "name"},
	"camera_streets": {"id", "name"},
	"camera_units":   {"id", "name"},
	"buildings":      {"id", "name", "alarm_contract_no"},
	"geo_camera_links": {
		"id", "camera_id", "zone_id", "street_id", "building_id", "unit_id",
	},
	"incident_logs": {
		"id", "source_device_id", "zone_id", "street_id", "unit_id",
		"occurred_at", "alarm_message", "category_id", "sub_category_id", "status_id",
	},
}

func must(err error) { if err != nil { log.Fatal(err) } }

func main() {
	flag.Parse()

	cols, ok := tableColumns[*table]
	if !ok {
		log.Fatalf("unsupported table: %s", *table)
	}

	db, err := sql.Open("mysql", *dsn)
	must(err)
	defer db.Close()
	must(db.Ping())

	if *disableFK {
		_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 0")
		must(err)
		defer func() {
			_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1")
			if err != nil {
				log.Printf("Error enabling FK checks: %v", err)
			}
		}()
	}

	if *truncate {
		_, err := db.Exec("TRUNCATE TABLE " + *table)
		must(err)
		log.Printf("[ok] truncated %s", *table)
		if *csvPath == "/dev/null" {
			return
		}
	}

	f, err := os.Open(*csvPath)
	must(err)
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	head, err := r.Read()
	must(err)

	load(db, r, head, *table, cols)
}

/* ======================= Loader ======================= */

func load(db *sql.DB, r *csv.Reader, head []string, table string, cols []string) {
	idx := headerIndex(head)
	ensureColumns(idx, cols)

	vals := make([]interface{}, 0, *batchSize*len(cols))
	rows := 0
	for {
		rec, err := readRow(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Fatal(err)
		}
		for _, c := range cols {
			v := strings.TrimSpace(rec[idx[c]])
			if v == "" {
				// kolom kosong -> NULL (sub_category_id, online-only fields dsb)
				vals = append(vals, nil)
			} else {
				vals = append(vals, v)
			}
		}
		rows++
		if rows%*batchSize == 0 {
			flush(db, table, cols, &vals)
		}
	}
	flush(db, table, cols, &vals)
	log.Printf("[ok] inserted %s rows: ~%d", table, rows)
}

func flush(db *sql.DB, table string, cols []string, vals *[]interface{}) {
	if len(*vals) == 0 {
		return
	}
	group := "(" + strings.TrimRight(strings.Repeat("?,", len(cols)), ",") + "),"
	placeholders := strings.TrimRight(strings.Repeat(group, len(*vals)/len(cols)), ",")

	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" {
			continue
		}
		updates = append(updates, c+"=VALUES("+c+")")
	}

	q := "INSERT INTO " + table + "(" + strings.Join(cols, ", ") + ") VALUES " + placeholders +
		" ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	_, err := db.Exec(q, *vals...)
	must(err)
	*vals = (*vals)[:0]
}

/* ======================= Common Helpers ======================= */

func headerIndex(h []string) map[string]int {
	m := map[string]int{}
	for i, c := range h {
		c = strings.TrimSpace(strings.ToLower(c))
		c = strings.TrimPrefix(c, "\uFEFF")
		m[c] = i
	}
	return m
}

func ensureColumns(idx map[string]int, need []string) {
	for _, c := range need {
		if _, ok := idx[c]; !ok {
			log.Fatalf("missing column %q in CSV header", c)
		}
	}
}

func readRow(r *csv.Reader) ([]string, error) {
	rec, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return rec, nil
}
