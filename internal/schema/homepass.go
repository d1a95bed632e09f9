// Package schema defines the fixed homepass export schema shared by the
// converter core, the web handlers, and the CLI.
package schema

// Fields is the homepass CSV schema in output order. The order is part of the
// file format contract with downstream tooling; never reorder or rename
// entries, and never mutate this slice at runtime.
var Fields = []string{
	"HOMEPASS_ID",
	"CLUSTER_NAME",
	"PREFIX_ADDRESS",
	"STREET_NAME",
	"HOUSE_NUMBER",
	"BLOCK",
	"FLOOR",
	"RT",
	"RW",
	"DISTRICT",
	"SUB_DISTRICT",
	"FDT_CODE",
	"FAT_CODE",
	"BUILDING_LATITUDE",
	"BUILDING_LONGITUDE",
	"Category_BizPass",
	"POST_CODE",
	"ADDRESS_POLE___FAT",
	"OV_UG",
	"HOUSE_COMMENT_",
	"BUILDING_NAME",
	"TOWER",
	"APTN",
	"FIBER_NODE__HFC_",
	"ID_Area",
	"Clamp_Hook_ID",
}

// fieldSet provides O(1) membership checks for Contains.
var fieldSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Fields))
	for _, f := range Fields {
		m[f] = struct{}{}
	}
	return m
}()

// Contains reports whether name is a schema field. Matching is exact and
// case-sensitive: SimpleData entries that differ only in case are not part of
// the schema and are dropped by the extractor.
func Contains(name string) bool {
	_, ok := fieldSet[name]
	return ok
}

// FieldCount returns the number of columns in the schema.
func FieldCount() int {
	return len(Fields)
}

// Header returns a fresh copy of the schema for use as a CSV header row.
// Callers get their own slice so accidental mutation cannot corrupt Fields.
func Header() []string {
	header := make([]string, len(Fields))
	copy(header, Fields)
	return header
}
