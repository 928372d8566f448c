// Package inventory reads the CSV use-case inventory that feeds the scoring
// pipeline.
//
// A Reader yields raw rows in file order; ParseRecord turns a row into a typed
// Record once, rejecting rows that lack the identifier or either text column.
//
// Basic usage:
//
//	r := inventory.NewReader("use-case-inventory.csv", inventory.DefaultColumns())
//	rows, err := r.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    rec, err := inventory.ParseRecord(rows.Row(), r.Columns())
//	    ...
//	}
package inventory
