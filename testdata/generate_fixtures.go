//go:build ignore

// This program writes a small demo tree for trying grph by hand:
//
//	go run testdata/generate_fixtures.go
//	cd testdata/demo && grph config init && grph consolidate && grph generate
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klytics/conokit/internal/formats/xlsx"
)

const root = "testdata/demo"

func main() {
	if err := generateReports(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating reports: %v\n", err)
		os.Exit(1)
	}
	if err := generateSections(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating section files: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Demo tree written to", root)
}

func write(path string, wb *xlsx.Workbook) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return xlsx.WriteFile(wb, path)
}

// generateReports writes a consolidated report that generate picks up directly.
func generateReports() error {
	for _, cono := range []string{"Cono1", "Cono2"} {
		wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{
			{
				Name: "TakenBy_Report",
				Rows: [][]string{
					{"TakenBy", "08012025_OE_Count", "08042025_OE_Count", "08052025_OE_Count", "08052025_OE_Count_Total"},
					{"Alice", "12", "15", "1,204", "99"},
					{"Bob", "7", "", "9", "99"},
					{"Carol", "", "", "", "99"},
					{"Dan", "3", "4", "n/a", "99"},
				},
			},
			{
				Name: "Section 11",
				Rows: [][]string{
					{"Vname", " Oper ", "08042025_Login_Date", "08052025_Login_Date", "08042025_LastWk", "08052025_LastWk", ""},
					{"Vendor B", "20", "08/01/2025", "08/01/2025", "31", "32", ""},
					{"", "", "", "", "", "", ""},
					{"Vendor A", "10", "07/30/2025", "08/04/2025", "30", "30", ""},
					{"Vname", " Oper ", "08042025_Login_Date", "08052025_Login_Date", "08042025_LastWk", "08052025_LastWk", ""},
					{"Vendor C", "15", "", "", "12", "12", ""},
				},
			},
		}}
		path := filepath.Join(root, cono, "Consolidated_reports", "Report_08052025_07_00.xlsx")
		if err := write(path, wb); err != nil {
			return err
		}
	}
	return nil
}

// generateSections writes dated section files for consolidate, including a _del folder
// that must be ignored.
func generateSections() error {
	runs := map[string]string{
		"run_0804":     "8/4/25",
		"run_0805":     "08/05/2025",
		"run_0803_del": "08/03/2025",
	}
	for folder, date := range runs {
		wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{{
			Name: "Sheet1",
			Rows: [][]string{
				{"Oper", "Vname", "Login_Date", "LastWk", "Date_of_rep"},
				{"10", "Vendor A", "07/30/2025", "30", date},
				{"20", "Vendor B", "08/01/2025", "31", date},
			},
		}}}
		path := filepath.Join(root, "Cono1", "Reports", folder, "Section11.xlsx")
		if err := write(path, wb); err != nil {
			return err
		}
	}
	return nil
}
