//go:build ignore

// generate_testdata.go creates synthetic provider billing CSVs for local
// testing and benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/providers_small.csv   (500 providers)
//	testdata/providers_medium.csv  (10000 providers)
//	testdata/providers_large.csv   (100000 providers)
//
// Load one with: cl --load testdata/providers_small.csv --db data/test.db
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

type datasetSpec struct {
	name string
	size int
}

var datasets = []datasetSpec{
	{"small", 500},
	{"medium", 10000},
	{"large", 100000},
}

var providerTypes = []string{
	"Internal Medicine", "Family Practice", "Cardiology", "Orthopedic Surgery",
	"Dermatology", "Ophthalmology", "Nurse Practitioner", "Physician Assistant",
	"Diagnostic Radiology", "Emergency Medicine", "Anesthesiology", "Podiatry",
}

var states = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC",
}

var header = []string{
	"Rndrng_NPI", "Rndrng_Prvdr_Type", "Rndrng_Prvdr_State_Abrvtn",
	"Tot_Benes", "Tot_Srvcs", "Tot_Mdcr_Pymt_Amt", "Tot_Mdcr_Stdzd_Amt",
}

func main() {
	outputDir := "testdata"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d providers)...\n", ds.name, ds.size)
		path := filepath.Join(outputDir, fmt.Sprintf("providers_%s.csv", ds.name))
		if err := writeDataset(path, ds.size); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
	}
	fmt.Println("Done.")
}

func writeDataset(path string, size int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}

	// Reproducible per-size so regenerated files diff clean.
	rng := rand.New(rand.NewSource(int64(size)))

	for i := 0; i < size; i++ {
		benes := 10 + rng.Intn(2000)
		services := benes + rng.Intn(benes*4+1)

		// Log-normalish payment spread: most providers cluster, a few bill
		// far above the rest, which is what the risk view exists for.
		perService := 20 + rng.ExpFloat64()*80
		if rng.Intn(200) == 0 {
			perService *= 10
		}
		payment := perService * float64(services)
		standardized := payment * (0.9 + rng.Float64()*0.2)

		record := []string{
			strconv.Itoa(1000000000 + i),
			providerTypes[rng.Intn(len(providerTypes))],
			states[rng.Intn(len(states))],
			strconv.Itoa(benes),
			strconv.Itoa(services),
			strconv.FormatFloat(payment, 'f', 2, 64),
			strconv.FormatFloat(standardized, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
