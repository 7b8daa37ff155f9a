package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bigbrotherx/foodgram/backend/internal/service"
)

func readIngredients(path, format string) ([]service.IngredientSeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "json":
		return decodeIngredientsJSON(f)
	case "csv":
		return decodeIngredientsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", format)
	}
}

func decodeIngredientsJSON(r io.Reader) ([]service.IngredientSeed, error) {
	var seeds []service.IngredientSeed
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("invalid ingredient JSON: %w", err)
	}
	return seeds, nil
}

// decodeIngredientsCSV reads "name,measurement_unit" rows. A header row
// naming those columns is skipped.
func decodeIngredientsCSV(r io.Reader) ([]service.IngredientSeed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var seeds []service.IngredientSeed
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return seeds, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient CSV: %w", err)
		}
		if line == 1 && strings.EqualFold(record[0], "name") {
			continue
		}
		seeds = append(seeds, service.IngredientSeed{Name: record[0], MeasurementUnit: record[1]})
	}
}

func readTags(path string) ([]service.TagSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tags []service.TagSeed
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("invalid tag JSON: %w", err)
	}
	return tags, nil
}

func normalize(seed service.IngredientSeed) service.IngredientSeed {
	return service.IngredientSeed{
		Name:            strings.TrimSpace(seed.Name),
		MeasurementUnit: strings.TrimSpace(seed.MeasurementUnit),
	}
}
