// Command registry merges the ISO 4217 table into the default registry
// description. Run it from the module root with go generate.
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/govalues/monetary"
	"gopkg.in/yaml.v3"
)

type isoCurrency struct {
	Name  string
	Code  string
	Num   int64
	Scale *int
	Kind  monetary.Tag
}

const registryFile = "default_registry.yaml"

func main() {
	// Read the ISO table
	data, err := readCsvFile(filepath.Join("scripts", "registry", "iso4217.csv"))
	if err != nil {
		panic(fmt.Errorf("error reading CSV file: %v", err))
	}
	currs, err := convertDataToCurrencies(data)
	if err != nil {
		panic(fmt.Errorf("error converting CSV records: %v", err))
	}

	// Read the current description
	in, err := os.Open(registryFile)
	if err != nil {
		panic(fmt.Errorf("error opening registry: %v", err))
	}
	cfg, err := monetary.LoadRegistryConfig(in)
	_ = in.Close()
	if err != nil {
		panic(fmt.Errorf("error reading registry: %v", err))
	}

	merge(&cfg, currs)

	// Make sure the result builds
	if _, err := monetary.Build(cfg); err != nil {
		panic(fmt.Errorf("error building registry: %v", err))
	}

	content, err := encode(cfg)
	if err != nil {
		panic(fmt.Errorf("error encoding registry: %v", err))
	}
	if err := writeToFile(registryFile, content); err != nil {
		panic(fmt.Errorf("error writing to file: %v", err))
	}
}

func readCsvFile(filename string) ([][]string, error) {
	in, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	reader := csv.NewReader(in)
	_, err = reader.Read() // header
	if err != nil {
		return nil, err
	}
	return reader.ReadAll()
}

func convertDataToCurrencies(data [][]string) ([]isoCurrency, error) {
	currs := make([]isoCurrency, 0, len(data))
	for _, rec := range data {
		num, err := strconv.ParseInt(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("numeric code of %v: %w", rec[1], err)
		}
		curr := isoCurrency{
			Name: rec[0],
			Code: rec[1],
			Num:  num,
			Kind: monetary.Tag(rec[4]),
		}
		if rec[3] != "N.A." {
			s, err := strconv.Atoi(rec[3])
			if err != nil {
				return nil, fmt.Errorf("scale of %v: %w", rec[1], err)
			}
			curr.Scale = &s
		}
		currs = append(currs, curr)
	}
	sort.Slice(currs, func(i, j int) bool { return currs[i].Code < currs[j].Code })
	return currs, nil
}

// merge updates ISO entries in place and appends missing ones.
// Entries that are not in the table are left alone.
func merge(cfg *monetary.RegistryConfig, currs []isoCurrency) {
	pos := make(map[monetary.ID]int, len(cfg.Currencies))
	for i, cc := range cfg.Currencies {
		pos[monetary.ParseID(cc.ID)] = i
	}
	if cfg.Localized == nil {
		cfg.Localized = map[string]map[monetary.Locale]monetary.Properties{}
	}
	for _, c := range currs {
		num := c.Num
		cc := monetary.CurrencyConfig{ID: c.Code, Numeric: &num, Scale: c.Scale, Kind: c.Kind}
		if i, ok := pos[monetary.ID(c.Code)]; ok {
			cc.Domain = cfg.Currencies[i].Domain
			cc.Weight = cfg.Currencies[i].Weight
			cfg.Currencies[i] = cc
		} else {
			cfg.Currencies = append(cfg.Currencies, cc)
		}
		byLocale := cfg.Localized[c.Code]
		if byLocale == nil {
			byLocale = map[monetary.Locale]monetary.Properties{}
			cfg.Localized[c.Code] = byLocale
		}
		if byLocale["en"] == nil {
			byLocale["en"] = monetary.Properties{}
		}
		if _, ok := byLocale["en"]["name"]; !ok {
			byLocale["en"]["name"] = c.Name
		}
	}
}

func encode(cfg monetary.RegistryConfig) ([]byte, error) {
	var out bytes.Buffer
	out.WriteString("# Default currency registry.\n")
	out.WriteString("# Loaded at package initialization; replace it with monetary.SetDefault.\n")
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeToFile(filename string, content []byte) error {
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	writer := bufio.NewWriter(out)
	if _, err := writer.Write(content); err != nil {
		return err
	}
	return writer.Flush()
}
