// Command validate checks Nim rules files, the JSON documents accepted by
// NIM_RULES_FILE. Files are taken from the command line, or from ./rules when
// none are given. It checks:
//   - JSON structure, with unknown fields rejected
//   - Presence of both the easy and hard ranges
//   - Range consistency (min at least 1, max not below min)
//
// Valid files also get a short report of the opening pools that are already
// lost for the player to move.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/nim-lobby/game/nim"
)

// RulesFile mirrors the rules JSON schema. Ranges are pointers so a missing
// section can be told apart from a zero one.
type RulesFile struct {
	Easy *nim.Range `json:"easy"`
	Hard *nim.Range `json:"hard"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateRules loads and validates a single rules file
func validateRules(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var file RulesFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if file.Easy == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing required range: easy")
	}
	if file.Hard == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing required range: hard")
	}
	if !result.Valid {
		return result
	}

	rules := nim.Rules{Easy: *file.Easy, Hard: *file.Hard}
	if err := rules.Validate(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, d := range []nim.Difficulty{nim.Easy, nim.Hard} {
		r := rules.RangeFor(d)
		lost := losingOpenings(r)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %d-%d (%d pools)", d, r.Min, r.Max, r.Max-r.Min+1))
		if len(lost) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: no opening pool is lost for the first mover", d))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: lost openings for the first mover %v", d, lost))
		}
	}

	return result
}

// losingOpenings lists the pools in r of the form 2^k-1. The player to move
// from one of them loses against perfect play.
func losingOpenings(r nim.Range) []int {
	var out []int
	for _, t := range nim.Targets(r.Max + 1) {
		if t >= r.Min {
			out = append(out, t)
		}
	}
	return out
}

// main validates every file named on the command line, or ./rules/*.json,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join("rules", "*.json"))
		if err != nil {
			fmt.Printf("Error finding rules files: %v\n", err)
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		fmt.Println("No rules files found")
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateRules(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All rules files are valid!")
	} else {
		fmt.Println("❌ Some rules files have errors")
		os.Exit(1)
	}
}
