// Command validate checks arena configuration JSON files in the ../configs
// directory (or the directory given as the first argument). It checks:
//   - JSON structure, rejecting unknown fields
//   - The rules the server enforces at load time (name, health, spawn counts)
//   - Every spawn lies on the 100x100 arena floor
//   - Start spawns are far enough apart for a fair opening
//
// Duplicate respawn points are reported as warnings.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/fps-arena-relay/game/protocol"
	"github.com/wricardo/fps-arena-relay/game/room"
)

const (
	// floorHalfExtent is half the side of the square arena floor.
	floorHalfExtent = 50.0
	// minStartSeparation is the closest two start spawns may be.
	minStartSeparation = 10.0
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds problems that make the file unusable, Notes holds warnings
// and informational lines.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single arena file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var rules room.Rules
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rules); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := room.ValidateRules(&rules); err != nil {
		result.fail("%v", err)
	}

	checkOnFloor(&result, "join_position", []protocol.Vec3{rules.JoinPosition})
	checkOnFloor(&result, "start_spawns", rules.StartSpawns)
	checkOnFloor(&result, "respawn_points", rules.RespawnPoints)
	checkSeparation(&result, rules.StartSpawns)
	checkDuplicates(&result, rules.RespawnPoints)

	if result.Valid {
		result.note("✓ Name: %s", rules.Name)
		result.note("✓ Max health: %d", rules.MaxHealth)
		result.note("✓ Start spawns: %d", len(rules.StartSpawns))
		result.note("✓ Respawn points: %d", len(rules.RespawnPoints))
	}

	return result
}

// checkOnFloor reports points that fall off the arena floor or below it.
func checkOnFloor(result *ValidationResult, field string, points []protocol.Vec3) {
	for i, p := range points {
		if math.Abs(p.X) > floorHalfExtent || math.Abs(p.Z) > floorHalfExtent {
			result.fail("%s[%d] (%.1f, %.1f, %.1f) is outside the arena floor (±%.0f)",
				field, i, p.X, p.Y, p.Z, floorHalfExtent)
		}
		if p.Y < 0 {
			result.fail("%s[%d] is below the floor (y=%.2f)", field, i, p.Y)
		}
	}
}

// checkSeparation requires every pair of start spawns to be at least
// minStartSeparation apart on the ground plane.
func checkSeparation(result *ValidationResult, spawns []protocol.Vec3) {
	for i := 0; i < len(spawns); i++ {
		for j := i + 1; j < len(spawns); j++ {
			if d := groundDistance(spawns[i], spawns[j]); d < minStartSeparation {
				result.fail("start_spawns[%d] and start_spawns[%d] are %.1f apart, need at least %.0f",
					i, j, d, minStartSeparation)
			}
		}
	}
}

func checkDuplicates(result *ValidationResult, points []protocol.Vec3) {
	seen := make(map[protocol.Vec3]int, len(points))
	for i, p := range points {
		if first, ok := seen[p]; ok {
			result.note("⚠ respawn_points[%d] duplicates respawn_points[%d]", i, first)
			continue
		}
		seen[p] = i
	}
}

func groundDistance(a, b protocol.Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No arena files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, note := range result.Notes {
			fmt.Println("  " + note)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All arena configurations are valid!")
	} else {
		fmt.Println("❌ Some arena configurations have errors")
		os.Exit(1)
	}
}
