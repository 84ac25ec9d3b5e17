// Command analyze prints quick, human-readable heuristics about the arena
// files in the project's configs directory. It summarizes health, spawn
// spread and how many hits common weapons need for a kill, and flags respawn
// points that sit on top of the opponent's start spawn.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/wricardo/fps-arena-relay/game/config"
	"github.com/wricardo/fps-arena-relay/game/protocol"
	"github.com/wricardo/fps-arena-relay/game/room"
)

// campingRadius is how close a respawn point may get to a start spawn
// before it is flagged.
const campingRadius = 5.0

// weaponDamage lists typical per-hit damage values reported by clients.
var weaponDamage = []int{20, 25, 34, 50}

// Analysis holds the computed heuristics for one arena.
type Analysis struct {
	Name            string
	MaxHealth       int
	StartSeparation float64
	// NearestStart is, per respawn point, the ground distance to the
	// closest start spawn.
	NearestStart []float64
	CampingSpots []int
	HitsToKill   map[int]int
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error opening config directory: %v\n", err)
		os.Exit(1)
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Printf("Error listing configs: %v\n", err)
		os.Exit(1)
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)
		rules, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("Error loading arena: %v\n", err)
			continue
		}
		printAnalysis(analyzeRules(rules))
	}
}

func analyzeRules(rules *room.Rules) Analysis {
	a := Analysis{
		Name:       rules.Name,
		MaxHealth:  rules.MaxHealth,
		HitsToKill: make(map[int]int, len(weaponDamage)),
	}

	if len(rules.StartSpawns) >= 2 {
		a.StartSeparation = groundDistance(rules.StartSpawns[0], rules.StartSpawns[1])
	}

	for i, p := range rules.RespawnPoints {
		nearest := math.Inf(1)
		for _, s := range rules.StartSpawns {
			nearest = math.Min(nearest, groundDistance(p, s))
		}
		a.NearestStart = append(a.NearestStart, nearest)
		if nearest < campingRadius {
			a.CampingSpots = append(a.CampingSpots, i)
		}
	}

	for _, dmg := range weaponDamage {
		a.HitsToKill[dmg] = (rules.MaxHealth + dmg - 1) / dmg
	}
	return a
}

func printAnalysis(a Analysis) {
	fmt.Printf("Name: %s\n", a.Name)
	fmt.Printf("Max Health: %d\n", a.MaxHealth)
	fmt.Printf("Start Spawn Separation: %.1f\n", a.StartSeparation)
	fmt.Printf("Respawn Points: %d\n", len(a.NearestStart))

	for _, dmg := range weaponDamage {
		fmt.Printf("  %3d damage: %d hits to kill\n", dmg, a.HitsToKill[dmg])
	}

	if len(a.CampingSpots) > 0 {
		fmt.Printf("⚠️  WARNING: %d respawn points are within %.0f of a start spawn\n", len(a.CampingSpots), campingRadius)
		for _, i := range a.CampingSpots {
			fmt.Printf("   Respawn %d: %.1f from nearest start\n", i, a.NearestStart[i])
		}
	} else {
		fmt.Printf("✅ No respawn point overlaps a start spawn\n")
	}
}

func groundDistance(a, b protocol.Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}
