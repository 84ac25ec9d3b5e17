// Package config loads arena rule sets for the duel relay.
//
// An arena is a JSON file in the configs directory describing the health a
// player spawns with and the spawn tables used at match start and on respawn:
//
//	{
//	  "name": "duel",
//	  "description": "Tight square with four corner spawns",
//	  "max_health": 100,
//	  "join_position": {"x": 0, "y": 1.6, "z": 0},
//	  "start_spawns": [{"x": -15, "y": 0.1, "z": -15}, {"x": 15, "y": 0.1, "z": 15}],
//	  "respawn_points": [{"x": -15, "y": 0.1, "z": -15}, ...]
//	}
//
// Files are validated with room.ValidateRules when first loaded and cached
// afterwards. The name "default" (or an empty name) always resolves to the
// built-in arena, so the server runs without a configs directory.
package config
