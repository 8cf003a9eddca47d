package emit

import "github.com/kbukum/powerflow/stage"

// Checkpoint holds the save and load verbs for a database kind.
type Checkpoint struct {
	Save func(path string) Command
	Load func(path string) Command
}

// Checkpoints maps artifact kinds to their checkpoint commands. Kinds absent
// from the map cannot cross an invocation boundary.
type Checkpoints map[stage.Kind]Checkpoint

// DefaultCheckpoints covers the design, power and stimulus databases.
func DefaultCheckpoints() Checkpoints {
	db := Checkpoint{
		Save: func(p string) Command {
			return Command{Verb: "write_db", Args: []string{"-all_root_attributes", "-to_file", word(p)}}
		},
		Load: func(p string) Command {
			return Command{Verb: "read_db", Args: []string{word(p)}}
		},
	}
	return Checkpoints{
		stage.KindDesignDB: db,
		stage.KindPowerDB:  db,
		stage.KindStimulusDB: {
			Save: func(p string) Command {
				return Command{Verb: "write_sdb", Args: []string{"-out", word(p)}}
			},
			Load: func(p string) Command {
				return Command{Verb: "read_sdb", Args: []string{word(p)}}
			},
		},
	}
}
