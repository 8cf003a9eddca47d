package emit

import (
	"path/filepath"
	"strings"

	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/stage"
)

func initDesign(e *Emitter, st *stage.Stage) ([]Command, error) {
	d := e.in.Design
	lib, ok := d.library()
	if !ok {
		return nil, errors.Emission(st.Name, "libraries", "no timing libraries for the extra, setup or hold domain")
	}

	var defines []string
	for _, def := range d.Defines {
		defines = append(defines, "-define "+word(def))
	}

	cmds := []Command{
		cmd(st.Name, "read_libs", strings.Join(words(lib.Files), " "), "-domain "+lib.Domain, "-infer_memory_cells"),
	}
	if d.Level == LevelRTL {
		cmds = append(cmds, cmd(st.Name, "read_hdl", strings.Join(defines, " "), "-sv", strings.Join(words(d.Files), " ")))
	}
	if d.PowerSpec.File != "" {
		cmds = append(cmds, cmd(st.Name, "read_power_intent",
			"-"+d.PowerSpec.Type, word(d.PowerSpec.File), "-module "+d.TopModule))
	}
	cmds = append(cmds,
		cmd(st.Name, "set_db", "leakage_power_effort", "medium"),
		cmd(st.Name, "set_db", "lp_insert_clock_gating", "true"),
	)
	switch d.Level {
	case LevelRTL:
		cmds = append(cmds, cmd(st.Name, "elaborate", d.TopModule))
	case LevelSyn:
		cmds = append(cmds, cmd(st.Name, "read_netlist", strings.Join(defines, " "), strings.Join(words(d.Files), " ")))
		if len(d.SDC) > 0 {
			cmds = append(cmds, cmd(st.Name, "read_sdc", strings.Join(words(d.SDC), " ")))
		}
	}
	if d.PowerSpec.File != "" {
		cmds = append(cmds,
			cmd(st.Name, "apply_power_intent"),
			cmd(st.Name, "commit_power_intent"),
		)
	}
	return cmds, nil
}

// synthesizeDesign is a no-op for netlists, which are already synthesized.
func synthesizeDesign(e *Emitter, st *stage.Stage) ([]Command, error) {
	d := e.in.Design
	if d.Level != LevelRTL {
		return nil, nil
	}
	var cmds []Command
	if len(d.SDC) > 0 {
		cmds = append(cmds, cmd(st.Name, "read_sdc", strings.Join(words(d.SDC), " ")))
	}
	return append(cmds, cmd(st.Name, "syn_power", "-effort", "medium")), nil
}

func readStimulus(e *Emitter, st *stage.Stage) ([]Command, error) {
	var cmds []Command
	for _, entry := range e.in.Stimuli.Entries {
		if !entry.New {
			continue
		}
		cmds = append(cmds, Command{
			Stage: st.Name,
			Verb:  "read_stimulus",
			Args:  append(ReadArgs(entry, e.in.Design.DUTInstance()), "-alias "+entry.Alias, "-append"),
		})
	}
	return cmds, nil
}

func computePower(e *Emitter, st *stage.Stage) ([]Command, error) {
	var cmds []Command
	for _, entry := range e.in.Stimuli.Entries {
		if !entry.New {
			continue
		}
		cmds = append(cmds, cmd(st.Name, "compute_power", "-mode "+entry.Mode(), "-stim "+entry.Alias, "-append"))
	}
	return cmds, nil
}

func reportPower(e *Emitter, st *stage.Stage) ([]Command, error) {
	cmds := []Command{{Stage: st.Name, Verb: frameInfoProc}}
	for _, set := range e.in.Reports {
		if _, ok := e.in.Stimuli.Lookup(set.Alias); !ok {
			return nil, errors.Emission(st.Name, set.Alias, "stimulus alias was never read")
		}
		cmds = append(cmds, mkdirs(st.Name, set)...)
		cmds = append(cmds, cmd(st.Name, "dump_frame_info", set.Alias, word(set.Stem)))
		group, err := e.Reports(st.Name, set.Alias, set.Specs)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, group...)
	}
	return cmds, nil
}

func custom(e *Emitter, st *stage.Stage) ([]Command, error) {
	cmds := make([]Command, len(st.Commands))
	for i, line := range st.Commands {
		cmds[i] = Command{Stage: st.Name, Verb: line}
	}
	return cmds, nil
}

// mkdirs creates the distinct destination directories of a report set.
func mkdirs(stageName string, set ReportSet) []Command {
	seen := make(map[string]bool)
	var cmds []Command
	add := func(dir string) {
		if dir == "." || dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		cmds = append(cmds, cmd(stageName, "file", "mkdir", word(dir)))
	}
	add(filepath.Dir(set.Stem))
	for _, s := range set.Specs {
		add(filepath.Dir(s.Destination))
	}
	return cmds
}

// frameInfoProc writes the start time, end time and duration of every frame
// of a stimulus next to its report stem.
const frameInfoProc = `proc dump_frame_info {stim_alias report_stem} {
    set frames [get_sdb_frames -stim $stim_alias]
    set st [open "${report_stem}.frames.start_times.txt" w]
    set et [open "${report_stem}.frames.end_times.txt" w]
    set dt [open "${report_stem}.frames.duration.txt" w]
    foreach frame $frames {puts $st [get_frame_info -frame $frame -start_time]}
    foreach frame $frames {puts $et [get_frame_info -frame $frame -end_time]}
    foreach frame $frames {puts $dt [get_frame_info -frame $frame -duration]}
    close $st; close $et; close $dt
}`
