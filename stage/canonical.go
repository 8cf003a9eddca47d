package stage

// Artifact names used by the canonical flow.
const (
	ArtifactDesign   = "design"
	ArtifactSynth    = "synth"
	ArtifactStimulus = "stimulus"
	ArtifactPower    = "power"
	ArtifactReports  = "reports"
)

// Canonical returns the built-in five stage power analysis flow:
// init_design, synthesize_design, read_stimulus, compute_power, report_power.
// Reports address stimuli by alias, so report_power requires the stimulus
// database as well as the power database.
func Canonical() *Definition {
	return &Definition{
		Name: "joules",
		Stages: []Stage{
			{
				Name:      string(OpInitDesign),
				Operation: OpInitDesign,
				Produces:  []Artifact{{Name: ArtifactDesign, Kind: KindDesignDB}},
			},
			{
				Name:      string(OpSynthesizeDesign),
				Operation: OpSynthesizeDesign,
				DependsOn: []string{string(OpInitDesign)},
				Requires:  []ArtifactRef{{Stage: string(OpInitDesign), Name: ArtifactDesign}},
				Produces:  []Artifact{{Name: ArtifactSynth, Kind: KindDesignDB}},
			},
			{
				Name:      string(OpReadStimulus),
				Operation: OpReadStimulus,
				DependsOn: []string{string(OpSynthesizeDesign)},
				Requires:  []ArtifactRef{{Stage: string(OpSynthesizeDesign), Name: ArtifactSynth}},
				Produces:  []Artifact{{Name: ArtifactStimulus, Kind: KindStimulusDB}},
			},
			{
				Name:      string(OpComputePower),
				Operation: OpComputePower,
				DependsOn: []string{string(OpReadStimulus)},
				Requires:  []ArtifactRef{{Stage: string(OpReadStimulus), Name: ArtifactStimulus}},
				Produces:  []Artifact{{Name: ArtifactPower, Kind: KindPowerDB}},
			},
			{
				Name:      string(OpReportPower),
				Operation: OpReportPower,
				DependsOn: []string{string(OpComputePower)},
				Requires: []ArtifactRef{
					{Stage: string(OpReadStimulus), Name: ArtifactStimulus},
					{Stage: string(OpComputePower), Name: ArtifactPower},
				},
				Produces: []Artifact{{Name: ArtifactReports, Kind: KindReport, Path: "reports"}},
			},
		},
	}
}
