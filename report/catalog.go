package report

// Kind identifies a report type.
type Kind string

const (
	KindPower        Kind = "power"
	KindHierPower    Kind = "hier_power"
	KindActivity     Kind = "activity"
	KindHierActivity Kind = "hier_activity"
	KindPPA          Kind = "ppa"
	KindArea         Kind = "area"
	KindTiming       Kind = "timing"
	KindProfile      Kind = "profile"
	KindCustom       Kind = "custom"
)

// Format identifies an output format.
type Format string

const (
	FormatRpt  Format = "rpt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
	FormatFSDB Format = "fsdb"
)

// Formats lists every recognized format in canonical order.
var Formats = []Format{FormatRpt, FormatCSV, FormatJSON, FormatPNG, FormatFSDB}

// Entry describes what a report kind supports.
type Entry struct {
	Kind Kind
	// Label replaces {kind} in destination names.
	Label   string
	Formats []Format
	// TimeBased kinds need frame based stimulus analysis.
	TimeBased bool
}

// Supports reports whether the kind can be written in format f.
func (e Entry) Supports(f Format) bool {
	for _, ok := range e.Formats {
		if ok == f {
			return true
		}
	}
	return false
}

var catalog = []Entry{
	{Kind: KindPower, Label: "power", Formats: []Format{FormatRpt, FormatCSV, FormatJSON}},
	{Kind: KindHierPower, Label: "hier.power", Formats: []Format{FormatRpt, FormatCSV, FormatJSON}},
	{Kind: KindActivity, Label: "activity", Formats: []Format{FormatRpt, FormatCSV}},
	{Kind: KindHierActivity, Label: "hier.activity", Formats: []Format{FormatRpt, FormatCSV}},
	{Kind: KindPPA, Label: "ppa", Formats: []Format{FormatRpt}},
	{Kind: KindArea, Label: "area", Formats: []Format{FormatRpt}},
	{Kind: KindTiming, Label: "timing", Formats: []Format{FormatRpt, FormatCSV, FormatJSON}},
	{Kind: KindProfile, Label: "profile", Formats: []Format{FormatPNG, FormatFSDB}, TimeBased: true},
	{Kind: KindCustom, Label: "custom", Formats: []Format{FormatRpt, FormatCSV, FormatJSON}},
}

// Lookup returns the catalog entry for a kind.
func Lookup(k Kind) (Entry, bool) {
	for _, e := range catalog {
		if e.Kind == k {
			return e, true
		}
	}
	return Entry{}, false
}

// Catalog returns every known kind in canonical order.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

func kindNames() []string {
	names := make([]string, len(catalog))
	for i, e := range catalog {
		names[i] = string(e.Kind)
	}
	return names
}

func formatNames(fs []Format) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return names
}

func isFormat(s string) bool {
	for _, f := range Formats {
		if string(f) == s {
			return true
		}
	}
	return false
}
