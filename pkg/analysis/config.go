package analysis

// Thresholds holds the statistical cutoffs used by the generators. The
// values are carried over from the original analysis runs; they are exposed
// as configuration so deployments can tune them, but the defaults are the
// reference behavior.
type Thresholds struct {
	// ZScore is the |z| above which a row counts as an outlier.
	ZScore float64 `yaml:"z_score" json:"z_score"`

	// CVModerate and CVSignificant split coefficient-of-variation values
	// into minimal / moderate / significant bands.
	CVModerate    float64 `yaml:"cv_moderate" json:"cv_moderate"`
	CVSignificant float64 `yaml:"cv_significant" json:"cv_significant"`

	// SevereMedianMultiple flags a risk row as severe when its per-service
	// payment exceeds this multiple of the median.
	SevereMedianMultiple float64 `yaml:"severe_median_multiple" json:"severe_median_multiple"`

	// StrongCorrelation is the |r| above which a metric pair is reported.
	StrongCorrelation float64 `yaml:"strong_correlation" json:"strong_correlation"`

	// ComparativeCVFlag is the CV above which the comparative view flags a
	// metric as highly variable.
	ComparativeCVFlag float64 `yaml:"comparative_cv_flag" json:"comparative_cv_flag"`

	// OutlierReportCap suppresses comparative outlier reporting when more
	// rows than this are flagged. Display-noise policy, not statistics:
	// when "everything" is an outlier the list carries no signal.
	OutlierReportCap int `yaml:"outlier_report_cap" json:"outlier_report_cap"`

	// ConcentrationTop is the N used for top-N concentration shares.
	ConcentrationTop int `yaml:"concentration_top" json:"concentration_top"`
}

// DefaultThresholds returns the reference cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ZScore:               2.0,
		CVModerate:           10,
		CVSignificant:        25,
		SevereMedianMultiple: 3.0,
		StrongCorrelation:    0.7,
		ComparativeCVFlag:    50,
		OutlierReportCap:     3,
		ConcentrationTop:     3,
	}
}

// Generator produces insight sets for the four analysis views. A Generator
// is immutable after construction and safe for concurrent use.
type Generator struct {
	thresholds Thresholds
}

// NewGenerator creates a generator with the given thresholds. Zero-valued
// fields fall back to the defaults so partial configuration stays safe.
func NewGenerator(th Thresholds) *Generator {
	def := DefaultThresholds()
	if th.ZScore <= 0 {
		th.ZScore = def.ZScore
	}
	if th.CVModerate <= 0 {
		th.CVModerate = def.CVModerate
	}
	if th.CVSignificant <= 0 {
		th.CVSignificant = def.CVSignificant
	}
	if th.SevereMedianMultiple <= 0 {
		th.SevereMedianMultiple = def.SevereMedianMultiple
	}
	if th.StrongCorrelation <= 0 {
		th.StrongCorrelation = def.StrongCorrelation
	}
	if th.ComparativeCVFlag <= 0 {
		th.ComparativeCVFlag = def.ComparativeCVFlag
	}
	if th.OutlierReportCap <= 0 {
		th.OutlierReportCap = def.OutlierReportCap
	}
	if th.ConcentrationTop <= 0 {
		th.ConcentrationTop = def.ConcentrationTop
	}
	return &Generator{thresholds: th}
}

// NewDefaultGenerator creates a generator with the reference thresholds.
func NewDefaultGenerator() *Generator {
	return NewGenerator(DefaultThresholds())
}

// Thresholds returns the cutoffs the generator was built with.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}
