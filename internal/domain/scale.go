package domain

const (
	// DefaultScaleThreshold is the largest valid value a raster in plain °C
	// may contain. Anything above it is read as tenths of a degree.
	DefaultScaleThreshold = 80.0

	// ScaleCelsius leaves values unchanged.
	ScaleCelsius = 1.0

	// ScaleDeciCelsius converts tenths of a degree to °C.
	ScaleDeciCelsius = 0.1
)

// ScaleSource says where a scale factor came from.
type ScaleSource string

const (
	ScaleFromOverride ScaleSource = "override"
	ScaleFromData     ScaleSource = "detected"
	ScaleFromDefault  ScaleSource = "default"
)

// ValueRange summarizes the valid (finite, non-nodata) cells of a raster.
type ValueRange struct {
	Min   float64
	Max   float64
	Count int // valid cells
	Total int // all cells
}

// Empty reports whether the raster had no valid cell at all.
func (r ValueRange) Empty() bool { return r.Count == 0 }

// ScaleDecision is the multiplier chosen for one raster.
type ScaleDecision struct {
	Factor        float64
	Source        ScaleSource
	NoValidPixels bool
}

// ScaleDetector decides the multiplier that converts raw raster values to °C.
// The decision is made once per raster and applied to every pixel of it.
type ScaleDetector struct {
	// Threshold defaults to DefaultScaleThreshold when zero.
	Threshold float64
	// Override, when present, is returned unchanged for every raster.
	Override Option[float64]
}

// Detect returns the scale factor for a raster with the given valid range.
// An override always wins. Without one, a maximum above the threshold selects
// ScaleDeciCelsius and anything else ScaleCelsius. A raster with no valid cell
// falls back to ScaleCelsius and is flagged with NoValidPixels.
func (d ScaleDetector) Detect(r ValueRange) ScaleDecision {
	if f, ok := d.Override.Get(); ok {
		return ScaleDecision{Factor: f, Source: ScaleFromOverride, NoValidPixels: r.Empty()}
	}
	if r.Empty() {
		return ScaleDecision{Factor: ScaleCelsius, Source: ScaleFromDefault, NoValidPixels: true}
	}

	threshold := d.Threshold
	if threshold == 0 {
		threshold = DefaultScaleThreshold
	}
	if r.Max > threshold {
		return ScaleDecision{Factor: ScaleDeciCelsius, Source: ScaleFromData}
	}
	return ScaleDecision{Factor: ScaleCelsius, Source: ScaleFromData}
}

// ValidScaleOverride reports whether f is an accepted user-forced factor.
func ValidScaleOverride(f float64) bool {
	return f == ScaleCelsius || f == ScaleDeciCelsius
}

// PlausibleRange bounds monthly means after scaling. Values outside it become
// undefined. The zero value disables the check.
type PlausibleRange struct {
	Min float64
	Max float64
}

// DefaultPlausibleRange is the window used unless configured otherwise.
var DefaultPlausibleRange = PlausibleRange{Min: -20, Max: 50}

// Enabled reports whether the range filters anything.
func (p PlausibleRange) Enabled() bool { return p.Min != 0 || p.Max != 0 }

// Apply returns v, or None when v lies outside the range.
func (p PlausibleRange) Apply(v Option[float64]) Option[float64] {
	x, ok := v.Get()
	if !ok || !p.Enabled() {
		return v
	}
	if x < p.Min || x > p.Max {
		return None[float64]()
	}
	return v
}
