package progress

// Indicator labels the current speed relative to the rolling average.
func Indicator(current, average float64) string {
	ratio := 1.0
	if average > 0 {
		ratio = current / average
	}
	switch {
	case ratio >= 1.8:
		return "BLAZING"
	case ratio >= 1.4:
		return "TURBO"
	case ratio >= 1.1:
		return "FAST"
	case ratio >= 0.9:
		return "NORMAL"
	case ratio >= 0.7:
		return "SLOW"
	default:
		return "CRITICAL"
	}
}

// Rating grades a final throughput in bytes per second.
func Rating(bytesPerSec float64) string {
	mbps := bytesPerSec / (1 << 20)
	switch {
	case mbps > 500:
		return "EXTREME"
	case mbps > 200:
		return "EXCELLENT"
	case mbps > 100:
		return "VERY GOOD"
	case mbps > 50:
		return "GOOD"
	default:
		return "STANDARD"
	}
}

// Grade labels an efficiency percentage. It is empty at 70% or below.
func Grade(efficiency float64) string {
	switch {
	case efficiency > 90:
		return "EXCELLENT"
	case efficiency > 80:
		return "GREAT"
	case efficiency > 70:
		return "GOOD"
	default:
		return ""
	}
}
