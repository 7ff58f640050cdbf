package grading

// Display phrases. These never feed pass/fail logic.

const noData = "No Data"

var statusBands = []struct {
	min     float64
	status  string
	remarks string
	action  string
}{
	{18, "Excellent", "Excellent performance! Keep up the good work.", "Continue excellent performance. Consider advanced coursework or leadership roles."},
	{15, "Very Good", "Very good performance. Continue with the good work.", "Very good performance. Focus on maintaining consistency and addressing minor weaknesses."},
	{10, "Good", "Good performance. Room for improvement.", "Good performance. Identify weak subjects for targeted improvement."},
	{5, "Poor", "Needs to work harder.", "Needs significant improvement. Schedule parent-teacher meeting and remedial classes."},
	{0, "Very Poor", "Needs significant improvement. Please seek additional help.", "Critical concern. Immediate intervention required. Consider repeating the term."},
}

func statusIndex(average float64) int {
	for i, b := range statusBands {
		if average >= b.min {
			return i
		}
	}
	return len(statusBands) - 1
}

// PerformanceStatus returns the short label for an average.
func PerformanceStatus(average *float64) string {
	if average == nil {
		return noData
	}
	return statusBands[statusIndex(*average)].status
}

// Remarks returns the report-card sentence for an average.
func Remarks(average *float64) string {
	if average == nil {
		return "No assessment data available."
	}
	return statusBands[statusIndex(*average)].remarks
}

// TermAction recommends a follow-up for a term average.
func TermAction(average *float64) string {
	if average == nil {
		return "No assessment data available. Check if all assessments are entered."
	}
	return statusBands[statusIndex(*average)].action
}

// YearlyRemarks combines the yearly average with the subject pass rate.
func YearlyRemarks(average *float64, passRate float64) string {
	if average == nil {
		return "No assessment data available."
	}
	avg := *average
	switch {
	case avg >= 16 && passRate >= 80:
		return "Outstanding performance throughout the year! Consistent excellence in all subjects."
	case avg >= 14 && passRate >= 70:
		return "Very good yearly performance. Shows consistent improvement and dedication."
	case avg >= 10 && passRate >= 60:
		return "Satisfactory yearly performance. Good effort shown across terms."
	case avg >= 5:
		return "Yearly performance needs improvement. Some subjects require more attention."
	default:
		return "Concern about yearly performance. Significant improvement needed in most subjects."
	}
}

// YearlyAction recommends a follow-up for the whole year.
func YearlyAction(average *float64, passRate float64) string {
	if average == nil {
		return "Incomplete yearly data. Review all term assessments."
	}
	avg := *average
	switch {
	case avg >= 16 && passRate >= 80:
		return "Outstanding yearly performance. Eligible for academic awards and accelerated program."
	case avg >= 14 && passRate >= 70:
		return "Good yearly performance. Continue current study habits. Consider subject specialization."
	case avg >= 10 && passRate >= 60:
		return "Satisfactory performance. Monitor weak subjects. Consider additional tutoring."
	case avg >= 5:
		return "Borderline performance. Requires remedial classes and regular progress monitoring."
	default:
		return "Failed to meet promotion criteria. Requires repeating the academic year."
	}
}
