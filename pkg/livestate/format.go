package livestate

import "fmt"

// Timer display formats. The editor stores the choice on the timer object's
// baseline properties under "timeFormat"; the store keeps it on the timer
// record once started.
const (
	FormatSec        = "SS"
	FormatMinSec     = "MM:SS"
	FormatHourMinSec = "HH:MM:SS"
)

// FormatElapsed renders elapsed seconds in the given display format.
// SS shows only the seconds component (wraps at 60), MM:SS shows unwrapped
// minutes, HH:MM:SS shows unwrapped hours. Every field is zero-padded to
// width 2. Unknown formats render as MM:SS. Negative input clamps to zero.
func FormatElapsed(elapsedSeconds float64, format string) string {
	total := int(elapsedSeconds)
	if total < 0 {
		total = 0
	}
	switch format {
	case FormatSec:
		return fmt.Sprintf("%02d", total%60)
	case FormatHourMinSec:
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	default:
		return fmt.Sprintf("%02d:%02d", total/60, total%60)
	}
}
