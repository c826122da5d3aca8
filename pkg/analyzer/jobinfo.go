package analyzer

import (
	"path/filepath"

	"github.com/tlms-tools/sprtrc/pkg/series"
)

// ExtractJobInfo summarizes the job from the first row of s. Missing values
// stay nil.
func ExtractJobInfo(s *series.Series, source string) JobInfo {
	info := JobInfo{FileName: filepath.Base(source)}
	if s.Len() == 0 {
		return info
	}

	first := s.At(0)
	info.Timestamp = first.Timestamp
	info.Lane = first.Lane
	info.Task = first.Task
	info.Position = first.Position
	info.ChassisLength = first.ChassisLength
	info.ChassisType = first.ChassisType
	info.ContLength = first.ContLength
	info.ContWidth = first.ContWidth
	info.ContHeight = first.ContHeight
	return info
}
