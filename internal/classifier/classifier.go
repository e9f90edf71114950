// Package classifier 将单次采样按阈值配置映射为报警事实
// 纯计算，不阻塞、不失败（体征缺失不是错误）
package classifier

import (
	"fmt"
	"strconv"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// Classify 对采样中出现的每个体征做阈值比较，按体征声明顺序输出
// 边界值本身算在范围内（非严格比较）：等于 normalMin/normalMax 不产生事实，
// 等于 criticalMin/criticalMax 最多到 warning
func Classify(reading *models.Reading, profile models.ThresholdProfile) []models.AlertFact {
	var facts []models.AlertFact

	for _, vt := range models.AllVitalTypes {
		value := reading.Value(vt)
		if value == nil {
			continue
		}

		rng, ok := profile[vt]
		if !ok {
			continue
		}

		v := *value
		switch {
		case v < rng.CriticalMin || v > rng.CriticalMax:
			facts = append(facts, models.AlertFact{
				VitalType: vt,
				Value:     v,
				Severity:  models.SeverityEmergency,
				Message:   emergencyMessage(vt, v, v < rng.CriticalMin),
			})
		case v < rng.NormalMin || v > rng.NormalMax:
			facts = append(facts, models.AlertFact{
				VitalType: vt,
				Value:     v,
				Severity:  models.SeverityWarning,
				Message:   warningMessage(vt, v),
			})
		}
	}

	return facts
}

// formatValue 按原始精度输出（130 而不是 130.000000）
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func emergencyMessage(vt models.VitalType, v float64, belowMin bool) string {
	s := formatValue(v)
	switch vt {
	case models.VitalHeartRate:
		return fmt.Sprintf("Critical heart rate: %s bpm", s)
	case models.VitalSystolicBP:
		return fmt.Sprintf("Critical systolic BP: %s mmHg", s)
	case models.VitalDiastolicBP:
		return fmt.Sprintf("Critical diastolic BP: %s mmHg", s)
	case models.VitalGlucose:
		return fmt.Sprintf("Critical glucose level: %s mg/dL", s)
	case models.VitalSleepHours:
		// 睡眠的紧急文案区分方向
		if belowMin {
			return fmt.Sprintf("Critically low sleep: %s hours", s)
		}
		return fmt.Sprintf("Excessive sleep: %s hours", s)
	default:
		return fmt.Sprintf("Critical %s: %s", vt, s)
	}
}

func warningMessage(vt models.VitalType, v float64) string {
	s := formatValue(v)
	switch vt {
	case models.VitalHeartRate:
		return fmt.Sprintf("Abnormal heart rate: %s bpm", s)
	case models.VitalSystolicBP:
		return fmt.Sprintf("Elevated systolic BP: %s mmHg", s)
	case models.VitalDiastolicBP:
		return fmt.Sprintf("Abnormal diastolic BP: %s mmHg", s)
	case models.VitalGlucose:
		return fmt.Sprintf("Abnormal glucose level: %s mg/dL", s)
	case models.VitalSleepHours:
		return fmt.Sprintf("Unusual sleep duration: %s hours", s)
	default:
		return fmt.Sprintf("Abnormal %s: %s", vt, s)
	}
}
