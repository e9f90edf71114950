package models

import "fmt"

// ThresholdRange 单个体征的正常/临界边界（边界值本身算在范围内）
// 约束：CriticalMin <= NormalMin <= NormalMax <= CriticalMax
type ThresholdRange struct {
	NormalMin   float64 `json:"normalMin"`
	NormalMax   float64 `json:"normalMax"`
	CriticalMin float64 `json:"criticalMin"`
	CriticalMax float64 `json:"criticalMax"`
}

// Validate 检查边界顺序
func (t ThresholdRange) Validate() error {
	if t.CriticalMin > t.NormalMin || t.NormalMin > t.NormalMax || t.NormalMax > t.CriticalMax {
		return fmt.Errorf("invalid threshold range: critical_min=%v normal_min=%v normal_max=%v critical_max=%v",
			t.CriticalMin, t.NormalMin, t.NormalMax, t.CriticalMax)
	}
	return nil
}

// ThresholdProfile 阈值配置（不可变，每个体征一条）
type ThresholdProfile map[VitalType]ThresholdRange

// DefaultThresholds 临床默认阈值
func DefaultThresholds() ThresholdProfile {
	return ThresholdProfile{
		VitalHeartRate:   {NormalMin: 60, NormalMax: 100, CriticalMin: 40, CriticalMax: 120},
		VitalSystolicBP:  {NormalMin: 90, NormalMax: 120, CriticalMin: 70, CriticalMax: 180},
		VitalDiastolicBP: {NormalMin: 60, NormalMax: 80, CriticalMin: 40, CriticalMax: 120},
		VitalGlucose:     {NormalMin: 70, NormalMax: 140, CriticalMin: 50, CriticalMax: 250},
		VitalSleepHours:  {NormalMin: 6, NormalMax: 9, CriticalMin: 3, CriticalMax: 12},
	}
}
