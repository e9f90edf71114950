package models

import (
	"fmt"
	"time"
)

// VitalType 生命体征类型（封闭枚举，新类型必须同时加入 AllVitalTypes）
type VitalType string

const (
	VitalHeartRate   VitalType = "heartRate"
	VitalSystolicBP  VitalType = "systolicBP"
	VitalDiastolicBP VitalType = "diastolicBP"
	VitalGlucose     VitalType = "glucose"
	VitalSleepHours  VitalType = "sleepHours"
)

// AllVitalTypes 声明顺序（分类输出按此顺序，保证确定性）
var AllVitalTypes = []VitalType{
	VitalHeartRate,
	VitalSystolicBP,
	VitalDiastolicBP,
	VitalGlucose,
	VitalSleepHours,
}

// Unit 计量单位（用于报警消息和邮件展示）
func (v VitalType) Unit() string {
	switch v {
	case VitalHeartRate:
		return "bpm"
	case VitalSystolicBP, VitalDiastolicBP:
		return "mmHg"
	case VitalGlucose:
		return "mg/dL"
	case VitalSleepHours:
		return "hours"
	default:
		return ""
	}
}

// Severity 报警级别（封闭枚举）
type Severity string

const (
	SeverityWarning   Severity = "warning"   // 超出正常范围、仍在临界范围内
	SeverityEmergency Severity = "emergency" // 超出临界范围
)

// Reading 一次采样：一个患者在某一时刻的一组生命体征
// 缺失的体征为 nil，不参与分类
type Reading struct {
	PatientID   string    `json:"patientId"`
	Timestamp   time.Time `json:"timestamp"`
	HeartRate   *float64  `json:"heartRate,omitempty"`
	SystolicBP  *float64  `json:"systolicBP,omitempty"`
	DiastolicBP *float64  `json:"diastolicBP,omitempty"`
	Glucose     *float64  `json:"glucose,omitempty"`
	SleepHours  *float64  `json:"sleepHours,omitempty"`
}

// Value 按类型取值（缺失返回 nil）
func (r *Reading) Value(vt VitalType) *float64 {
	switch vt {
	case VitalHeartRate:
		return r.HeartRate
	case VitalSystolicBP:
		return r.SystolicBP
	case VitalDiastolicBP:
		return r.DiastolicBP
	case VitalGlucose:
		return r.Glucose
	case VitalSleepHours:
		return r.SleepHours
	default:
		return nil
	}
}

// Validate 入库前校验（不合法的采样直接拒绝，不落库）
func (r *Reading) Validate() error {
	if r.PatientID == "" {
		return fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrValidation)
	}
	return nil
}

// AlertFact 单条报警事实（分类器输出，不落库，按查询重算）
type AlertFact struct {
	VitalType VitalType `json:"vitalType"`
	Value     float64   `json:"value"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// AlertBatch 一次采样产生的报警集合（仅当至少有一条事实时存在）
type AlertBatch struct {
	Timestamp time.Time   `json:"timestamp"`
	IsLatest  bool        `json:"isLatest"`
	Alerts    []AlertFact `json:"alerts"`
}

// HasEmergency 批次内是否存在 emergency 级别事实
func (b *AlertBatch) HasEmergency() bool {
	for _, a := range b.Alerts {
		if a.Severity == SeverityEmergency {
			return true
		}
	}
	return false
}
