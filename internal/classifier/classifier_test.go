package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func testReading(values map[models.VitalType]float64) *models.Reading {
	r := &models.Reading{
		PatientID: "patient-1",
		Timestamp: time.Now(),
	}
	for vt, v := range values {
		switch vt {
		case models.VitalHeartRate:
			r.HeartRate = floatPtr(v)
		case models.VitalSystolicBP:
			r.SystolicBP = floatPtr(v)
		case models.VitalDiastolicBP:
			r.DiastolicBP = floatPtr(v)
		case models.VitalGlucose:
			r.Glucose = floatPtr(v)
		case models.VitalSleepHours:
			r.SleepHours = floatPtr(v)
		}
	}
	return r
}

func TestClassify_NormalReading_NoFacts(t *testing.T) {
	profile := models.DefaultThresholds()

	reading := testReading(map[models.VitalType]float64{
		models.VitalHeartRate:   75,
		models.VitalSystolicBP:  110,
		models.VitalDiastolicBP: 70,
		models.VitalGlucose:     100,
		models.VitalSleepHours:  7.5,
	})

	facts := Classify(reading, profile)

	assert.Empty(t, facts)
}

func TestClassify_WarningHeartRate(t *testing.T) {
	profile := models.DefaultThresholds()

	reading := testReading(map[models.VitalType]float64{
		models.VitalHeartRate: 105,
	})

	facts := Classify(reading, profile)

	require.Len(t, facts, 1)
	assert.Equal(t, models.VitalHeartRate, facts[0].VitalType)
	assert.Equal(t, models.SeverityWarning, facts[0].Severity)
	assert.Equal(t, 105.0, facts[0].Value)
	assert.Equal(t, "Abnormal heart rate: 105 bpm", facts[0].Message)
}

func TestClassify_EmergencyHeartRate(t *testing.T) {
	profile := models.DefaultThresholds()

	reading := testReading(map[models.VitalType]float64{
		models.VitalHeartRate: 130,
	})

	facts := Classify(reading, profile)

	require.Len(t, facts, 1)
	assert.Equal(t, models.VitalHeartRate, facts[0].VitalType)
	assert.Equal(t, models.SeverityEmergency, facts[0].Severity)
	assert.Equal(t, "Critical heart rate: 130 bpm", facts[0].Message)
}

// 边界值算在范围内：恰好等于任一边界不产生事实
func TestClassify_InclusiveBounds(t *testing.T) {
	profile := models.DefaultThresholds()
	hr := profile[models.VitalHeartRate]

	for _, boundary := range []float64{hr.NormalMin, hr.NormalMax} {
		reading := testReading(map[models.VitalType]float64{
			models.VitalHeartRate: boundary,
		})
		facts := Classify(reading, profile)
		assert.Empty(t, facts, "value %v at normal bound should yield no fact", boundary)
	}

	// 恰好在临界边界：warning（在正常范围外、临界范围内）
	for _, boundary := range []float64{hr.CriticalMin, hr.CriticalMax} {
		reading := testReading(map[models.VitalType]float64{
			models.VitalHeartRate: boundary,
		})
		facts := Classify(reading, profile)
		require.Len(t, facts, 1, "value %v at critical bound", boundary)
		assert.Equal(t, models.SeverityWarning, facts[0].Severity)
	}

	// 临界边界外一个单位：emergency
	reading := testReading(map[models.VitalType]float64{
		models.VitalHeartRate: hr.CriticalMax + 1,
	})
	facts := Classify(reading, profile)
	require.Len(t, facts, 1)
	assert.Equal(t, models.SeverityEmergency, facts[0].Severity)

	reading = testReading(map[models.VitalType]float64{
		models.VitalHeartRate: hr.CriticalMin - 1,
	})
	facts = Classify(reading, profile)
	require.Len(t, facts, 1)
	assert.Equal(t, models.SeverityEmergency, facts[0].Severity)
}

func TestClassify_MissingVitals_NotAnError(t *testing.T) {
	profile := models.DefaultThresholds()

	// 只带一个体征，其余缺失
	reading := testReading(map[models.VitalType]float64{
		models.VitalGlucose: 300,
	})

	facts := Classify(reading, profile)

	require.Len(t, facts, 1)
	assert.Equal(t, models.VitalGlucose, facts[0].VitalType)
	assert.Equal(t, models.SeverityEmergency, facts[0].Severity)
}

// 输出顺序 = 体征声明顺序，保证确定性
func TestClassify_StableOrder(t *testing.T) {
	profile := models.DefaultThresholds()

	reading := testReading(map[models.VitalType]float64{
		models.VitalSleepHours: 1,
		models.VitalHeartRate:  130,
		models.VitalGlucose:    300,
	})

	facts := Classify(reading, profile)

	require.Len(t, facts, 3)
	assert.Equal(t, models.VitalHeartRate, facts[0].VitalType)
	assert.Equal(t, models.VitalGlucose, facts[1].VitalType)
	assert.Equal(t, models.VitalSleepHours, facts[2].VitalType)
}

func TestClassify_SleepHours(t *testing.T) {
	profile := models.DefaultThresholds()

	tests := []struct {
		name     string
		value    float64
		severity models.Severity
		message  string
		count    int
	}{
		{"critically low", 2, models.SeverityEmergency, "Critically low sleep: 2 hours", 1},
		{"short", 5, models.SeverityWarning, "Unusual sleep duration: 5 hours", 1},
		{"normal", 7, "", "", 0},
		{"long", 10, models.SeverityWarning, "Unusual sleep duration: 10 hours", 1},
		{"critically long", 13, models.SeverityEmergency, "Excessive sleep: 13 hours", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := testReading(map[models.VitalType]float64{
				models.VitalSleepHours: tt.value,
			})
			facts := Classify(reading, profile)
			require.Len(t, facts, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.severity, facts[0].Severity)
				assert.Equal(t, tt.message, facts[0].Message)
			}
		})
	}
}
