package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSource_RangesAndShape(t *testing.T) {
	src := NewSeededSource(42)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		r := src.Next("patient-1", now)
		require.NoError(t, r.Validate())
		assert.Equal(t, "patient-1", r.PatientID)
		assert.Equal(t, now, r.Timestamp)

		require.NotNil(t, r.HeartRate)
		assert.GreaterOrEqual(t, *r.HeartRate, 60.0)
		assert.Less(t, *r.HeartRate, 110.0)

		require.NotNil(t, r.SystolicBP)
		assert.GreaterOrEqual(t, *r.SystolicBP, 110.0)
		assert.Less(t, *r.SystolicBP, 130.0)

		require.NotNil(t, r.DiastolicBP)
		assert.GreaterOrEqual(t, *r.DiastolicBP, 70.0)
		assert.Less(t, *r.DiastolicBP, 85.0)

		require.NotNil(t, r.Glucose)
		assert.GreaterOrEqual(t, *r.Glucose, 80.0)
		assert.Less(t, *r.Glucose, 140.0)

		require.NotNil(t, r.SleepHours)
		assert.GreaterOrEqual(t, *r.SleepHours, 5.0)
		assert.LessOrEqual(t, *r.SleepHours, 8.0)
		// 一位小数
		assert.InDelta(t, *r.SleepHours, math.Round(*r.SleepHours*10)/10, 1e-9)
	}
}

func TestSyntheticSource_SeededReproducible(t *testing.T) {
	a := NewSeededSource(7)
	b := NewSeededSource(7)
	now := time.Now()

	for i := 0; i < 10; i++ {
		ra := a.Next("p", now)
		rb := b.Next("p", now)
		assert.Equal(t, *ra.HeartRate, *rb.HeartRate)
		assert.Equal(t, *ra.SleepHours, *rb.SleepHours)
	}
}
