// Package telemetry 提供采集数据源抽象与默认合成数据源
package telemetry

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// Source 采集数据源：每个 tick per patient 产出一条读数
type Source interface {
	Next(patientID string, now time.Time) *models.Reading
}

// SyntheticSource 合成数据源（无真实设备时使用）
// 各体征在常见健康区间内均匀采样，偶尔落入 warning 区间边缘
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource 创建合成数据源
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededSource 创建可复现的数据源（测试用）
func NewSeededSource(seed int64) *SyntheticSource {
	return &SyntheticSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Next 产出一条读数
// 心率 60-110、收缩压 110-130、舒张压 70-85、血糖 80-140、睡眠 5.0-8.0（一位小数）
func (s *SyntheticSource) Next(patientID string, now time.Time) *models.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	heartRate := s.intBetween(60, 110)
	systolicBP := s.intBetween(110, 130)
	diastolicBP := s.intBetween(70, 85)
	glucose := s.intBetween(80, 140)
	sleepHours := math.Round((s.rng.Float64()*3+5)*10) / 10

	return &models.Reading{
		PatientID:   patientID,
		Timestamp:   now,
		HeartRate:   &heartRate,
		SystolicBP:  &systolicBP,
		DiastolicBP: &diastolicBP,
		Glucose:     &glucose,
		SleepHours:  &sleepHours,
	}
}

func (s *SyntheticSource) intBetween(min, max int) float64 {
	return float64(s.rng.Intn(max-min) + min)
}
