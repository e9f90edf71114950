// Package aggregator 按滑动时间窗聚合患者采样历史
// 纯计算：过滤、排序、分类、构建图表时间序列，不访问存储
package aggregator

import (
	"sort"
	"strconv"
	"time"

	"github.com/Gaurav-cgpa/Cavista/internal/classifier"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// TimeSeriesPoint 图表时间序列点（升序输出，缺失体征为 null）
type TimeSeriesPoint struct {
	Time        string    `json:"time"` // 本地时间 HH:MM（24小时制）
	Timestamp   time.Time `json:"timestamp"`
	HeartRate   *float64  `json:"heartRate"`
	SystolicBP  *float64  `json:"systolicBP"`
	DiastolicBP *float64  `json:"diastolicBP"`
	Glucose     *float64  `json:"glucose"`
	SleepHours  *float64  `json:"sleepHours"`
}

// WindowResult 一次窗口查询的完整结果
// Readings 按时间降序（最新在前），TimeSeries 按时间升序（供图表）
type WindowResult struct {
	Readings      []models.Reading    `json:"readings"`
	TimeSeries    []TimeSeriesPoint   `json:"timeSeries"`
	Alerts        []models.AlertBatch `json:"alerts"`
	HasEmergency  bool                `json:"hasEmergency"`
	LatestReading *models.Reading     `json:"latestReading"`
	TotalRecords  int                 `json:"totalRecords"`
}

// BuildWindow 过滤出 timestamp >= now-duration 的采样并聚合
// 同一份过滤结果排两次序（降序出报警批次、升序出时间序列），不维护两份存储
func BuildWindow(readings []models.Reading, profile models.ThresholdProfile, now time.Time, duration time.Duration) WindowResult {
	cutoff := now.Add(-duration)

	var windowed []models.Reading
	for _, r := range readings {
		if !r.Timestamp.Before(cutoff) {
			windowed = append(windowed, r)
		}
	}

	// 降序：最新在前
	sort.SliceStable(windowed, func(i, j int) bool {
		return windowed[i].Timestamp.After(windowed[j].Timestamp)
	})

	result := WindowResult{
		Readings:     windowed,
		TotalRecords: len(windowed),
	}

	if len(windowed) == 0 {
		// 空窗口是合法的成功结果（零报警），与查询失败区分开
		result.TimeSeries = []TimeSeriesPoint{}
		result.Alerts = []models.AlertBatch{}
		return result
	}

	result.LatestReading = &windowed[0]

	// 报警批次：只保留产生了事实的采样，最新批次标记 isLatest
	batches := make([]models.AlertBatch, 0)
	for i := range windowed {
		facts := classifier.Classify(&windowed[i], profile)
		if len(facts) == 0 {
			continue
		}
		batch := models.AlertBatch{
			Timestamp: windowed[i].Timestamp,
			IsLatest:  i == 0,
			Alerts:    facts,
		}
		if batch.HasEmergency() {
			result.HasEmergency = true
		}
		batches = append(batches, batch)
	}
	result.Alerts = batches

	// 时间序列：同一份数据升序重排
	ascending := make([]models.Reading, len(windowed))
	copy(ascending, windowed)
	sort.SliceStable(ascending, func(i, j int) bool {
		return ascending[i].Timestamp.Before(ascending[j].Timestamp)
	})

	series := make([]TimeSeriesPoint, 0, len(ascending))
	for _, r := range ascending {
		series = append(series, TimeSeriesPoint{
			Time:        r.Timestamp.Local().Format("15:04"),
			Timestamp:   r.Timestamp,
			HeartRate:   r.HeartRate,
			SystolicBP:  r.SystolicBP,
			DiastolicBP: r.DiastolicBP,
			Glucose:     r.Glucose,
			SleepHours:  r.SleepHours,
		})
	}
	result.TimeSeries = series

	return result
}

// Trend 展示用趋势增量："+2"、"-0.5"，无前值或无变化为 "stable"
// 只用于展示，不参与报警判定
func Trend(current, previous *float64) string {
	if current == nil || previous == nil {
		return "stable"
	}
	delta := *current - *previous
	if delta == 0 {
		return "stable"
	}
	s := strconv.FormatFloat(delta, 'f', -1, 64)
	if delta > 0 {
		return "+" + s
	}
	return s
}
