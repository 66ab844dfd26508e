package watcher

import (
	"github.com/eczanelab/pharmapos/pkg/alerts"
	"github.com/eczanelab/pharmapos/pkg/model"
)

// Classify assigns a severity to a stock quantity. The critical check runs
// first, so a drug at or below both thresholds is critical, never low.
func Classify(stock, threshold, critical int) alerts.Severity {
	switch {
	case stock <= critical:
		return alerts.SeverityCritical
	case stock <= threshold:
		return alerts.SeverityLow
	default:
		return alerts.SeverityNormal
	}
}

// Partition splits a catalog snapshot into critical and low batches.
// Drugs without a configured threshold use the fallback.
func Partition(drugs []model.Drug, fallbackThreshold, critical int) (criticalBatch, lowBatch []model.Drug) {
	for _, d := range drugs {
		threshold := model.EffectiveThreshold(d, fallbackThreshold)
		switch Classify(d.StockQuantity, threshold, critical) {
		case alerts.SeverityCritical:
			criticalBatch = append(criticalBatch, d)
		case alerts.SeverityLow:
			lowBatch = append(lowBatch, d)
		}
	}
	return criticalBatch, lowBatch
}
