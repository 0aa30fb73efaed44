package performance

import (
	"math"
	"testing"
	"time"

	"vendor-service/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func rating(r float64) *float64 { return &r }

func TestApplyAcknowledgementRunningMean(t *testing.T) {
	var ind model.PerformanceIndicators
	c := model.VendorCounters{TotPOs: 2}

	ApplyAcknowledgement(&ind, &c, 1.0)
	if !approx(ind.AvgResponseTime, 1.0) || c.TotAcknowledgedPOs != 1 {
		t.Fatalf("after first: avg %v count %d", ind.AvgResponseTime, c.TotAcknowledgedPOs)
	}

	ApplyAcknowledgement(&ind, &c, 5.0)
	if !approx(ind.AvgResponseTime, 3.0) || c.TotAcknowledgedPOs != 2 {
		t.Fatalf("after second: avg %v count %d", ind.AvgResponseTime, c.TotAcknowledgedPOs)
	}
}

func TestApplyFulfilment(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("on time then late", func(t *testing.T) {
		var ind model.PerformanceIndicators
		c := model.VendorCounters{TotPOs: 2}

		ApplyFulfilment(&ind, &c, &model.PurchaseOrder{
			Status:        model.StatusCompleted,
			DeliveryDate:  now.Add(24 * time.Hour),
			QualityRating: rating(7),
		}, now)
		if !approx(ind.OnTimeDeliveryRate, 1.0) || !approx(ind.FulfillmentRate, 0.5) || !approx(ind.QualityRatingAvg, 7.0) {
			t.Fatalf("after A: %+v", ind)
		}

		ApplyFulfilment(&ind, &c, &model.PurchaseOrder{
			Status:        model.StatusCompleted,
			DeliveryDate:  now.Add(-24 * time.Hour),
			QualityRating: rating(8),
		}, now)
		if !approx(ind.OnTimeDeliveryRate, 0.5) || !approx(ind.FulfillmentRate, 1.0) || !approx(ind.QualityRatingAvg, 7.5) {
			t.Fatalf("after B: %+v", ind)
		}
		if c.TotCompletedPOs != 2 || c.TotOnTimeDeliveries != 1 {
			t.Errorf("counters %+v", c)
		}
	})

	t.Run("cancellation before any completion", func(t *testing.T) {
		var ind model.PerformanceIndicators
		c := model.VendorCounters{TotPOs: 1}

		ApplyFulfilment(&ind, &c, &model.PurchaseOrder{
			Status:       model.StatusCancelled,
			DeliveryDate: now.Add(time.Hour),
		}, now)
		if c.TotCompletedPOs != 0 || c.TotOnTimeDeliveries != 0 {
			t.Errorf("cancel moved counters: %+v", c)
		}
		if ind != (model.PerformanceIndicators{}) {
			t.Errorf("indicators changed: %+v", ind)
		}
	})

	t.Run("cancellation after a completion folds a zero rating", func(t *testing.T) {
		ind := model.PerformanceIndicators{OnTimeDeliveryRate: 1, FulfillmentRate: 0.5, QualityRatingAvg: 7}
		c := model.VendorCounters{TotPOs: 2, TotCompletedPOs: 1, TotOnTimeDeliveries: 1}

		ApplyFulfilment(&ind, &c, &model.PurchaseOrder{
			Status:       model.StatusCancelled,
			DeliveryDate: now.Add(time.Hour),
		}, now)
		if c.TotCompletedPOs != 1 || c.TotOnTimeDeliveries != 1 {
			t.Errorf("cancel moved counters: %+v", c)
		}
		if !approx(ind.OnTimeDeliveryRate, 1) || !approx(ind.FulfillmentRate, 0.5) {
			t.Errorf("rates changed: %+v", ind)
		}
		if !approx(ind.QualityRatingAvg, 0) {
			t.Errorf("QualityRatingAvg = %v, want 0", ind.QualityRatingAvg)
		}
	})

	t.Run("no orders placed", func(t *testing.T) {
		ind := model.PerformanceIndicators{FulfillmentRate: 0.3}
		var c model.VendorCounters
		ApplyFulfilment(&ind, &c, &model.PurchaseOrder{Status: model.StatusCancelled}, now)
		if ind.FulfillmentRate != 0 {
			t.Errorf("FulfillmentRate = %v, want 0", ind.FulfillmentRate)
		}
	})
}

func TestResponseMinutesKeepsWholeDays(t *testing.T) {
	issue := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ack := issue.Add(26*time.Hour + 30*time.Second)
	po := &model.PurchaseOrder{IssueDate: issue, AcknowledgmentDate: &ack}
	if got := ResponseMinutes(po); !approx(got, 26*60+0.5) {
		t.Errorf("ResponseMinutes = %v, want %v", got, 26*60+0.5)
	}
	if got := ResponseMinutes(&model.PurchaseOrder{IssueDate: issue}); got != 0 {
		t.Errorf("unacknowledged ResponseMinutes = %v, want 0", got)
	}
}
