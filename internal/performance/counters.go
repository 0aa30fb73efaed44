// Package performance keeps each vendor's four performance indicators current
// as its purchase orders are acknowledged, completed and cancelled.
package performance

import (
	"time"

	"vendor-service/internal/model"
)

// ApplyAcknowledgement folds one order's response time into the vendor's
// running mean. The mean is weighted by the acknowledged count before the
// increment, which is then bumped.
func ApplyAcknowledgement(ind *model.PerformanceIndicators, c *model.VendorCounters, responseMinutes float64) {
	n := float64(c.TotAcknowledgedPOs)
	ind.AvgResponseTime = (ind.AvgResponseTime*n + responseMinutes) / (n + 1)
	c.TotAcknowledgedPOs++
}

// ApplyFulfilment updates the completion counters and the three completion
// indicators for an order that was just completed or cancelled.
//
// Only completed orders move the counters. The quality mean is still
// recomputed for cancelled orders, folding in a zero rating, whenever at least
// one order has been completed. On-time rate and quality mean keep their
// previous value until the first completion; fulfillment rate is zero while no
// orders were placed.
func ApplyFulfilment(ind *model.PerformanceIndicators, c *model.VendorCounters, po *model.PurchaseOrder, now time.Time) {
	completed := po.Status == model.StatusCompleted

	if completed && po.DeliveryDate.After(now) {
		c.TotOnTimeDeliveries++
	}
	if completed {
		c.TotCompletedPOs++
	}

	if c.TotCompletedPOs > 0 {
		ind.OnTimeDeliveryRate = float64(c.TotOnTimeDeliveries) / float64(c.TotCompletedPOs)
	}

	if c.TotPOs > 0 {
		ind.FulfillmentRate = float64(c.TotCompletedPOs) / float64(c.TotPOs)
	} else {
		ind.FulfillmentRate = 0
	}

	if c.TotCompletedPOs > 0 {
		rating := 0.0
		if po.QualityRating != nil {
			rating = *po.QualityRating
		}
		n := float64(c.TotCompletedPOs)
		ind.QualityRatingAvg = (ind.QualityRatingAvg*(n-1) + rating) / n
	}
}

// ResponseMinutes is the time from issue to acknowledgment in minutes
func ResponseMinutes(po *model.PurchaseOrder) float64 {
	if po.AcknowledgmentDate == nil {
		return 0
	}
	return po.AcknowledgmentDate.Sub(po.IssueDate).Minutes()
}
