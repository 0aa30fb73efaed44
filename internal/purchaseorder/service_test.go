package purchaseorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-service/internal/jobs"
	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/internal/testutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	jobRuns *repository.JobRunRepo
	vendor  *model.Vendor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	jobRuns := repository.NewJobRunRepo(db)
	queue := jobs.NewQueue(jobRuns, jobs.NewLocalNotifier(), zap.NewNop())
	svc := NewService(db, repository.NewVendorRepo(db), repository.NewPurchaseOrderRepo(db), queue, zap.NewNop())
	return &fixture{
		db:      db,
		svc:     svc,
		jobRuns: jobRuns,
		vendor:  testutil.SeedVendor(t, db, "Acme"),
	}
}

func (f *fixture) create(t *testing.T, items model.Items) *model.PurchaseOrder {
	t.Helper()
	po, err := f.svc.Create(context.Background(), CreateInput{
		VendorCode:   f.vendor.VendorCode,
		Items:        items,
		DeliveryDate: time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return po
}

func (f *fixture) jobsFor(t *testing.T, task string) []model.JobRun {
	t.Helper()
	var out []model.JobRun
	if err := f.db.Where("task_name = ?", task).Find(&out).Error; err != nil {
		t.Fatalf("load jobs: %v", err)
	}
	return out
}

func TestCreateComputesQuantityAndCountsOrder(t *testing.T) {
	f := newFixture(t)

	po := f.create(t, model.Items{"bolt": 3, "nut": 4})
	if po.Status != model.StatusPending || po.AcknowledgmentDate != nil {
		t.Errorf("new order %+v, want pending and unacknowledged", po)
	}
	if po.Quantity != 7 {
		t.Errorf("Quantity = %d, want 7", po.Quantity)
	}
	f.create(t, model.Items{"bolt": 1})

	v := testutil.ReloadVendor(t, f.db, f.vendor.ID)
	if v.Counters.TotPOs != 2 {
		t.Errorf("TotPOs = %d, want 2", v.Counters.TotPOs)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"unknown vendor", CreateInput{VendorCode: "nope", Items: model.Items{"a": 1}, DeliveryDate: later}, repository.ErrNotFound},
		{"missing vendor", CreateInput{Items: model.Items{"a": 1}, DeliveryDate: later}, ErrVendorRequired},
		{"no items", CreateInput{VendorCode: f.vendor.VendorCode, DeliveryDate: later}, ErrInvalidItems},
		{"zero quantity", CreateInput{VendorCode: f.vendor.VendorCode, Items: model.Items{"a": 0}, DeliveryDate: later}, ErrInvalidItems},
		{"no delivery date", CreateInput{VendorCode: f.vendor.VendorCode, Items: model.Items{"a": 1}}, ErrDeliveryDateRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if v := testutil.ReloadVendor(t, f.db, f.vendor.ID); v.Counters.TotPOs != 0 {
		t.Errorf("rejected orders were counted: TotPOs = %d", v.Counters.TotPOs)
	}
}

func TestCreateRejectsSoftDeletedVendor(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Delete(f.vendor).Error; err != nil {
		t.Fatalf("delete vendor: %v", err)
	}
	_, err := f.svc.Create(context.Background(), CreateInput{
		VendorCode:   f.vendor.VendorCode,
		Items:        model.Items{"a": 1},
		DeliveryDate: time.Now(),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRecomputesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.create(t, model.Items{"bolt": 3})

	newDate := time.Now().Add(240 * time.Hour).UTC().Truncate(time.Second)
	got, err := f.svc.Update(ctx, po.PONumber, UpdateInput{Items: model.Items{"bolt": 2, "gear": 8}, DeliveryDate: &newDate})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", got.Quantity)
	}
	if !got.DeliveryDate.Equal(newDate) {
		t.Errorf("DeliveryDate = %v, want %v", got.DeliveryDate, newDate)
	}

	if _, err := f.svc.Update(ctx, po.PONumber, UpdateInput{Items: model.Items{"bolt": -1}}); !errors.Is(err, ErrInvalidItems) {
		t.Errorf("negative quantity err = %v", err)
	}

	if _, err := f.svc.Cancel(ctx, po.PONumber); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.svc.Update(ctx, po.PONumber, UpdateInput{Items: model.Items{"bolt": 1}}); !errors.Is(err, ErrNotPending) {
		t.Errorf("update of cancelled order err = %v, want ErrNotPending", err)
	}

	if v := testutil.ReloadVendor(t, f.db, f.vendor.ID); v.Counters.TotPOs != 1 {
		t.Errorf("update changed TotPOs to %d", v.Counters.TotPOs)
	}
}

func TestAcknowledgeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.create(t, model.Items{"bolt": 1})

	first, err := f.svc.Acknowledge(ctx, po.PONumber)
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if first.AcknowledgmentDate == nil || first.Status != model.StatusPending {
		t.Fatalf("acknowledged order %+v", first)
	}

	if _, err := f.svc.Acknowledge(ctx, po.PONumber); !errors.Is(err, ErrAlreadyAcknowledged) {
		t.Fatalf("second Acknowledge err = %v, want ErrAlreadyAcknowledged", err)
	}

	again, err := f.svc.Get(ctx, po.PONumber)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !again.AcknowledgmentDate.Equal(*first.AcknowledgmentDate) {
		t.Errorf("acknowledgment date changed from %v to %v", first.AcknowledgmentDate, again.AcknowledgmentDate)
	}

	if jobs := f.jobsFor(t, performance.TaskAvgResponseTime); len(jobs) != 1 || jobs[0].OrderNumber != po.PONumber {
		t.Errorf("enqueued jobs %+v, want one for %s", jobs, po.PONumber)
	}
}

func TestCompleteRequiresRatingAndIsOneShot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.create(t, model.Items{"bolt": 1})

	if _, err := f.svc.Complete(ctx, po.PONumber, nil); !errors.Is(err, ErrQualityRatingRequired) {
		t.Fatalf("nil rating err = %v", err)
	}
	zero := 0.0
	if _, err := f.svc.Complete(ctx, po.PONumber, &zero); !errors.Is(err, ErrQualityRatingRequired) {
		t.Fatalf("zero rating err = %v", err)
	}
	if got, _ := f.svc.Get(ctx, po.PONumber); got.Status != model.StatusPending {
		t.Fatalf("rejected completion changed status to %q", got.Status)
	}

	rating := 4.5
	done, err := f.svc.Complete(ctx, po.PONumber, &rating)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != model.StatusCompleted || done.QualityRating == nil || *done.QualityRating != 4.5 {
		t.Errorf("completed order %+v", done)
	}

	if _, err := f.svc.Complete(ctx, po.PONumber, &rating); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second Complete err = %v, want ErrAlreadyCompleted", err)
	}
	if _, err := f.svc.Cancel(ctx, po.PONumber); !errors.Is(err, ErrTerminalState) {
		t.Errorf("Cancel of completed order err = %v, want ErrTerminalState", err)
	}

	if jobs := f.jobsFor(t, performance.TaskPerformanceMetrics); len(jobs) != 1 {
		t.Errorf("enqueued %d performance jobs, want 1", len(jobs))
	}
}

func TestCancelOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.create(t, model.Items{"bolt": 1})

	got, err := f.svc.Cancel(ctx, po.PONumber)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}

	if _, err := f.svc.Cancel(ctx, po.PONumber); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second Cancel err = %v, want ErrAlreadyCancelled", err)
	}
	rating := 5.0
	if _, err := f.svc.Complete(ctx, po.PONumber, &rating); !errors.Is(err, ErrTerminalState) {
		t.Errorf("Complete of cancelled order err = %v, want ErrTerminalState", err)
	}

	if jobs := f.jobsFor(t, performance.TaskPerformanceMetrics); len(jobs) != 1 {
		t.Errorf("enqueued %d performance jobs, want 1", len(jobs))
	}
}

func TestTransitionsOnMissingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rating := 1.0

	if _, err := f.svc.Acknowledge(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Acknowledge err = %v", err)
	}
	if _, err := f.svc.Complete(ctx, "missing", &rating); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Complete err = %v", err)
	}
	if _, err := f.svc.Cancel(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Cancel err = %v", err)
	}
	if err := f.svc.Delete(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Delete err = %v", err)
	}
}

func TestDeleteKeepsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.create(t, model.Items{"bolt": 1})

	if err := f.svc.Delete(ctx, po.PONumber); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, total, err := f.svc.List(ctx, repository.PurchaseOrderFilter{})
	if err != nil || total != 0 || len(list) != 0 {
		t.Errorf("List after delete = %v, %d, %v", list, total, err)
	}
	if v := testutil.ReloadVendor(t, f.db, f.vendor.ID); v.Counters.TotPOs != 1 {
		t.Errorf("TotPOs = %d, want 1", v.Counters.TotPOs)
	}
}

func TestAcknowledgeAfterTerminalState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rating := 3.0

	cancelled := f.create(t, model.Items{"bolt": 1})
	if _, err := f.svc.Cancel(ctx, cancelled.PONumber); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	completed := f.create(t, model.Items{"bolt": 1})
	if _, err := f.svc.Complete(ctx, completed.PONumber, &rating); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Only the acknowledgment date guards Acknowledge; terminal status does not.
	for _, po := range []*model.PurchaseOrder{cancelled, completed} {
		got, err := f.svc.Acknowledge(ctx, po.PONumber)
		if err != nil {
			t.Fatalf("Acknowledge %s: %v", po.PONumber, err)
		}
		if got.AcknowledgmentDate == nil || !got.IsTerminal() {
			t.Errorf("acknowledged order %+v, want terminal with a date", got)
		}
		if _, err := f.svc.Acknowledge(ctx, po.PONumber); !errors.Is(err, ErrAlreadyAcknowledged) {
			t.Errorf("second Acknowledge err = %v, want ErrAlreadyAcknowledged", err)
		}
	}

	if jobs := f.jobsFor(t, performance.TaskAvgResponseTime); len(jobs) != 2 {
		t.Errorf("enqueued %d response-time jobs, want 2", len(jobs))
	}
}
