package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/profinder/internal/datamodels/allocation"
	"github.com/example/profinder/internal/datamodels/refund"
)

func TestRefundSubmitAndApprove(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeNormal)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	rr, err := svc.Submit(ctx, acc.ID, alloc.ID, "客户电话一直打不通，需求单早已失效", []string{"call_log.png"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rr.Status != refund.StatusPending || rr.Kind != refund.KindManual {
		t.Errorf("refund = %+v, want pending manual", rr)
	}
	// pending 阶段不动余额
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 85 {
		t.Errorf("balance while pending = %d, want 85", balance)
	}

	resolved, err := svc.Resolve(ctx, rr.ID, DecisionApprove, "核实属实")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != refund.StatusApproved || resolved.ResolvedAt == nil {
		t.Errorf("resolved = %+v, want approved with resolved_at", resolved)
	}
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 100 {
		t.Errorf("balance after approve = %d, want 100", balance)
	}

	var a allocation.Allocation
	db.First(&a, alloc.ID)
	if a.Status != allocation.StatusRefunded {
		t.Errorf("allocation status = %q, want refunded", a.Status)
	}

	// 重复审批不再入账
	if _, err := svc.Resolve(ctx, rr.ID, DecisionApprove, "再批一次"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("second resolve error = %v, want ErrAlreadyResolved", err)
	}
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 100 {
		t.Errorf("balance after double resolve = %d, want 100", balance)
	}
	assertLedgerConsistent(t, db, acc.ID)
}

func TestRefundSubmitValidation(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeNormal)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	if _, err := svc.Submit(ctx, acc.ID, alloc.ID, "太短", nil); !errors.Is(err, ErrReasonTooShort) {
		t.Errorf("short reason error = %v, want ErrReasonTooShort", err)
	}

	stranger := newTestAccount(t, db, 100, true)
	if _, err := svc.Submit(ctx, stranger.ID, alloc.ID, "别人的解锁记录我也想退款试试", nil); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger submit error = %v, want ErrNotOwner", err)
	}

	if _, err := svc.Submit(ctx, acc.ID, alloc.ID+9999, "这条解锁记录根本不存在啊", nil); !errors.Is(err, ErrAllocationNotFound) {
		t.Errorf("missing allocation error = %v, want ErrAllocationNotFound", err)
	}
}

func TestRefundDenyIsTerminal(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeNormal)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	rr, err := svc.Submit(ctx, acc.ID, alloc.ID, "客户嫌价格高不愿意继续沟通", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	denied, err := svc.Resolve(ctx, rr.ID, DecisionDeny, "沟通记录正常，不符合退款条件")
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if denied.Status != refund.StatusDenied {
		t.Errorf("status = %q, want denied", denied.Status)
	}

	// 驳回不退钱，解锁记录保持有效
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 85 {
		t.Errorf("balance after deny = %d, want 85", balance)
	}
	var a allocation.Allocation
	db.First(&a, alloc.ID)
	if a.Status != allocation.StatusActive {
		t.Errorf("allocation status = %q, want active after deny", a.Status)
	}

	// 驳回是终态：同一解锁记录不能重提，也不能再走保障
	if _, err := svc.Submit(ctx, acc.ID, alloc.ID, "上次被驳回了我再申请一次看看", nil); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("resubmit after deny error = %v, want ErrAlreadyRequested", err)
	}
	if _, err := svc.AutoGuarantee(ctx, acc.ID, alloc.ID); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("guarantee after deny error = %v, want ErrAlreadyRequested", err)
	}
	assertLedgerConsistent(t, db, acc.ID)
}

func TestRefundResolveInvalidDecision(t *testing.T) {
	db := setupDB(t)
	svc := NewRefundService(db, NewLedgerService(db, nil), testPricing(), nil)

	if _, err := svc.Resolve(context.Background(), 1, "maybe", ""); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("resolve error = %v, want ErrInvalidDecision", err)
	}
}

func TestAutoGuarantee(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeExclusive)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	// 独占花费 50，余额 50

	out, err := svc.AutoGuarantee(ctx, acc.ID, alloc.ID)
	if err != nil {
		t.Fatalf("guarantee: %v", err)
	}
	// 50 * 30% = 15
	if out.CreditedAmount != 15 {
		t.Errorf("credited = %d, want 15", out.CreditedAmount)
	}
	if out.NewBalance != 65 {
		t.Errorf("new balance = %d, want 65", out.NewBalance)
	}

	var rr refund.RefundRequest
	if err := db.First(&rr, out.RefundID).Error; err != nil {
		t.Fatalf("load refund: %v", err)
	}
	if rr.Kind != refund.KindAutomaticGuarantee || rr.Status != refund.StatusApproved || rr.ResolvedAt == nil {
		t.Errorf("refund = %+v, want resolved automatic_guarantee", rr)
	}
	var a allocation.Allocation
	db.First(&a, alloc.ID)
	if a.Status != allocation.StatusRefunded {
		t.Errorf("allocation status = %q, want refunded", a.Status)
	}

	// 保障只赔一次，之后人工申请同样被拒
	if _, err := svc.AutoGuarantee(ctx, acc.ID, alloc.ID); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("second guarantee error = %v, want ErrAlreadyRequested", err)
	}
	if _, err := svc.Submit(ctx, acc.ID, alloc.ID, "保障赔付之后想再人工退一次", nil); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("submit after guarantee error = %v, want ErrAlreadyRequested", err)
	}
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 65 {
		t.Errorf("balance after repeat attempts = %d, want 65", balance)
	}
	assertLedgerConsistent(t, db, acc.ID)
}

func TestAutoGuaranteeGuards(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeNormal)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	stranger := newTestAccount(t, db, 100, true)
	if _, err := svc.AutoGuarantee(ctx, stranger.ID, alloc.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger guarantee error = %v, want ErrNotOwner", err)
	}

	// 人工退款批准后解锁记录已不是 active，保障不再适用
	rr, err := svc.Submit(ctx, acc.ID, alloc.ID, "客户表示已经另找他人处理了", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Resolve(ctx, rr.ID, DecisionApprove, ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.AutoGuarantee(ctx, acc.ID, alloc.ID); !errors.Is(err, ErrAllocationNotActive) {
		t.Errorf("guarantee after refund error = %v, want ErrAllocationNotActive", err)
	}
}

func TestAutoGuaranteeWindowClosed(t *testing.T) {
	db := setupDB(t)
	ledger := NewLedgerService(db, nil)
	allocSvc := NewAllocationService(db, ledger, testPricing(), nil, nil)
	svc := NewRefundService(db, ledger, testPricing(), nil)
	ctx := context.Background()

	acc := newTestAccount(t, db, 100, true)
	sr := newTestRequest(t, db, 4)
	alloc, err := allocSvc.Unlock(ctx, acc.ID, sr.ID, allocation.ModeNormal)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	// 把解锁时间拨回窗口之外
	old := time.Now().AddDate(0, 0, -31)
	if err := db.Model(&allocation.Allocation{}).
		Where("id = ?", alloc.ID).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate allocation: %v", err)
	}

	if _, err := svc.AutoGuarantee(ctx, acc.ID, alloc.ID); !errors.Is(err, ErrGuaranteeWindowClosed) {
		t.Errorf("guarantee error = %v, want ErrGuaranteeWindowClosed", err)
	}
	if balance, _ := ledger.Balance(ctx, acc.ID); balance != 85 {
		t.Errorf("balance = %d, want 85 (no payout)", balance)
	}
}

func TestGuaranteeAmount(t *testing.T) {
	cases := []struct {
		cost, percent, want int64
	}{
		{50, 30, 15},
		{15, 30, 4}, // 向下取整
		{15, 0, 0},
		{0, 30, 0},
		{100, 100, 100},
		{100, 150, 100}, // 比例封顶 100
		{-5, 30, 0},
	}
	for _, c := range cases {
		if got := guaranteeAmount(c.cost, c.percent); got != c.want {
			t.Errorf("guaranteeAmount(%d, %d) = %d, want %d", c.cost, c.percent, got, c.want)
		}
	}
}
