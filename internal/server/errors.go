package server

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/example/profinder/internal/service"
)

// httpStatus 核心哨兵错误到 HTTP 状态码的统一映射。
// 校验 400、余额不足 402、权限/未审核 403、不存在 404、
// 状态冲突 409、瞬态冲突 503（可整体重试），其余 500。
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrReasonTooShort):
		return iris.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientBalance):
		return iris.StatusPaymentRequired
	case errors.Is(err, service.ErrAccountNotApproved),
		errors.Is(err, service.ErrNotOwner):
		return iris.StatusForbidden
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrProfessionalNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrAllocationNotFound),
		errors.Is(err, service.ErrRefundNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrAlreadyUnlocked),
		errors.Is(err, service.ErrSlotsFull),
		errors.Is(err, service.ErrExclusivityConflict),
		errors.Is(err, service.ErrRequestClosed),
		errors.Is(err, service.ErrAlreadyRequested),
		errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrGuaranteeWindowClosed),
		errors.Is(err, service.ErrAllocationNotActive),
		errors.Is(err, service.ErrUsernameTaken):
		return iris.StatusConflict
	case errors.Is(err, service.ErrRetryable):
		return iris.StatusServiceUnavailable
	default:
		return iris.StatusInternalServerError
	}
}

// stopWithError 按映射结果输出统一错误包裹
func stopWithError(ctx iris.Context, err error) {
	status := httpStatus(err)
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": err.Error()})
}
