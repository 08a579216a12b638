package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cbibank/internal/model"
)

func TestCanFDTransitionTo(t *testing.T) {
	// active 可以走向两个终态
	assert.True(t, model.CanFDTransitionTo(model.FDStatusActive, model.FDStatusMatured))
	assert.True(t, model.CanFDTransitionTo(model.FDStatusActive, model.FDStatusBroken))

	// 终态不可再迁移
	assert.False(t, model.CanFDTransitionTo(model.FDStatusMatured, model.FDStatusActive))
	assert.False(t, model.CanFDTransitionTo(model.FDStatusMatured, model.FDStatusBroken))
	assert.False(t, model.CanFDTransitionTo(model.FDStatusBroken, model.FDStatusMatured))
	assert.False(t, model.CanFDTransitionTo(model.FDStatusBroken, model.FDStatusActive))

	// 未知状态
	assert.False(t, model.CanFDTransitionTo("unknown", model.FDStatusMatured))
}

func TestCanCardTransitionTo(t *testing.T) {
	assert.True(t, model.CanCardTransitionTo(model.CardStatusRequested, model.CardStatusDelivered))
	assert.True(t, model.CanCardTransitionTo(model.CardStatusDelivered, model.CardStatusActive))
	assert.True(t, model.CanCardTransitionTo(model.CardStatusActive, model.CardStatusBlocked))

	// 不允许跳级激活
	assert.False(t, model.CanCardTransitionTo(model.CardStatusRequested, model.CardStatusActive))
	// 注销是终态
	assert.False(t, model.CanCardTransitionTo(model.CardStatusBlocked, model.CardStatusActive))
	// 不允许回退
	assert.False(t, model.CanCardTransitionTo(model.CardStatusActive, model.CardStatusDelivered))
}

func TestIsValidTicketStatus(t *testing.T) {
	for _, status := range []string{
		model.TicketStatusOpen,
		model.TicketStatusInProgress,
		model.TicketStatusResolved,
		model.TicketStatusClosed,
	} {
		assert.True(t, model.IsValidTicketStatus(status), status)
	}

	assert.False(t, model.IsValidTicketStatus(""))
	assert.False(t, model.IsValidTicketStatus("pending"))
}

func TestMaskedNumber(t *testing.T) {
	card := &model.ATMCard{CardNumber: "4532123456789012"}
	assert.Equal(t, "****-****-****-9012", card.MaskedNumber())

	short := &model.ATMCard{CardNumber: "12"}
	assert.Equal(t, "12", short.MaskedNumber())
}

func TestFixedDepositTotalDays(t *testing.T) {
	fd := &model.FixedDeposit{Tenure: 12}
	assert.Equal(t, 360, fd.TotalDays())

	fd.Tenure = 6
	assert.Equal(t, 180, fd.TotalDays())
}
