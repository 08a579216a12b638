package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cbibank/internal/config"
)

// 入参校验在任何存储访问之前完成，这里可以用空依赖构造服务
func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			SeedBalance:     1000,
			MinFDAmount:     1000,
			MaxFDAmount:     10000000,
			MinFDTenure:     6,
			MaxFDTenure:     120,
			FDPenaltyPoints: 1,
			MaxAmountPerOp:  1000000,
		},
	}
}

func TestFDCreate_RejectsAmountOutOfRange(t *testing.T) {
	s := NewFDService(nil, nil, testConfig())
	ctx := context.Background()

	// 低于最低金额
	_, err := s.Create(ctx, 1, decimal.NewFromInt(999), 12)
	assert.ErrorIs(t, err, ErrFDAmountOutOfRange)

	// 超过最高金额
	_, err = s.Create(ctx, 1, decimal.NewFromInt(10000001), 12)
	assert.ErrorIs(t, err, ErrFDAmountOutOfRange)

	// 负数
	_, err = s.Create(ctx, 1, decimal.NewFromInt(-5000), 12)
	assert.ErrorIs(t, err, ErrFDAmountOutOfRange)
}

func TestFDCreate_RejectsTenureOutOfRange(t *testing.T) {
	s := NewFDService(nil, nil, testConfig())
	ctx := context.Background()

	_, err := s.Create(ctx, 1, decimal.NewFromInt(5000), 5)
	assert.ErrorIs(t, err, ErrFDTenureOutOfRange)

	_, err = s.Create(ctx, 1, decimal.NewFromInt(5000), 121)
	assert.ErrorIs(t, err, ErrFDTenureOutOfRange)

	_, err = s.Create(ctx, 1, decimal.NewFromInt(5000), 0)
	assert.ErrorIs(t, err, ErrFDTenureOutOfRange)
}

func TestAmountService_ChecksAmount(t *testing.T) {
	s := NewAmountService(nil, nil, testConfig())
	ctx := context.Background()

	_, err := s.Add(ctx, 1, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Add(ctx, 1, decimal.NewFromInt(-100), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Deduct(ctx, 1, decimal.NewFromInt(1000001), "")
	assert.ErrorIs(t, err, ErrAmountExceedLimit)
}

func TestPaymentInitiate_ChecksAmount(t *testing.T) {
	s := NewPaymentService(nil, nil, testConfig())
	ctx := context.Background()

	_, err := s.Initiate(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Initiate(ctx, 1, decimal.NewFromInt(2000000))
	assert.ErrorIs(t, err, ErrAmountExceedLimit)
}

func TestATMService_PinFormat(t *testing.T) {
	s := NewATMService(nil, testConfig())
	ctx := context.Background()

	err := s.SetPin(ctx, 1, 1, "12a4")
	assert.ErrorIs(t, err, ErrPinFormat)

	err = s.SetPin(ctx, 1, 1, "123")
	assert.ErrorIs(t, err, ErrPinFormat)

	err = s.ChangePin(ctx, 1, 1, "1234", "12345")
	assert.ErrorIs(t, err, ErrPinFormat)
}

func TestATMService_CardType(t *testing.T) {
	s := NewATMService(nil, testConfig())

	_, err := s.RequestCard(context.Background(), 1, "prepaid", "some address")
	assert.ErrorIs(t, err, ErrCardTypeInvalid)
}

func TestIsValidPin(t *testing.T) {
	assert.True(t, isValidPin("0000"))
	assert.True(t, isValidPin("1234"))
	assert.False(t, isValidPin(""))
	assert.False(t, isValidPin("12345"))
	assert.False(t, isValidPin("abcd"))
}
