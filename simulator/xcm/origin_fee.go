package xcm

import (
	"context"
	"fmt"
	"math/big"
)

// GetOriginFeeDetails checks whether the sender can pay the origin fee of the
// transfer, inflated by marginPercentage, and stay above the existential deposit
func (s *Simulator) GetOriginFeeDetails(ctx context.Context, intent TransferIntent, marginPercentage int64) (_ *OriginFeeDetails, err error) {
	ctx, span := tracer.Start(ctx, "GetOriginFeeDetails")
	defer span.End()

	if marginPercentage <= 0 {
		marginPercentage = DefaultFeeMarginPercentage
	}

	originAsset, err := s.registry.FindAsset(intent.Origin, intent.Currency, intent.Destination)
	if err != nil {
		return nil, err
	}
	amount, err := NormalizeAmount(intent.Currency.Amount, originAsset.Decimals, intent.AbstractDecimals)
	if err != nil {
		return nil, err
	}
	native, err := s.registry.NativeAsset(intent.Origin)
	if err != nil {
		return nil, err
	}
	ed, err := s.registry.ExistentialDeposit(intent.Origin, Currency{Symbol: native.Symbol})
	if err != nil {
		return nil, err
	}

	client := s.clients.NewClient()
	lease := Pin(client)
	defer func() {
		if releaseErr := lease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Origin, releaseErr)
		}
	}()
	if err := client.Init(ctx, intent.Origin); err != nil {
		return nil, fmt.Errorf("connect to origin %s: %w", intent.Origin, err)
	}

	built := intent
	built.Currency = intent.Currency.WithAmount(amount)
	built.AbstractDecimals = false
	tx, err := s.builder.Build(ctx, built)
	if err != nil {
		return nil, fmt.Errorf("build transfer from %s: %w", intent.Origin, err)
	}

	fee, err := client.TransactionFee(ctx, tx, intent.Sender)
	if err != nil {
		return nil, fmt.Errorf("compute transaction fee on %s: %w", intent.Origin, err)
	}
	balance, err := client.NativeBalance(ctx, intent.Sender)
	if err != nil {
		return nil, fmt.Errorf("query native balance on %s: %w", intent.Origin, err)
	}

	feeWithMargin := new(big.Int).Quo(fee, big.NewInt(marginPercentage))
	feeWithMargin.Add(feeWithMargin, fee)

	remaining := new(big.Int).Sub(balance, ed)
	remaining.Sub(remaining, feeWithMargin)

	xcmLog.Debug().
		Str("origin", intent.Origin).
		Str("fee", fee.String()).
		Str("feeWithMargin", feeWithMargin.String()).
		Str("balance", balance.String()).
		Msg("Computed origin fee details")

	return &OriginFeeDetails{
		SufficientForXCM: remaining.Sign() > 0,
		XcmFee:           fee,
	}, nil
}
