package purchase

import (
	"context"
	"log"

	"kwickpay/epins"
	"kwickpay/models"
	"kwickpay/txn"
	"kwickpay/utils"
	"kwickpay/wallet"
)

// intent is one fully-resolved purchase: the wallet that pays, the amount,
// and the reference the aggregator will be called with.
type intent struct {
	Kind        string
	Service     string
	Wallet      *models.Wallet
	UserID      string
	Amount      float64
	Reference   string
	Description string
	Meta        models.Meta
}

// settlement is the terminal (or deferred) state of one settle run.
type settlement struct {
	Txn      *models.Transaction
	Result   epins.Result
	Refunded bool
	Pending  bool
}

// settle runs one purchase end to end: record the intent, reserve the funds,
// call the aggregator, resolve uncertainty with a single recheck, then land
// on exactly one of success, failed-with-refund, or pending.
//
// The refund rule: funds come back if and only if the outcome is terminally
// failed. An attempt that stays uncertain after the recheck keeps the hold
// unless the uncertainty came from the wire itself (timeout, connection
// error), in which case no request is known to have reached the provider and
// holding the money buys nothing.
func (s *Service) settle(ctx context.Context, in intent, attempt AttemptFunc, recheck RecheckFunc) (*settlement, error) {
	if !s.Sandbox && in.Wallet.Balance < in.Amount {
		return nil, wallet.ErrInsufficientFunds
	}

	meta := models.Meta{
		"provider":        Provider,
		"providerService": in.Service,
	}
	for k, v := range in.Meta {
		meta[k] = v
	}
	if s.Sandbox {
		meta["mode"] = "sandbox"
	}

	t := &models.Transaction{
		ID:          utils.GetUUID(),
		WalletID:    in.Wallet.ID,
		UserID:      in.UserID,
		Type:        models.TypeDebit,
		Amount:      in.Amount,
		Reference:   in.Reference,
		Description: in.Description,
		Status:      models.StatusPending,
		Meta:        meta,
	}
	if err := s.Txns.Create(ctx, t); err != nil {
		if err == txn.ErrDuplicate {
			return nil, ErrReferenceCollision
		}
		return nil, err
	}

	s.publish(ctx, in, models.StatusPending, in.Kind+" purchase initialized")

	reserved := false
	if !s.Sandbox {
		entry := models.WalletEntry{
			Type:        models.TypeDebit,
			Amount:      in.Amount,
			Reference:   in.Reference,
			Description: in.Description,
			Status:      models.StatusPending,
		}
		if err := s.Wallets.ReserveDebit(ctx, in.Wallet.ID, in.Amount, entry); err != nil {
			// The intent record stays behind as a failed attempt; nothing was
			// sent to the provider.
			_ = s.Txns.SetStatus(ctx, t.ID, models.StatusFailed, models.Meta{"reason": err.Error()})
			s.publish(ctx, in, models.StatusFailed, in.Kind+" purchase failed: "+err.Error())
			return nil, err
		}
		reserved = true
	}

	res := attempt(ctx)
	final := res
	if res.Outcome == epins.OutcomeUncertain {
		log.Printf("[%s] uncertain outcome for %s, rechecking: %s", in.Kind, in.Reference, res.Message)
		second := recheck(ctx)
		switch {
		case second.Outcome != epins.OutcomeUncertain:
			final = second
		case res.Transport:
			// Nothing reached the provider and the recheck found no record
			// of the reference. Give up and release the funds.
			final = second
			final.Outcome = epins.OutcomeFailed
			if final.Message == "" {
				final.Message = res.Message
			}
		default:
			// The provider answered but the payload stayed ambiguous. The
			// order may still deliver; the webhook or a manual recheck
			// finalizes it.
			final = second
		}
	}

	switch final.Outcome {
	case epins.OutcomeSuccess:
		providerRef := final.ProviderRef
		if providerRef == "" {
			providerRef = in.Reference
		}
		_ = s.Txns.SetStatus(ctx, t.ID, models.StatusSuccess, models.Meta{
			"providerRef":      providerRef,
			"providerResponse": final.Raw,
		})
		if reserved {
			_ = s.Wallets.SetEntryStatus(ctx, in.Wallet.ID, in.Reference, models.StatusSuccess)
		}
		t.Status = models.StatusSuccess
		t.Meta["providerRef"] = providerRef
		s.publish(ctx, in, models.StatusSuccess, in.Kind+" purchase successful")
		return &settlement{Txn: t, Result: final}, nil

	case epins.OutcomeFailed:
		st := &settlement{Txn: t, Result: final}
		// Claim the refunded flag before moving money: the conditional
		// update matches at most once, so a concurrent webhook cannot
		// credit the same amount twice.
		if reserved && s.Txns.MarkRefunded(ctx, t.ID, in.Amount) == nil {
			applied, err := s.Wallets.Refund(ctx, in.Wallet.ID, in.Amount, in.Reference)
			if err != nil {
				log.Printf("[%s] refund error for %s: %v", in.Kind, in.Reference, err)
			}
			if applied {
				st.Refunded = true
			}
			t.Refunded = true
			t.RefundedAmount = in.Amount
		}
		reason := final.Message
		if reason == "" {
			reason = "provider reported failure"
		}
		_ = s.Txns.SetStatus(ctx, t.ID, models.StatusFailed, models.Meta{
			"reason":           reason,
			"providerResponse": final.Raw,
		})
		t.Status = models.StatusFailed
		s.publish(ctx, in, models.StatusFailed, in.Kind+" purchase failed: "+reason)
		return st, nil

	default:
		// Funds stay held; the transaction record already says pending.
		_ = s.Txns.SetStatus(ctx, t.ID, models.StatusPending, models.Meta{
			"providerResponse": final.Raw,
		})
		s.publish(ctx, in, models.StatusPending, in.Kind+" purchase awaiting provider confirmation")
		return &settlement{Txn: t, Result: final, Pending: true}, nil
	}
}
