package workflow

// Effect is a backend side effect that follows a transition. The gateway only
// announces them; the backend performs them and the refetch reflects the result.
type Effect string

const (
	EffectCarrierNotification Effect = "carrier_notification"
	EffectPaymentRecorded     Effect = "payment_recorded"
	EffectInventoryRelease    Effect = "inventory_release"
)

func SideEffects(action Action) []Effect {
	switch action {
	case ActionShip:
		return []Effect{EffectCarrierNotification}
	case ActionPay:
		return []Effect{EffectPaymentRecorded}
	case ActionCancel:
		return []Effect{EffectInventoryRelease}
	}
	return nil
}
