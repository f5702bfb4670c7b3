package entities

// FinancialStatus is a point-in-time snapshot of the capital position
// backing open inventory.
type FinancialStatus struct {
	BaseRate         float64
	WorkingCapital   float64
	PendingPayouts   float64
	AvailableBalance float64
	TargetVideoValue float64
}

// NewFinancialStatus derives the spendable balance and the target inventory
// value from raw capital figures. AvailableBalance goes negative when
// pending payouts exceed working capital; the balancer must add nothing in
// that state.
func NewFinancialStatus(baseRate, workingCapital, pendingPayouts, targetRatio float64) FinancialStatus {
	available := workingCapital - pendingPayouts
	return FinancialStatus{
		BaseRate:         baseRate,
		WorkingCapital:   workingCapital,
		PendingPayouts:   pendingPayouts,
		AvailableBalance: available,
		TargetVideoValue: available * targetRatio,
	}
}
