package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onObligationPosted    []OnObligationPosted
	onObligationReversed  []OnObligationReversed
	onPaymentRecorded     []OnPaymentRecorded
	onCreditLimitBreached []OnCreditLimitBreached
	onLoanApproved        []OnLoanApproved
	onLoanDisbursed       []OnLoanDisbursed
	onLoanPaymentApplied  []OnLoanPaymentApplied
	onLoanClosed          []OnLoanClosed
	onPenaltyWaived       []OnPenaltyWaived
	onSavingsMovement     []OnSavingsMovement
	onTimeDepositPlaced   []OnTimeDepositPlaced
	onTimeDepositSettled  []OnTimeDepositSettled
	onAgingReportBuilt    []OnAgingReportBuilt
	allocationStrategies  map[string]AllocationStrategy
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:               slog.Default(),
		allocationStrategies: make(map[string]AllocationStrategy),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnObligationPosted); ok {
		r.onObligationPosted = append(r.onObligationPosted, v)
	}
	if v, ok := p.(OnObligationReversed); ok {
		r.onObligationReversed = append(r.onObligationReversed, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnCreditLimitBreached); ok {
		r.onCreditLimitBreached = append(r.onCreditLimitBreached, v)
	}
	if v, ok := p.(OnLoanApproved); ok {
		r.onLoanApproved = append(r.onLoanApproved, v)
	}
	if v, ok := p.(OnLoanDisbursed); ok {
		r.onLoanDisbursed = append(r.onLoanDisbursed, v)
	}
	if v, ok := p.(OnLoanPaymentApplied); ok {
		r.onLoanPaymentApplied = append(r.onLoanPaymentApplied, v)
	}
	if v, ok := p.(OnLoanClosed); ok {
		r.onLoanClosed = append(r.onLoanClosed, v)
	}
	if v, ok := p.(OnPenaltyWaived); ok {
		r.onPenaltyWaived = append(r.onPenaltyWaived, v)
	}
	if v, ok := p.(OnSavingsMovement); ok {
		r.onSavingsMovement = append(r.onSavingsMovement, v)
	}
	if v, ok := p.(OnTimeDepositPlaced); ok {
		r.onTimeDepositPlaced = append(r.onTimeDepositPlaced, v)
	}
	if v, ok := p.(OnTimeDepositSettled); ok {
		r.onTimeDepositSettled = append(r.onTimeDepositSettled, v)
	}
	if v, ok := p.(OnAgingReportBuilt); ok {
		r.onAgingReportBuilt = append(r.onAgingReportBuilt, v)
	}
	if v, ok := p.(AllocationStrategy); ok {
		r.allocationStrategies[v.StrategyName()] = v
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GetAllocationStrategy returns an allocation strategy by name.
func (r *Registry) GetAllocationStrategy(name string) AllocationStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocationStrategies[name]
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitObligationPosted emits an obligation posted event.
func (r *Registry) EmitObligationPosted(ctx context.Context, obl interface{}) {
	r.mu.RLock()
	plugins := r.onObligationPosted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnObligationPosted(ctx, obl)
		}); err != nil {
			r.logger.Warn("plugin OnObligationPosted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitObligationReversed emits an obligation reversed event.
func (r *Registry) EmitObligationReversed(ctx context.Context, obl interface{}, reason string) {
	r.mu.RLock()
	plugins := r.onObligationReversed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnObligationReversed(ctx, obl, reason)
		}); err != nil {
			r.logger.Warn("plugin OnObligationReversed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, pay interface{}, allocated, leftover int64) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRecorded(ctx, pay, allocated, leftover)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRecorded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditLimitBreached emits a credit limit breached event.
func (r *Registry) EmitCreditLimitBreached(ctx context.Context, partyID string, outstanding, limit, requested int64) {
	r.mu.RLock()
	plugins := r.onCreditLimitBreached
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditLimitBreached(ctx, partyID, outstanding, limit, requested)
		}); err != nil {
			r.logger.Warn("plugin OnCreditLimitBreached failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLoanApproved emits a loan approved event.
func (r *Registry) EmitLoanApproved(ctx context.Context, acct interface{}) {
	r.mu.RLock()
	plugins := r.onLoanApproved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLoanApproved(ctx, acct)
		}); err != nil {
			r.logger.Warn("plugin OnLoanApproved failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLoanDisbursed emits a loan disbursed event.
func (r *Registry) EmitLoanDisbursed(ctx context.Context, acct interface{}, installments int) {
	r.mu.RLock()
	plugins := r.onLoanDisbursed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLoanDisbursed(ctx, acct, installments)
		}); err != nil {
			r.logger.Warn("plugin OnLoanDisbursed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLoanPaymentApplied emits a loan payment applied event.
func (r *Registry) EmitLoanPaymentApplied(ctx context.Context, acct interface{}, split interface{}) {
	r.mu.RLock()
	plugins := r.onLoanPaymentApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLoanPaymentApplied(ctx, acct, split)
		}); err != nil {
			r.logger.Warn("plugin OnLoanPaymentApplied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLoanClosed emits a loan closed event.
func (r *Registry) EmitLoanClosed(ctx context.Context, acct interface{}) {
	r.mu.RLock()
	plugins := r.onLoanClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLoanClosed(ctx, acct)
		}); err != nil {
			r.logger.Warn("plugin OnLoanClosed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPenaltyWaived emits a penalty waived event.
func (r *Registry) EmitPenaltyWaived(ctx context.Context, pen interface{}, waived int64, reason string) {
	r.mu.RLock()
	plugins := r.onPenaltyWaived
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPenaltyWaived(ctx, pen, waived, reason)
		}); err != nil {
			r.logger.Warn("plugin OnPenaltyWaived failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitSavingsMovement emits a savings movement event.
func (r *Registry) EmitSavingsMovement(ctx context.Context, mov interface{}) {
	r.mu.RLock()
	plugins := r.onSavingsMovement
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSavingsMovement(ctx, mov)
		}); err != nil {
			r.logger.Warn("plugin OnSavingsMovement failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTimeDepositPlaced emits a time deposit placed event.
func (r *Registry) EmitTimeDepositPlaced(ctx context.Context, dep interface{}) {
	r.mu.RLock()
	plugins := r.onTimeDepositPlaced
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTimeDepositPlaced(ctx, dep)
		}); err != nil {
			r.logger.Warn("plugin OnTimeDepositPlaced failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTimeDepositSettled emits a time deposit settled event.
func (r *Registry) EmitTimeDepositSettled(ctx context.Context, dep interface{}, preTerminated bool) {
	r.mu.RLock()
	plugins := r.onTimeDepositSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTimeDepositSettled(ctx, dep, preTerminated)
		}); err != nil {
			r.logger.Warn("plugin OnTimeDepositSettled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitAgingReportBuilt emits an aging report built event.
func (r *Registry) EmitAgingReportBuilt(ctx context.Context, report interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onAgingReportBuilt
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAgingReportBuilt(ctx, report, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnAgingReportBuilt failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the posting pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
