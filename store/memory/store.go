// Package memory is the in-memory store backend, used for tests and
// embedded single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coopcore/ledger"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// balancePoint is one step of a party's running balance chain.
type balancePoint struct {
	at      time.Time
	seq     int64
	balance types.Money
}

type Store struct {
	mu  sync.RWMutex
	seq int64 // insertion counter, breaks FIFO ties and orders the balance chain

	// Party storage
	parties map[string]*party.Party

	// Posting storage
	obligations map[string]*posting.Obligation
	oblSeq      map[string]int64
	payments    map[string]*posting.Payment
	allocations map[string][]*posting.Allocation // by payment ID
	balances    map[string][]balancePoint        // by party ID, append order

	// Loan storage
	loans       map[string]*loan.Account
	loanEntries map[string][]*loan.AmortizationEntry // by loan ID, sequence order
	penalties   map[string]*loan.Penalty
	penaltySeq  map[string]int64

	// Savings storage
	savingsAccts map[string]*savings.Account
	movements    map[string][]*savings.Movement // by account ID, append order
	deposits     map[string]*savings.TimeDeposit

	// Share storage
	shares map[string]*share.Account

	// Wallet storage
	wallets map[string]*wallet.Wallet

	// Sequence counters, keyed tenant:scope
	sequences map[string]int64
}

func New() *Store {
	return &Store{
		parties:      make(map[string]*party.Party),
		obligations:  make(map[string]*posting.Obligation),
		oblSeq:       make(map[string]int64),
		payments:     make(map[string]*posting.Payment),
		allocations:  make(map[string][]*posting.Allocation),
		balances:     make(map[string][]balancePoint),
		loans:        make(map[string]*loan.Account),
		loanEntries:  make(map[string][]*loan.AmortizationEntry),
		penalties:    make(map[string]*loan.Penalty),
		penaltySeq:   make(map[string]int64),
		savingsAccts: make(map[string]*savings.Account),
		movements:    make(map[string][]*savings.Movement),
		deposits:     make(map[string]*savings.TimeDeposit),
		shares:       make(map[string]*share.Account),
		wallets:      make(map[string]*wallet.Wallet),
		sequences:    make(map[string]int64),
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func window[T any](items []T, limit, offset int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Party Store implementation
func (s *Store) CreateParty(_ context.Context, p *party.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parties[p.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.parties[p.ID.String()] = p
	return nil
}

func (s *Store) GetParty(_ context.Context, partyID id.PartyID) (*party.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.parties[partyID.String()]; ok {
		return p, nil
	}
	return nil, ledger.ErrPartyNotFound
}

func (s *Store) ListParties(_ context.Context, tenantID string, opts party.ListOpts) ([]*party.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*party.Party, 0)
	for _, p := range s.parties {
		if p.TenantID == tenantID {
			if opts.Kind == "" || p.Kind == opts.Kind {
				result = append(result, p)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateParty(_ context.Context, p *party.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parties[p.ID.String()]; !exists {
		return ledger.ErrPartyNotFound
	}
	s.parties[p.ID.String()] = p
	return nil
}

// Posting Store implementation
func (s *Store) AppendObligation(_ context.Context, o *posting.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parties[o.PartyID.String()]
	if !ok {
		return ledger.ErrPartyNotFound
	}
	if _, exists := s.obligations[o.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}

	seq := s.nextSeq()
	s.obligations[o.ID.String()] = o
	s.oblSeq[o.ID.String()] = seq
	p.OutstandingTotal = p.OutstandingTotal.Add(o.Amount)
	s.balances[o.PartyID.String()] = append(s.balances[o.PartyID.String()], balancePoint{
		at:      o.CreatedAt,
		seq:     seq,
		balance: o.BalanceAfter,
	})
	return nil
}

func (s *Store) GetObligation(_ context.Context, oblID id.ObligationID) (*posting.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.obligations[oblID.String()]; ok {
		return o, nil
	}
	return nil, ledger.ErrObligationNotFound
}

// sortFIFO orders obligations due date ascending, insertion order on ties.
func (s *Store) sortFIFO(obls []*posting.Obligation) {
	sort.SliceStable(obls, func(i, j int) bool {
		if obls[i].DueDate.Equal(obls[j].DueDate) {
			return s.oblSeq[obls[i].ID.String()] < s.oblSeq[obls[j].ID.String()]
		}
		return obls[i].DueDate.Before(obls[j].DueDate)
	})
}

func (s *Store) ListOpenObligations(_ context.Context, partyID id.PartyID) ([]*posting.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Obligation, 0)
	for _, o := range s.obligations {
		if o.PartyID == partyID && o.IsOpen() {
			result = append(result, o)
		}
	}
	s.sortFIFO(result)
	return result, nil
}

func (s *Store) ListOpenObligationsByTenant(_ context.Context, tenantID string) ([]*posting.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Obligation, 0)
	for _, o := range s.obligations {
		if !o.IsOpen() {
			continue
		}
		if p, ok := s.parties[o.PartyID.String()]; ok && p.TenantID == tenantID {
			result = append(result, o)
		}
	}
	s.sortFIFO(result)
	return result, nil
}

func (s *Store) ListObligations(_ context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Obligation, 0)
	for _, o := range s.obligations {
		if o.PartyID != partyID {
			continue
		}
		if (opts.Start.IsZero() || !o.CreatedAt.Before(opts.Start)) &&
			(opts.End.IsZero() || o.CreatedAt.Before(opts.End)) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.oblSeq[result[i].ID.String()] < s.oblSeq[result[j].ID.String()]
	})
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ReverseObligation(_ context.Context, oblID id.ObligationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.obligations[oblID.String()]
	if !ok {
		return ledger.ErrObligationNotFound
	}
	p, ok := s.parties[o.PartyID.String()]
	if !ok {
		return ledger.ErrPartyNotFound
	}

	o.Reversed = true
	o.ReversedAt = &at
	o.Touch()
	p.OutstandingTotal = p.OutstandingTotal.Subtract(o.Amount)
	return nil
}

func (s *Store) RecordPayment(_ context.Context, pay *posting.Payment, allocs []*posting.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parties[pay.PartyID.String()]
	if !ok {
		return ledger.ErrPartyNotFound
	}
	if _, exists := s.payments[pay.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	for _, a := range allocs {
		if _, ok := s.obligations[a.ObligationID.String()]; !ok {
			return ledger.ErrObligationNotFound
		}
	}

	s.payments[pay.ID.String()] = pay
	s.allocations[pay.ID.String()] = allocs
	for _, a := range allocs {
		o := s.obligations[a.ObligationID.String()]
		o.AllocatedTotal = o.AllocatedTotal.Add(a.Amount)
		if !o.AllocatedTotal.LessThan(o.Amount) {
			paid := pay.Date
			o.PaidDate = &paid
		}
		o.Touch()
	}
	p.OutstandingTotal = p.OutstandingTotal.Subtract(pay.Amount.Abs())
	s.balances[pay.PartyID.String()] = append(s.balances[pay.PartyID.String()], balancePoint{
		at:      pay.Date,
		seq:     s.nextSeq(),
		balance: pay.BalanceAfter,
	})
	return nil
}

func (s *Store) GetPayment(_ context.Context, payID id.PaymentID) (*posting.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pay, ok := s.payments[payID.String()]; ok {
		return pay, nil
	}
	return nil, ledger.ErrPaymentNotFound
}

func (s *Store) ListPayments(_ context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Payment, 0)
	for _, pay := range s.payments {
		if pay.PartyID != partyID {
			continue
		}
		if (opts.Start.IsZero() || !pay.Date.Before(opts.Start)) &&
			(opts.End.IsZero() || pay.Date.Before(opts.End)) {
			result = append(result, pay)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ListAllocations(_ context.Context, payID id.PaymentID) ([]*posting.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.payments[payID.String()]; !ok {
		return nil, ledger.ErrPaymentNotFound
	}
	return s.allocations[payID.String()], nil
}

func (s *Store) LatestBalanceBefore(_ context.Context, partyID id.PartyID, before time.Time) (types.Money, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.balances[partyID.String()]
	best := -1
	for i, pt := range points {
		if !pt.at.Before(before) {
			continue
		}
		if best < 0 || pt.at.After(points[best].at) ||
			(pt.at.Equal(points[best].at) && pt.seq > points[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return types.Money{}, false, nil
	}
	return points[best].balance, true, nil
}

// Loan Store implementation
func (s *Store) CreateLoan(_ context.Context, acct *loan.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[acct.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.loans[acct.ID.String()] = acct
	return nil
}

func (s *Store) GetLoan(_ context.Context, loanID id.LoanID) (*loan.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.loans[loanID.String()]; ok {
		return acct, nil
	}
	return nil, ledger.ErrLoanNotFound
}

func (s *Store) ListLoans(_ context.Context, opts loan.ListOpts) ([]*loan.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*loan.Account, 0)
	for _, acct := range s.loans {
		if !opts.PartyID.IsNil() && acct.PartyID != opts.PartyID {
			continue
		}
		if opts.TenantID != "" && acct.TenantID != opts.TenantID {
			continue
		}
		if opts.Status != "" && acct.Status != opts.Status {
			continue
		}
		result = append(result, acct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateLoan(_ context.Context, acct *loan.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[acct.ID.String()]; !exists {
		return ledger.ErrLoanNotFound
	}
	s.loans[acct.ID.String()] = acct
	return nil
}

func (s *Store) DisburseLoan(_ context.Context, acct *loan.Account, entries []*loan.AmortizationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[acct.ID.String()]; !exists {
		return ledger.ErrLoanNotFound
	}
	s.loans[acct.ID.String()] = acct
	s.loanEntries[acct.ID.String()] = entries
	return nil
}

func (s *Store) ListLoanEntries(_ context.Context, loanID id.LoanID) ([]*loan.AmortizationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.loans[loanID.String()]; !ok {
		return nil, ledger.ErrLoanNotFound
	}
	return s.loanEntries[loanID.String()], nil
}

func (s *Store) AddPenalty(_ context.Context, acct *loan.Account, pen *loan.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[acct.ID.String()]; !exists {
		return ledger.ErrLoanNotFound
	}
	s.loans[acct.ID.String()] = acct
	s.penalties[pen.ID.String()] = pen
	s.penaltySeq[pen.ID.String()] = s.nextSeq()
	return nil
}

func (s *Store) GetPenalty(_ context.Context, penID id.PenaltyID) (*loan.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pen, ok := s.penalties[penID.String()]; ok {
		return pen, nil
	}
	return nil, ledger.ErrPenaltyNotFound
}

func (s *Store) ListPenalties(_ context.Context, loanID id.LoanID) ([]*loan.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*loan.Penalty, 0)
	for _, pen := range s.penalties {
		if pen.LoanID == loanID {
			result = append(result, pen)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.penaltySeq[result[i].ID.String()] < s.penaltySeq[result[j].ID.String()]
	})
	return result, nil
}

func (s *Store) SaveWaiver(_ context.Context, acct *loan.Account, pen *loan.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.penalties[pen.ID.String()]; !exists {
		return ledger.ErrPenaltyNotFound
	}
	s.loans[acct.ID.String()] = acct
	s.penalties[pen.ID.String()] = pen
	return nil
}

func (s *Store) SaveLoanPayment(_ context.Context, acct *loan.Account, entries []*loan.AmortizationEntry, penalties []*loan.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[acct.ID.String()]; !exists {
		return ledger.ErrLoanNotFound
	}
	s.loans[acct.ID.String()] = acct
	if entries != nil {
		s.loanEntries[acct.ID.String()] = entries
	}
	for _, pen := range penalties {
		s.penalties[pen.ID.String()] = pen
	}
	return nil
}

// Savings Store implementation
func (s *Store) CreateSavings(_ context.Context, acct *savings.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.savingsAccts[acct.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.savingsAccts[acct.ID.String()] = acct
	return nil
}

func (s *Store) GetSavings(_ context.Context, savID id.SavingsID) (*savings.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.savingsAccts[savID.String()]; ok {
		return acct, nil
	}
	return nil, ledger.ErrSavingsNotFound
}

func (s *Store) ListSavings(_ context.Context, opts savings.ListOpts) ([]*savings.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*savings.Account, 0)
	for _, acct := range s.savingsAccts {
		if !opts.PartyID.IsNil() && acct.PartyID != opts.PartyID {
			continue
		}
		if opts.TenantID != "" && acct.TenantID != opts.TenantID {
			continue
		}
		result = append(result, acct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateSavings(_ context.Context, acct *savings.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.savingsAccts[acct.ID.String()]; !exists {
		return ledger.ErrSavingsNotFound
	}
	s.savingsAccts[acct.ID.String()] = acct
	return nil
}

func (s *Store) RecordMovement(_ context.Context, acct *savings.Account, mov *savings.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.savingsAccts[acct.ID.String()]; !exists {
		return ledger.ErrSavingsNotFound
	}
	s.savingsAccts[acct.ID.String()] = acct
	s.movements[acct.ID.String()] = append(s.movements[acct.ID.String()], mov)
	return nil
}

func (s *Store) ListMovements(_ context.Context, savID id.SavingsID, opts savings.ListOpts) ([]*savings.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.savingsAccts[savID.String()]; !ok {
		return nil, ledger.ErrSavingsNotFound
	}

	all := s.movements[savID.String()]
	result := make([]*savings.Movement, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- { // newest first
		result = append(result, all[i])
	}
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) CreateTimeDeposit(_ context.Context, dep *savings.TimeDeposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deposits[dep.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.deposits[dep.ID.String()] = dep
	return nil
}

func (s *Store) GetTimeDeposit(_ context.Context, depID id.TimeDepositID) (*savings.TimeDeposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if dep, ok := s.deposits[depID.String()]; ok {
		return dep, nil
	}
	return nil, ledger.ErrDepositNotFound
}

func (s *Store) ListTimeDeposits(_ context.Context, opts savings.ListOpts) ([]*savings.TimeDeposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*savings.TimeDeposit, 0)
	for _, dep := range s.deposits {
		if !opts.PartyID.IsNil() && dep.PartyID != opts.PartyID {
			continue
		}
		if opts.TenantID != "" && dep.TenantID != opts.TenantID {
			continue
		}
		result = append(result, dep)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) SettleTimeDeposit(_ context.Context, dep *savings.TimeDeposit, acct *savings.Account, mov *savings.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deposits[dep.ID.String()]; !exists {
		return ledger.ErrDepositNotFound
	}
	if _, exists := s.savingsAccts[acct.ID.String()]; !exists {
		return ledger.ErrSavingsNotFound
	}
	s.deposits[dep.ID.String()] = dep
	s.savingsAccts[acct.ID.String()] = acct
	s.movements[acct.ID.String()] = append(s.movements[acct.ID.String()], mov)
	return nil
}

// Share Store implementation
func (s *Store) CreateShare(_ context.Context, acct *share.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shares[acct.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.shares[acct.ID.String()] = acct
	return nil
}

func (s *Store) GetShare(_ context.Context, shareID id.ShareID) (*share.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.shares[shareID.String()]; ok {
		return acct, nil
	}
	return nil, ledger.ErrShareNotFound
}

func (s *Store) ListShares(_ context.Context, opts share.ListOpts) ([]*share.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*share.Account, 0)
	for _, acct := range s.shares {
		if !opts.PartyID.IsNil() && acct.PartyID != opts.PartyID {
			continue
		}
		if opts.TenantID != "" && acct.TenantID != opts.TenantID {
			continue
		}
		result = append(result, acct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateShare(_ context.Context, acct *share.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shares[acct.ID.String()]; !exists {
		return ledger.ErrShareNotFound
	}
	s.shares[acct.ID.String()] = acct
	return nil
}

// Wallet Store implementation
func (s *Store) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	s.wallets[w.ID.String()] = w
	return nil
}

func (s *Store) GetWallet(_ context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[walletID.String()]; ok {
		return w, nil
	}
	return nil, ledger.ErrWalletNotFound
}

func (s *Store) ListWallets(_ context.Context, opts wallet.ListOpts) ([]*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*wallet.Wallet, 0)
	for _, w := range s.wallets {
		if !opts.PartyID.IsNil() && w.PartyID != opts.PartyID {
			continue
		}
		if opts.TenantID != "" && w.TenantID != opts.TenantID {
			continue
		}
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return window(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID.String()]; !exists {
		return ledger.ErrWalletNotFound
	}
	s.wallets[w.ID.String()] = w
	return nil
}

// Sequence Store implementation
func (s *Store) NextSequence(_ context.Context, tenantID, scope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantID + ":" + scope
	s.sequences[key]++
	return s.sequences[key], nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
