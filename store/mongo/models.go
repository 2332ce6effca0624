package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// ==================== Party models ====================

type partyModel struct {
	ID               string            `bson:"_id"`
	TenantID         string            `bson:"tenant_id"`
	Kind             string            `bson:"kind"`
	Name             string            `bson:"name"`
	Currency         string            `bson:"currency"`
	OutstandingTotal int64             `bson:"outstanding_total"`
	CreditLimit      int64             `bson:"credit_limit"`
	Metadata         map[string]string `bson:"metadata,omitempty"`
	CreatedAt        time.Time         `bson:"created_at"`
	UpdatedAt        time.Time         `bson:"updated_at"`
}

func toPartyModel(p *party.Party) *partyModel {
	return &partyModel{
		ID:               p.ID.String(),
		TenantID:         p.TenantID,
		Kind:             string(p.Kind),
		Name:             p.Name,
		Currency:         p.OutstandingTotal.Currency,
		OutstandingTotal: p.OutstandingTotal.Amount,
		CreditLimit:      p.CreditLimit.Amount,
		Metadata:         p.Metadata,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func fromPartyModel(m *partyModel) (*party.Party, error) {
	pid, err := id.ParsePartyID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: party id: %w", err)
	}
	return &party.Party{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               pid,
		TenantID:         m.TenantID,
		Kind:             party.Kind(m.Kind),
		Name:             m.Name,
		OutstandingTotal: types.Money{Amount: m.OutstandingTotal, Currency: m.Currency},
		CreditLimit:      types.Money{Amount: m.CreditLimit, Currency: m.Currency},
		Metadata:         m.Metadata,
	}, nil
}

// ==================== Posting models ====================

type obligationModel struct {
	ID             string     `bson:"_id"`
	PartyID        string     `bson:"party_id"`
	Currency       string     `bson:"currency"`
	Amount         int64      `bson:"amount"`
	AllocatedTotal int64      `bson:"allocated_total"`
	BalanceAfter   int64      `bson:"balance_after"`
	DueDate        time.Time  `bson:"due_date"`
	PaidDate       *time.Time `bson:"paid_date,omitempty"`
	Reversed       bool       `bson:"reversed"`
	ReversedAt     *time.Time `bson:"reversed_at,omitempty"`
	OriginKind     string     `bson:"origin_kind"`
	OriginRef      string     `bson:"origin_ref,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toObligationModel(o *posting.Obligation) *obligationModel {
	return &obligationModel{
		ID:             o.ID.String(),
		PartyID:        o.PartyID.String(),
		Currency:       o.Amount.Currency,
		Amount:         o.Amount.Amount,
		AllocatedTotal: o.AllocatedTotal.Amount,
		BalanceAfter:   o.BalanceAfter.Amount,
		DueDate:        o.DueDate,
		PaidDate:       o.PaidDate,
		Reversed:       o.Reversed,
		ReversedAt:     o.ReversedAt,
		OriginKind:     string(o.Origin.Kind),
		OriginRef:      o.Origin.Reference,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func fromObligationModel(m *obligationModel) (*posting.Obligation, error) {
	oid, err := id.ParseObligationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: obligation id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: obligation party id: %w", err)
	}
	return &posting.Obligation{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             oid,
		PartyID:        pid,
		Amount:         types.Money{Amount: m.Amount, Currency: m.Currency},
		AllocatedTotal: types.Money{Amount: m.AllocatedTotal, Currency: m.Currency},
		BalanceAfter:   types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		DueDate:        m.DueDate,
		PaidDate:       m.PaidDate,
		Reversed:       m.Reversed,
		ReversedAt:     m.ReversedAt,
		Origin: posting.Origin{
			Kind:      posting.OriginKind(m.OriginKind),
			Reference: m.OriginRef,
		},
	}, nil
}

type paymentModel struct {
	ID           string    `bson:"_id"`
	PartyID      string    `bson:"party_id"`
	Currency     string    `bson:"currency"`
	Amount       int64     `bson:"amount"`
	BalanceAfter int64     `bson:"balance_after"`
	Method       string    `bson:"method"`
	Reference    string    `bson:"reference,omitempty"`
	Date         time.Time `bson:"date"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toPaymentModel(p *posting.Payment) *paymentModel {
	return &paymentModel{
		ID:           p.ID.String(),
		PartyID:      p.PartyID.String(),
		Currency:     p.Amount.Currency,
		Amount:       p.Amount.Amount,
		BalanceAfter: p.BalanceAfter.Amount,
		Method:       string(p.Method),
		Reference:    p.Reference,
		Date:         p.Date,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*posting.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: payment id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: payment party id: %w", err)
	}
	return &posting.Payment{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           payID,
		PartyID:      pid,
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
		BalanceAfter: types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		Method:       posting.Method(m.Method),
		Reference:    m.Reference,
		Date:         m.Date,
	}, nil
}

type allocationModel struct {
	ID           string    `bson:"_id"`
	PaymentID    string    `bson:"payment_id"`
	ObligationID string    `bson:"obligation_id"`
	Currency     string    `bson:"currency"`
	Amount       int64     `bson:"amount"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toAllocationModel(a *posting.Allocation) *allocationModel {
	return &allocationModel{
		ID:           a.ID.String(),
		PaymentID:    a.PaymentID.String(),
		ObligationID: a.ObligationID.String(),
		Currency:     a.Amount.Currency,
		Amount:       a.Amount.Amount,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromAllocationModel(m *allocationModel) (*posting.Allocation, error) {
	aid, err := id.ParseWithPrefix(m.ID, id.PrefixAllocation)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: allocation id: %w", err)
	}
	payID, err := id.ParsePaymentID(m.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: allocation payment id: %w", err)
	}
	oblID, err := id.ParseObligationID(m.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: allocation obligation id: %w", err)
	}
	return &posting.Allocation{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           aid,
		PaymentID:    payID,
		ObligationID: oblID,
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
	}, nil
}

type balancePointModel struct {
	PartyID  string    `bson:"party_id"`
	Currency string    `bson:"currency"`
	Balance  int64     `bson:"balance"`
	At       time.Time `bson:"at"`
}

// ==================== Loan models ====================

type loanModel struct {
	ID                   string     `bson:"_id"`
	PartyID              string     `bson:"party_id"`
	TenantID             string     `bson:"tenant_id"`
	Status               string     `bson:"status"`
	Currency             string     `bson:"currency"`
	Principal            int64      `bson:"principal"`
	MonthlyRate          string     `bson:"monthly_rate"`
	TermMonths           int        `bson:"term_months"`
	Interval             string     `bson:"payment_interval"`
	FirstPaymentDate     time.Time  `bson:"first_payment_date"`
	ApprovedAt           *time.Time `bson:"approved_at,omitempty"`
	RejectedAt           *time.Time `bson:"rejected_at,omitempty"`
	DisbursedAt          *time.Time `bson:"disbursed_at,omitempty"`
	ClosedAt             *time.Time `bson:"closed_at,omitempty"`
	OutstandingBalance   int64      `bson:"outstanding_balance"`
	PenaltiesOutstanding int64      `bson:"penalties_outstanding"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

func toLoanModel(acct *loan.Account) *loanModel {
	return &loanModel{
		ID:                   acct.ID.String(),
		PartyID:              acct.PartyID.String(),
		TenantID:             acct.TenantID,
		Status:               string(acct.Status),
		Currency:             acct.Terms.Principal.Currency,
		Principal:            acct.Terms.Principal.Amount,
		MonthlyRate:          acct.Terms.MonthlyRate.String(),
		TermMonths:           acct.Terms.TermMonths,
		Interval:             string(acct.Terms.Interval),
		FirstPaymentDate:     acct.Terms.FirstPaymentDate,
		ApprovedAt:           acct.ApprovedAt,
		RejectedAt:           acct.RejectedAt,
		DisbursedAt:          acct.DisbursedAt,
		ClosedAt:             acct.ClosedAt,
		OutstandingBalance:   acct.OutstandingBalance.Amount,
		PenaltiesOutstanding: acct.PenaltiesOutstanding.Amount,
		CreatedAt:            acct.CreatedAt,
		UpdatedAt:            acct.UpdatedAt,
	}
}

func fromLoanModel(m *loanModel) (*loan.Account, error) {
	lid, err := id.ParseLoanID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: loan id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: loan party id: %w", err)
	}
	rate, err := decimal.NewFromString(m.MonthlyRate)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: loan rate %q: %w", m.MonthlyRate, err)
	}
	return &loan.Account{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       lid,
		PartyID:  pid,
		TenantID: m.TenantID,
		Status:   loan.Status(m.Status),
		Terms: schedule.Terms{
			Principal:        types.Money{Amount: m.Principal, Currency: m.Currency},
			MonthlyRate:      rate,
			TermMonths:       m.TermMonths,
			Interval:         schedule.Interval(m.Interval),
			FirstPaymentDate: m.FirstPaymentDate,
		},
		ApprovedAt:           m.ApprovedAt,
		RejectedAt:           m.RejectedAt,
		DisbursedAt:          m.DisbursedAt,
		ClosedAt:             m.ClosedAt,
		OutstandingBalance:   types.Money{Amount: m.OutstandingBalance, Currency: m.Currency},
		PenaltiesOutstanding: types.Money{Amount: m.PenaltiesOutstanding, Currency: m.Currency},
	}, nil
}

type loanEntryModel struct {
	ID            string    `bson:"_id"`
	LoanID        string    `bson:"loan_id"`
	Sequence      int       `bson:"seq"`
	Currency      string    `bson:"currency"`
	DueDate       time.Time `bson:"due_date"`
	Interest      int64     `bson:"interest"`
	Principal     int64     `bson:"principal"`
	BalanceAfter  int64     `bson:"balance_after"`
	InterestPaid  int64     `bson:"interest_paid"`
	PrincipalPaid int64     `bson:"principal_paid"`
	Paid          bool      `bson:"paid"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toLoanEntryModel(e *loan.AmortizationEntry) *loanEntryModel {
	return &loanEntryModel{
		ID:            e.ID.String(),
		LoanID:        e.LoanID.String(),
		Sequence:      e.Sequence,
		Currency:      e.Interest.Currency,
		DueDate:       e.DueDate,
		Interest:      e.Interest.Amount,
		Principal:     e.Principal.Amount,
		BalanceAfter:  e.BalanceAfter.Amount,
		InterestPaid:  e.InterestPaid.Amount,
		PrincipalPaid: e.PrincipalPaid.Amount,
		Paid:          e.Paid,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func fromLoanEntryModel(m *loanEntryModel) (*loan.AmortizationEntry, error) {
	eid, err := id.ParseWithPrefix(m.ID, id.PrefixEntry)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: entry id: %w", err)
	}
	lid, err := id.ParseLoanID(m.LoanID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: entry loan id: %w", err)
	}
	return &loan.AmortizationEntry{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            eid,
		LoanID:        lid,
		Sequence:      m.Sequence,
		DueDate:       m.DueDate,
		Interest:      types.Money{Amount: m.Interest, Currency: m.Currency},
		Principal:     types.Money{Amount: m.Principal, Currency: m.Currency},
		BalanceAfter:  types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		InterestPaid:  types.Money{Amount: m.InterestPaid, Currency: m.Currency},
		PrincipalPaid: types.Money{Amount: m.PrincipalPaid, Currency: m.Currency},
		Paid:          m.Paid,
	}, nil
}

type penaltyModel struct {
	ID          string    `bson:"_id"`
	LoanID      string    `bson:"loan_id"`
	EntryID     string    `bson:"entry_id"`
	Currency    string    `bson:"currency"`
	NetPenalty  int64     `bson:"net_penalty"`
	Waived      int64     `bson:"waived"`
	PaidAmount  int64     `bson:"paid_amount"`
	Paid        bool      `bson:"is_paid"`
	Reason      string    `bson:"reason,omitempty"`
	WaiveReason string    `bson:"waive_reason,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toPenaltyModel(p *loan.Penalty) *penaltyModel {
	return &penaltyModel{
		ID:          p.ID.String(),
		LoanID:      p.LoanID.String(),
		EntryID:     p.EntryID.String(),
		Currency:    p.NetPenalty.Currency,
		NetPenalty:  p.NetPenalty.Amount,
		Waived:      p.Waived.Amount,
		PaidAmount:  p.PaidAmount.Amount,
		Paid:        p.Paid,
		Reason:      p.Reason,
		WaiveReason: p.WaiveReason,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPenaltyModel(m *penaltyModel) (*loan.Penalty, error) {
	penID, err := id.ParsePenaltyID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: penalty id: %w", err)
	}
	lid, err := id.ParseLoanID(m.LoanID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: penalty loan id: %w", err)
	}
	eid, err := id.ParseWithPrefix(m.EntryID, id.PrefixEntry)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: penalty entry id: %w", err)
	}
	return &loan.Penalty{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          penID,
		LoanID:      lid,
		EntryID:     eid,
		NetPenalty:  types.Money{Amount: m.NetPenalty, Currency: m.Currency},
		Waived:      types.Money{Amount: m.Waived, Currency: m.Currency},
		PaidAmount:  types.Money{Amount: m.PaidAmount, Currency: m.Currency},
		Paid:        m.Paid,
		Reason:      m.Reason,
		WaiveReason: m.WaiveReason,
	}, nil
}

// ==================== Savings models ====================

type savingsModel struct {
	ID             string    `bson:"_id"`
	PartyID        string    `bson:"party_id"`
	TenantID       string    `bson:"tenant_id"`
	Status         string    `bson:"status"`
	Currency       string    `bson:"currency"`
	Balance        int64     `bson:"balance"`
	MinimumBalance int64     `bson:"minimum_balance"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toSavingsModel(a *savings.Account) *savingsModel {
	return &savingsModel{
		ID:             a.ID.String(),
		PartyID:        a.PartyID.String(),
		TenantID:       a.TenantID,
		Status:         string(a.Status),
		Currency:       a.Balance.Currency,
		Balance:        a.Balance.Amount,
		MinimumBalance: a.MinimumBalance.Amount,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func fromSavingsModel(m *savingsModel) (*savings.Account, error) {
	sid, err := id.ParseWithPrefix(m.ID, id.PrefixSavings)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: savings id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: savings party id: %w", err)
	}
	return &savings.Account{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             sid,
		PartyID:        pid,
		TenantID:       m.TenantID,
		Status:         savings.AccountStatus(m.Status),
		Balance:        types.Money{Amount: m.Balance, Currency: m.Currency},
		MinimumBalance: types.Money{Amount: m.MinimumBalance, Currency: m.Currency},
	}, nil
}

type movementModel struct {
	ID           string    `bson:"_id"`
	AccountID    string    `bson:"account_id"`
	Kind         string    `bson:"kind"`
	Currency     string    `bson:"currency"`
	Amount       int64     `bson:"amount"`
	BalanceAfter int64     `bson:"balance_after"`
	Reference    string    `bson:"reference,omitempty"`
	Date         time.Time `bson:"date"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toMovementModel(mov *savings.Movement) *movementModel {
	return &movementModel{
		ID:           mov.ID.String(),
		AccountID:    mov.AccountID.String(),
		Kind:         string(mov.Kind),
		Currency:     mov.Amount.Currency,
		Amount:       mov.Amount.Amount,
		BalanceAfter: mov.BalanceAfter.Amount,
		Reference:    mov.Reference,
		Date:         mov.Date,
		CreatedAt:    mov.CreatedAt,
		UpdatedAt:    mov.UpdatedAt,
	}
}

func fromMovementModel(m *movementModel) (*savings.Movement, error) {
	mid, err := id.ParseWithPrefix(m.ID, id.PrefixMovement)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: movement id: %w", err)
	}
	aid, err := id.ParseWithPrefix(m.AccountID, id.PrefixSavings)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: movement account id: %w", err)
	}
	return &savings.Movement{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           mid,
		AccountID:    aid,
		Kind:         savings.MovementKind(m.Kind),
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
		BalanceAfter: types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		Reference:    m.Reference,
		Date:         m.Date,
	}, nil
}

type timeDepositModel struct {
	ID             string     `bson:"_id"`
	AccountID      string     `bson:"account_id"`
	PartyID        string     `bson:"party_id"`
	TenantID       string     `bson:"tenant_id"`
	Status         string     `bson:"status"`
	Currency       string     `bson:"currency"`
	Principal      int64      `bson:"principal"`
	AnnualRate     string     `bson:"annual_rate"`
	TermMonths     int        `bson:"term_months"`
	PlacementDate  time.Time  `bson:"placement_date"`
	InterestMethod string     `bson:"interest_method"`
	PaymentFreq    string     `bson:"payment_frequency,omitempty"`
	PenaltyRate    string     `bson:"penalty_rate"`
	ClosedAt       *time.Time `bson:"closed_at,omitempty"`
	Payout         int64      `bson:"payout"`
	InterestEarned int64      `bson:"interest_earned"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toTimeDepositModel(d *savings.TimeDeposit) *timeDepositModel {
	return &timeDepositModel{
		ID:             d.ID.String(),
		AccountID:      d.AccountID.String(),
		PartyID:        d.PartyID.String(),
		TenantID:       d.TenantID,
		Status:         string(d.Status),
		Currency:       d.Terms.Principal.Currency,
		Principal:      d.Terms.Principal.Amount,
		AnnualRate:     d.Terms.AnnualRate.String(),
		TermMonths:     d.Terms.TermMonths,
		PlacementDate:  d.Terms.PlacementDate,
		InterestMethod: string(d.Terms.Method),
		PaymentFreq:    string(d.Terms.PaymentFrequency),
		PenaltyRate:    d.Terms.EarlyWithdrawalPenaltyRate.String(),
		ClosedAt:       d.ClosedAt,
		Payout:         d.Payout.Amount,
		InterestEarned: d.InterestEarned.Amount,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func fromTimeDepositModel(m *timeDepositModel) (*savings.TimeDeposit, error) {
	did, err := id.ParseWithPrefix(m.ID, id.PrefixTimeDeposit)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: time deposit id: %w", err)
	}
	aid, err := id.ParseWithPrefix(m.AccountID, id.PrefixSavings)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: time deposit account id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: time deposit party id: %w", err)
	}
	rate, err := decimal.NewFromString(m.AnnualRate)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: time deposit rate %q: %w", m.AnnualRate, err)
	}
	penRate, err := decimal.NewFromString(m.PenaltyRate)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: time deposit penalty rate %q: %w", m.PenaltyRate, err)
	}
	return &savings.TimeDeposit{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        did,
		AccountID: aid,
		PartyID:   pid,
		TenantID:  m.TenantID,
		Status:    savings.DepositStatus(m.Status),
		Terms: schedule.DepositTerms{
			Principal:                  types.Money{Amount: m.Principal, Currency: m.Currency},
			AnnualRate:                 rate,
			TermMonths:                 m.TermMonths,
			PlacementDate:              m.PlacementDate,
			Method:                     schedule.InterestMethod(m.InterestMethod),
			PaymentFrequency:           schedule.Interval(m.PaymentFreq),
			EarlyWithdrawalPenaltyRate: penRate,
		},
		ClosedAt:       m.ClosedAt,
		Payout:         types.Money{Amount: m.Payout, Currency: m.Currency},
		InterestEarned: types.Money{Amount: m.InterestEarned, Currency: m.Currency},
	}, nil
}

// ==================== Share / wallet models ====================

type shareModel struct {
	ID               string    `bson:"_id"`
	PartyID          string    `bson:"party_id"`
	TenantID         string    `bson:"tenant_id"`
	Currency         string    `bson:"currency"`
	SubscribedShares int64     `bson:"subscribed_shares"`
	ParValue         int64     `bson:"par_value"`
	PaidAmount       int64     `bson:"paid_amount"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toShareModel(a *share.Account) *shareModel {
	return &shareModel{
		ID:               a.ID.String(),
		PartyID:          a.PartyID.String(),
		TenantID:         a.TenantID,
		Currency:         a.ParValue.Currency,
		SubscribedShares: a.SubscribedShares,
		ParValue:         a.ParValue.Amount,
		PaidAmount:       a.PaidAmount.Amount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func fromShareModel(m *shareModel) (*share.Account, error) {
	sid, err := id.ParseWithPrefix(m.ID, id.PrefixShare)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: share id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: share party id: %w", err)
	}
	return &share.Account{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               sid,
		PartyID:          pid,
		TenantID:         m.TenantID,
		SubscribedShares: m.SubscribedShares,
		ParValue:         types.Money{Amount: m.ParValue, Currency: m.Currency},
		PaidAmount:       types.Money{Amount: m.PaidAmount, Currency: m.Currency},
	}, nil
}

type walletModel struct {
	ID                string    `bson:"_id"`
	PartyID           string    `bson:"party_id"`
	TenantID          string    `bson:"tenant_id"`
	Name              string    `bson:"name"`
	Currency          string    `bson:"currency"`
	Balance           int64     `bson:"balance"`
	AllowedCategories []string  `bson:"allowed_categories"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:                w.ID.String(),
		PartyID:           w.PartyID.String(),
		TenantID:          w.TenantID,
		Name:              w.Name,
		Currency:          w.Balance.Currency,
		Balance:           w.Balance.Amount,
		AllowedCategories: w.AllowedCategories,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	wid, err := id.ParseWithPrefix(m.ID, id.PrefixWallet)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: wallet id: %w", err)
	}
	pid, err := id.ParsePartyID(m.PartyID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: wallet party id: %w", err)
	}
	return &wallet.Wallet{
		Entity:            types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                wid,
		PartyID:           pid,
		TenantID:          m.TenantID,
		Name:              m.Name,
		Balance:           types.Money{Amount: m.Balance, Currency: m.Currency},
		AllowedCategories: m.AllowedCategories,
	}, nil
}

type sequenceModel struct {
	ID    string `bson:"_id"` // tenant:scope
	Value int64  `bson:"value"`
}
