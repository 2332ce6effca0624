// Package mongo provides a MongoDB implementation of store.Store on the
// official driver. By default composite operations are written best-effort
// sequential so the backend works against standalone deployments: each
// document write is atomic, and the K-sortable _id keeps insertion order
// recoverable. Against a replica set, opening the store with
// WithTransactions wraps every composite operation in a multi-document
// transaction so it commits or rolls back as a unit.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	ledger "github.com/coopcore/ledger"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/share"
	ledgerstore "github.com/coopcore/ledger/store"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// Collection name constants.
const (
	colParties       = "ledger_parties"
	colObligations   = "ledger_obligations"
	colPayments      = "ledger_payments"
	colAllocations   = "ledger_allocations"
	colBalancePoints = "ledger_balance_points"
	colLoans         = "ledger_loans"
	colLoanEntries   = "ledger_loan_entries"
	colPenalties     = "ledger_penalties"
	colSavings       = "ledger_savings"
	colMovements     = "ledger_movements"
	colTimeDeposits  = "ledger_time_deposits"
	colShares        = "ledger_shares"
	colWallets       = "ledger_wallets"
	colSequences     = "ledger_sequences"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	txn    bool
}

// Option configures a Store.
type Option func(*Store)

// WithTransactions runs every composite write in a multi-document
// transaction. Requires a replica set or sharded cluster; standalone
// servers reject transactions.
func WithTransactions() Option {
	return func(s *Store) { s.txn = true }
}

// New creates a store on an already-connected client.
func New(client *mongo.Client, database string, opts ...Option) *Store {
	s := &Store{client: client, db: client.Database(database)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the given MongoDB URI and returns a store on database.
func Open(uri, database string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: connect: %w", err)
	}
	return New(client, database, opts...), nil
}

// run executes fn directly, or inside a transaction when the store was
// opened with WithTransactions.
func (s *Store) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.txn {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("ledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// Database returns the underlying database handle for direct access.
func (s *Store) Database() *mongo.Database { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: %s indexes: %v", ledger.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Party Store ====================

func (s *Store) CreateParty(ctx context.Context, p *party.Party) error {
	_, err := s.db.Collection(colParties).InsertOne(ctx, toPartyModel(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create party: %w", err)
	}
	return nil
}

func (s *Store) GetParty(ctx context.Context, partyID id.PartyID) (*party.Party, error) {
	var m partyModel
	err := s.db.Collection(colParties).
		FindOne(ctx, bson.M{"_id": partyID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPartyNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get party: %w", err)
	}
	return fromPartyModel(&m)
}

func (s *Store) ListParties(ctx context.Context, tenantID string, opts party.ListOpts) ([]*party.Party, error) {
	filter := bson.M{"tenant_id": tenantID}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	cursor, err := s.db.Collection(colParties).
		Find(ctx, filter, findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list parties: %w", err)
	}

	var models []partyModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list parties: %w", err)
	}

	result := make([]*party.Party, 0, len(models))
	for i := range models {
		p, err := fromPartyModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) UpdateParty(ctx context.Context, p *party.Party) error {
	m := toPartyModel(p)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colParties).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update party: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrPartyNotFound
	}
	return nil
}

// ==================== Posting Store ====================

func (s *Store) AppendObligation(ctx context.Context, o *posting.Obligation) error {
	return s.run(ctx, func(ctx context.Context) error {
		p, err := s.GetParty(ctx, o.PartyID)
		if err != nil {
			return err
		}

		_, err = s.db.Collection(colObligations).InsertOne(ctx, toObligationModel(o))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrAlreadyExists
			}
			return fmt.Errorf("ledger/mongo: append obligation: %w", err)
		}

		p.OutstandingTotal = p.OutstandingTotal.Add(o.Amount)
		p.Touch()
		if err := s.UpdateParty(ctx, p); err != nil {
			return err
		}
		return s.insertBalancePoint(ctx, o.PartyID, o.BalanceAfter, o.CreatedAt)
	})
}

func (s *Store) insertBalancePoint(ctx context.Context, partyID id.PartyID, balance types.Money, at time.Time) error {
	_, err := s.db.Collection(colBalancePoints).InsertOne(ctx, &balancePointModel{
		PartyID:  partyID.String(),
		Currency: balance.Currency,
		Balance:  balance.Amount,
		At:       at,
	})
	if err != nil {
		return fmt.Errorf("ledger/mongo: insert balance point: %w", err)
	}
	return nil
}

func (s *Store) GetObligation(ctx context.Context, oblID id.ObligationID) (*posting.Obligation, error) {
	var m obligationModel
	err := s.db.Collection(colObligations).
		FindOne(ctx, bson.M{"_id": oblID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrObligationNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get obligation: %w", err)
	}
	return fromObligationModel(&m)
}

func (s *Store) queryObligations(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*posting.Obligation, error) {
	cursor, err := s.db.Collection(colObligations).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: query obligations: %w", err)
	}

	var models []obligationModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: query obligations: %w", err)
	}

	result := make([]*posting.Obligation, 0, len(models))
	for i := range models {
		o, err := fromObligationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}

func (s *Store) ListOpenObligations(ctx context.Context, partyID id.PartyID) ([]*posting.Obligation, error) {
	// _id is K-sortable and breaks due-date ties in insertion order.
	return s.queryObligations(ctx,
		bson.M{"party_id": partyID.String(), "reversed": false, "paid_date": nil},
		options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) ListOpenObligationsByTenant(ctx context.Context, tenantID string) ([]*posting.Obligation, error) {
	cursor, err := s.db.Collection(colParties).
		Find(ctx, bson.M{"tenant_id": tenantID},
			options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list tenant parties: %w", err)
	}

	var partyIDs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &partyIDs); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list tenant parties: %w", err)
	}
	if len(partyIDs) == 0 {
		return []*posting.Obligation{}, nil
	}

	ids := make([]string, 0, len(partyIDs))
	for _, p := range partyIDs {
		ids = append(ids, p.ID)
	}

	return s.queryObligations(ctx,
		bson.M{"party_id": bson.M{"$in": ids}, "reversed": false, "paid_date": nil},
		options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) ListObligations(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Obligation, error) {
	filter := bson.M{"party_id": partyID.String()}
	if r := dateRange(opts.Start, opts.End); r != nil {
		filter["created_at"] = r
	}
	return s.queryObligations(ctx, filter,
		findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
}

func (s *Store) ReverseObligation(ctx context.Context, oblID id.ObligationID, at time.Time) error {
	return s.run(ctx, func(ctx context.Context) error {
		o, err := s.GetObligation(ctx, oblID)
		if err != nil {
			return err
		}

		_, err = s.db.Collection(colObligations).UpdateOne(ctx,
			bson.M{"_id": oblID.String()},
			bson.M{"$set": bson.M{"reversed": true, "reversed_at": at, "updated_at": now()}})
		if err != nil {
			return fmt.Errorf("ledger/mongo: reverse obligation: %w", err)
		}

		p, err := s.GetParty(ctx, o.PartyID)
		if err != nil {
			return err
		}
		p.OutstandingTotal = p.OutstandingTotal.Subtract(o.Amount)
		p.Touch()
		return s.UpdateParty(ctx, p)
	})
}

func (s *Store) RecordPayment(ctx context.Context, pay *posting.Payment, allocs []*posting.Allocation) error {
	return s.run(ctx, func(ctx context.Context) error {
		p, err := s.GetParty(ctx, pay.PartyID)
		if err != nil {
			return err
		}

		_, err = s.db.Collection(colPayments).InsertOne(ctx, toPaymentModel(pay))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrAlreadyExists
			}
			return fmt.Errorf("ledger/mongo: insert payment: %w", err)
		}

		for _, a := range allocs {
			o, err := s.GetObligation(ctx, a.ObligationID)
			if err != nil {
				return err
			}

			_, err = s.db.Collection(colAllocations).InsertOne(ctx, toAllocationModel(a))
			if err != nil {
				return fmt.Errorf("ledger/mongo: insert allocation: %w", err)
			}

			o.AllocatedTotal = o.AllocatedTotal.Add(a.Amount)
			set := bson.M{"allocated_total": o.AllocatedTotal.Amount, "updated_at": now()}
			if !o.AllocatedTotal.LessThan(o.Amount) {
				set["paid_date"] = pay.Date
			}
			_, err = s.db.Collection(colObligations).UpdateOne(ctx,
				bson.M{"_id": o.ID.String()}, bson.M{"$set": set})
			if err != nil {
				return fmt.Errorf("ledger/mongo: update obligation allocation: %w", err)
			}
		}

		p.OutstandingTotal = p.OutstandingTotal.Subtract(pay.Amount.Abs())
		p.Touch()
		if err := s.UpdateParty(ctx, p); err != nil {
			return err
		}
		return s.insertBalancePoint(ctx, pay.PartyID, pay.BalanceAfter, pay.Date)
	})
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*posting.Payment, error) {
	var m paymentModel
	err := s.db.Collection(colPayments).
		FindOne(ctx, bson.M{"_id": payID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPayments(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Payment, error) {
	filter := bson.M{"party_id": partyID.String()}
	if r := dateRange(opts.Start, opts.End); r != nil {
		filter["date"] = r
	}

	cursor, err := s.db.Collection(colPayments).
		Find(ctx, filter, findOpts(opts.Limit, opts.Offset,
			bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list payments: %w", err)
	}

	var models []paymentModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list payments: %w", err)
	}

	result := make([]*posting.Payment, 0, len(models))
	for i := range models {
		pay, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, pay)
	}
	return result, nil
}

func (s *Store) ListAllocations(ctx context.Context, payID id.PaymentID) ([]*posting.Allocation, error) {
	cursor, err := s.db.Collection(colAllocations).
		Find(ctx, bson.M{"payment_id": payID.String()},
			options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list allocations: %w", err)
	}

	var models []allocationModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list allocations: %w", err)
	}

	result := make([]*posting.Allocation, 0, len(models))
	for i := range models {
		a, err := fromAllocationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *Store) LatestBalanceBefore(ctx context.Context, partyID id.PartyID, before time.Time) (types.Money, bool, error) {
	var m balancePointModel
	err := s.db.Collection(colBalancePoints).
		FindOne(ctx,
			bson.M{"party_id": partyID.String(), "at": bson.M{"$lt": before}},
			options.FindOne().SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}})).
		Decode(&m)
	if isNoDocuments(err) {
		return types.Money{}, false, nil
	}
	if err != nil {
		return types.Money{}, false, fmt.Errorf("ledger/mongo: latest balance: %w", err)
	}
	return types.Money{Amount: m.Balance, Currency: m.Currency}, true, nil
}

// ==================== Loan Store ====================

func (s *Store) CreateLoan(ctx context.Context, acct *loan.Account) error {
	_, err := s.db.Collection(colLoans).InsertOne(ctx, toLoanModel(acct))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create loan: %w", err)
	}
	return nil
}

func (s *Store) GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Account, error) {
	var m loanModel
	err := s.db.Collection(colLoans).
		FindOne(ctx, bson.M{"_id": loanID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrLoanNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get loan: %w", err)
	}
	return fromLoanModel(&m)
}

func (s *Store) ListLoans(ctx context.Context, opts loan.ListOpts) ([]*loan.Account, error) {
	filter := bson.M{}
	if !opts.PartyID.IsNil() {
		filter["party_id"] = opts.PartyID.String()
	}
	if opts.TenantID != "" {
		filter["tenant_id"] = opts.TenantID
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	cursor, err := s.db.Collection(colLoans).
		Find(ctx, filter, findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list loans: %w", err)
	}

	var models []loanModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list loans: %w", err)
	}

	result := make([]*loan.Account, 0, len(models))
	for i := range models {
		acct, err := fromLoanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, acct)
	}
	return result, nil
}

func (s *Store) UpdateLoan(ctx context.Context, acct *loan.Account) error {
	m := toLoanModel(acct)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colLoans).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update loan: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrLoanNotFound
	}
	return nil
}

func (s *Store) DisburseLoan(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry) error {
	return s.run(ctx, func(ctx context.Context) error {
		if err := s.UpdateLoan(ctx, acct); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.upsertLoanEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) upsertLoanEntry(ctx context.Context, e *loan.AmortizationEntry) error {
	m := toLoanEntryModel(e)
	m.UpdatedAt = now()

	_, err := s.db.Collection(colLoanEntries).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ledger/mongo: upsert loan entry: %w", err)
	}
	return nil
}

func (s *Store) ListLoanEntries(ctx context.Context, loanID id.LoanID) ([]*loan.AmortizationEntry, error) {
	cursor, err := s.db.Collection(colLoanEntries).
		Find(ctx, bson.M{"loan_id": loanID.String()},
			options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list loan entries: %w", err)
	}

	var models []loanEntryModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list loan entries: %w", err)
	}

	result := make([]*loan.AmortizationEntry, 0, len(models))
	for i := range models {
		e, err := fromLoanEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) AddPenalty(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error {
	return s.run(ctx, func(ctx context.Context) error {
		if err := s.UpdateLoan(ctx, acct); err != nil {
			return err
		}
		_, err := s.db.Collection(colPenalties).InsertOne(ctx, toPenaltyModel(pen))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrAlreadyExists
			}
			return fmt.Errorf("ledger/mongo: add penalty: %w", err)
		}
		return nil
	})
}

func (s *Store) GetPenalty(ctx context.Context, penID id.PenaltyID) (*loan.Penalty, error) {
	var m penaltyModel
	err := s.db.Collection(colPenalties).
		FindOne(ctx, bson.M{"_id": penID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPenaltyNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get penalty: %w", err)
	}
	return fromPenaltyModel(&m)
}

func (s *Store) ListPenalties(ctx context.Context, loanID id.LoanID) ([]*loan.Penalty, error) {
	cursor, err := s.db.Collection(colPenalties).
		Find(ctx, bson.M{"loan_id": loanID.String()},
			options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list penalties: %w", err)
	}

	var models []penaltyModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list penalties: %w", err)
	}

	result := make([]*loan.Penalty, 0, len(models))
	for i := range models {
		pen, err := fromPenaltyModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, pen)
	}
	return result, nil
}

func (s *Store) SaveWaiver(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error {
	return s.run(ctx, func(ctx context.Context) error {
		if err := s.UpdateLoan(ctx, acct); err != nil {
			return err
		}
		return s.replacePenalty(ctx, pen)
	})
}

func (s *Store) replacePenalty(ctx context.Context, pen *loan.Penalty) error {
	m := toPenaltyModel(pen)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colPenalties).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update penalty: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrPenaltyNotFound
	}
	return nil
}

func (s *Store) SaveLoanPayment(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry, penalties []*loan.Penalty) error {
	return s.run(ctx, func(ctx context.Context) error {
		if err := s.UpdateLoan(ctx, acct); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.upsertLoanEntry(ctx, e); err != nil {
				return err
			}
		}
		for _, pen := range penalties {
			if err := s.replacePenalty(ctx, pen); err != nil {
				return err
			}
		}
		return nil
	})
}

// ==================== Savings Store ====================

func (s *Store) CreateSavings(ctx context.Context, acct *savings.Account) error {
	_, err := s.db.Collection(colSavings).InsertOne(ctx, toSavingsModel(acct))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create savings: %w", err)
	}
	return nil
}

func (s *Store) GetSavings(ctx context.Context, savID id.SavingsID) (*savings.Account, error) {
	var m savingsModel
	err := s.db.Collection(colSavings).
		FindOne(ctx, bson.M{"_id": savID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrSavingsNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get savings: %w", err)
	}
	return fromSavingsModel(&m)
}

func (s *Store) ListSavings(ctx context.Context, opts savings.ListOpts) ([]*savings.Account, error) {
	cursor, err := s.db.Collection(colSavings).
		Find(ctx, savingsFilter(opts), findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list savings: %w", err)
	}

	var models []savingsModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list savings: %w", err)
	}

	result := make([]*savings.Account, 0, len(models))
	for i := range models {
		acct, err := fromSavingsModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, acct)
	}
	return result, nil
}

func savingsFilter(opts savings.ListOpts) bson.M {
	filter := bson.M{}
	if !opts.PartyID.IsNil() {
		filter["party_id"] = opts.PartyID.String()
	}
	if opts.TenantID != "" {
		filter["tenant_id"] = opts.TenantID
	}
	return filter
}

func (s *Store) UpdateSavings(ctx context.Context, acct *savings.Account) error {
	m := toSavingsModel(acct)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colSavings).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update savings: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrSavingsNotFound
	}
	return nil
}

func (s *Store) RecordMovement(ctx context.Context, acct *savings.Account, mov *savings.Movement) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.recordMovement(ctx, acct, mov)
	})
}

func (s *Store) recordMovement(ctx context.Context, acct *savings.Account, mov *savings.Movement) error {
	if err := s.UpdateSavings(ctx, acct); err != nil {
		return err
	}
	_, err := s.db.Collection(colMovements).InsertOne(ctx, toMovementModel(mov))
	if err != nil {
		return fmt.Errorf("ledger/mongo: record movement: %w", err)
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context, savID id.SavingsID, opts savings.ListOpts) ([]*savings.Movement, error) {
	cursor, err := s.db.Collection(colMovements).
		Find(ctx, bson.M{"account_id": savID.String()},
			findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list movements: %w", err)
	}

	var models []movementModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list movements: %w", err)
	}

	result := make([]*savings.Movement, 0, len(models))
	for i := range models {
		mov, err := fromMovementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, mov)
	}
	return result, nil
}

func (s *Store) CreateTimeDeposit(ctx context.Context, dep *savings.TimeDeposit) error {
	_, err := s.db.Collection(colTimeDeposits).InsertOne(ctx, toTimeDepositModel(dep))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create time deposit: %w", err)
	}
	return nil
}

func (s *Store) GetTimeDeposit(ctx context.Context, depID id.TimeDepositID) (*savings.TimeDeposit, error) {
	var m timeDepositModel
	err := s.db.Collection(colTimeDeposits).
		FindOne(ctx, bson.M{"_id": depID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrDepositNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get time deposit: %w", err)
	}
	return fromTimeDepositModel(&m)
}

func (s *Store) ListTimeDeposits(ctx context.Context, opts savings.ListOpts) ([]*savings.TimeDeposit, error) {
	cursor, err := s.db.Collection(colTimeDeposits).
		Find(ctx, savingsFilter(opts), findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list time deposits: %w", err)
	}

	var models []timeDepositModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list time deposits: %w", err)
	}

	result := make([]*savings.TimeDeposit, 0, len(models))
	for i := range models {
		dep, err := fromTimeDepositModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, dep)
	}
	return result, nil
}

func (s *Store) SettleTimeDeposit(ctx context.Context, dep *savings.TimeDeposit, acct *savings.Account, mov *savings.Movement) error {
	return s.run(ctx, func(ctx context.Context) error {
		m := toTimeDepositModel(dep)
		m.UpdatedAt = now()

		res, err := s.db.Collection(colTimeDeposits).
			ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
		if err != nil {
			return fmt.Errorf("ledger/mongo: settle time deposit: %w", err)
		}
		if res.MatchedCount == 0 {
			return ledger.ErrDepositNotFound
		}
		return s.recordMovement(ctx, acct, mov)
	})
}

// ==================== Share Store ====================

func (s *Store) CreateShare(ctx context.Context, acct *share.Account) error {
	_, err := s.db.Collection(colShares).InsertOne(ctx, toShareModel(acct))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create share: %w", err)
	}
	return nil
}

func (s *Store) GetShare(ctx context.Context, shareID id.ShareID) (*share.Account, error) {
	var m shareModel
	err := s.db.Collection(colShares).
		FindOne(ctx, bson.M{"_id": shareID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrShareNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get share: %w", err)
	}
	return fromShareModel(&m)
}

func (s *Store) ListShares(ctx context.Context, opts share.ListOpts) ([]*share.Account, error) {
	filter := bson.M{}
	if !opts.PartyID.IsNil() {
		filter["party_id"] = opts.PartyID.String()
	}
	if opts.TenantID != "" {
		filter["tenant_id"] = opts.TenantID
	}

	cursor, err := s.db.Collection(colShares).
		Find(ctx, filter, findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list shares: %w", err)
	}

	var models []shareModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list shares: %w", err)
	}

	result := make([]*share.Account, 0, len(models))
	for i := range models {
		acct, err := fromShareModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, acct)
	}
	return result, nil
}

func (s *Store) UpdateShare(ctx context.Context, acct *share.Account) error {
	m := toShareModel(acct)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colShares).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update share: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrShareNotFound
	}
	return nil
}

// ==================== Wallet Store ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	_, err := s.db.Collection(colWallets).InsertOne(ctx, toWalletModel(w))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.db.Collection(colWallets).
		FindOne(ctx, bson.M{"_id": walletID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrWalletNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) ListWallets(ctx context.Context, opts wallet.ListOpts) ([]*wallet.Wallet, error) {
	filter := bson.M{}
	if !opts.PartyID.IsNil() {
		filter["party_id"] = opts.PartyID.String()
	}
	if opts.TenantID != "" {
		filter["tenant_id"] = opts.TenantID
	}

	cursor, err := s.db.Collection(colWallets).
		Find(ctx, filter, findOpts(opts.Limit, opts.Offset, bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list wallets: %w", err)
	}

	var models []walletModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list wallets: %w", err)
	}

	result := make([]*wallet.Wallet, 0, len(models))
	for i := range models {
		w, err := fromWalletModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, nil
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	m := toWalletModel(w)
	m.UpdatedAt = now()

	res, err := s.db.Collection(colWallets).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update wallet: %w", err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrWalletNotFound
	}
	return nil
}

// ==================== Sequence Store ====================

func (s *Store) NextSequence(ctx context.Context, tenantID, scope string) (int64, error) {
	var m sequenceModel
	err := s.db.Collection(colSequences).
		FindOneAndUpdate(ctx,
			bson.M{"_id": tenantID + ":" + scope},
			bson.M{"$inc": bson.M{"value": 1}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).
		Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: bump sequence: %w", err)
	}
	return m.Value, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error is a "no documents found" error.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func findOpts(limit, offset int, sort bson.D) *options.FindOptionsBuilder {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}
	return opts
}

// dateRange builds a half-open [start, end) filter, nil when both are zero.
func dateRange(start, end time.Time) bson.M {
	if start.IsZero() && end.IsZero() {
		return nil
	}
	r := bson.M{}
	if !start.IsZero() {
		r["$gte"] = start
	}
	if !end.IsZero() {
		r["$lt"] = end
	}
	return r
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colParties: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "kind", Value: 1}}},
		},
		colObligations: {
			{Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "due_date", Value: 1}}},
			{Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "reversed", Value: 1}, {Key: "paid_date", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		colAllocations: {
			{Keys: bson.D{{Key: "payment_id", Value: 1}}},
			{Keys: bson.D{{Key: "obligation_id", Value: 1}}},
		},
		colBalancePoints: {
			{Keys: bson.D{{Key: "party_id", Value: 1}, {Key: "at", Value: -1}}},
		},
		colLoans: {
			{Keys: bson.D{{Key: "party_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colLoanEntries: {
			{Keys: bson.D{{Key: "loan_id", Value: 1}, {Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colPenalties: {
			{Keys: bson.D{{Key: "loan_id", Value: 1}}},
		},
		colSavings: {
			{Keys: bson.D{{Key: "party_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colMovements: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}},
		},
		colTimeDeposits: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colShares: {
			{Keys: bson.D{{Key: "party_id", Value: 1}}},
		},
		colWallets: {
			{Keys: bson.D{{Key: "party_id", Value: 1}}},
		},
	}
}
