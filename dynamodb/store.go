package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ln80/account-projection/account"
	account_errors "github.com/ln80/account-projection/account/errors"
	"github.com/ln80/account-projection/logger"
)

// StoreConfig presents the config of the dynamodb-based read-model store implementation.
type StoreConfig struct {
	// AddTracing returns a trace ID to stamp on written items. Ignored if nil.
	AddTracing func(ctx context.Context) string
	// UpdateRetryLimit bounds the optimistic-concurrency retries of AtomicUpdate.
	UpdateRetryLimit int
}

// Store implements the account.Store interface on top of a single dynamodb table.
//
// The account's materialized state and its operation log share the account-keyed
// partition; a revision counter on the state record guards concurrent writers
// and pins the log range that belongs to a given state snapshot.
type Store struct {
	api   ClientAPI
	table string
	cfg   *StoreConfig
}

var _ account.Store = &Store{}

// NewStore returns a dynamodb implementation of the read-model store.
// It panics if ClientAPI or table are empty.
func NewStore(api ClientAPI, table string, opts ...func(*StoreConfig)) *Store {
	if api == nil {
		panic("read-model store invalid Dynamodb client: nil value")
	}
	if table == "" {
		panic("read-model store invalid Dynamodb table name: empty value")
	}

	s := &Store{
		api:   api,
		table: table,
		cfg: &StoreConfig{
			UpdateRetryLimit: 3,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s.cfg)
	}
	return s
}

// Get implements account.Store
func (s *Store) Get(ctx context.Context, id string) (acc account.Account, found bool, err error) {
	defer func() {
		if err != nil {
			err = account_errors.Err(account.ErrLoadAccountFailed, id, err)
		}
	}()

	rec, found, err := s.getRecord(ctx, id)
	if err != nil || !found {
		return
	}
	acc = fromAccountRecord(rec)
	return
}

// GetAll implements account.Store
//
// Accounts are returned ordered by account ID. The listing index is
// eventually consistent.
func (s *Store) GetAll(ctx context.Context) (accs []account.Account, err error) {
	defer func() {
		if err != nil {
			err = account_errors.Err(account.ErrLoadAccountFailed, "", err)
		}
	}()

	log := logger.FromContext(ctx).WithName("dynamodb")

	cc := &ConsumedCapacity{}
	defer func() {
		if !cc.IsZero() {
			log.V(1).Info("List accounts consumed capacity", "capacity", cc)
		}
	}()

	expr, err := expression.
		NewBuilder().
		WithKeyCondition(
			expression.Key(GlobalIndexKey).
				Equal(expression.Value(accountGSIKeyValue)),
		).Build()
	if err != nil {
		return
	}
	p := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(GlobalIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityIndexes,
	})

	accs = make([]account.Account, 0)
	for p.HasMorePages() {
		var out *dynamodb.QueryOutput
		out, err = p.NextPage(ctx)
		if out != nil {
			addConsumedCapacity(cc, out.ConsumedCapacity)
		}
		if err != nil {
			return
		}
		records := make([]AccountRecord, 0)
		if err = attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
			return
		}
		for _, rec := range records {
			accs = append(accs, fromAccountRecord(rec))
		}
	}
	return
}

// GetOperations implements account.Store
func (s *Store) GetOperations(ctx context.Context, id string) (ops []account.Operation, err error) {
	defer func() {
		if err != nil {
			err = account_errors.Err(account.ErrLoadAccountFailed, id, err)
		}
	}()

	ops, err = s.queryOperations(ctx, id,
		expression.Key(HashKey).
			Equal(expression.Value(accountHashKey(id))).
			And(expression.
				Key(RangeKey).
				BeginsWith(operationRangeKeyPrefix)),
	)
	return
}

// Statement implements account.Store
//
// The account state is read first; its revision then bounds the operation-log
// range query so the returned balance reflects exactly the returned operations,
// regardless of writes applied in between.
func (s *Store) Statement(ctx context.Context, id string) (stm account.Statement, err error) {
	defer func() {
		if err != nil && !account_errors.ErrIs(err, account.ErrAccountNotFound) {
			err = account_errors.Err(account.ErrLoadAccountFailed, id, err)
		}
	}()

	rec, found, err := s.getRecord(ctx, id)
	if err != nil {
		return
	}
	if !found {
		err = account_errors.Err(account.ErrAccountNotFound, id, nil)
		return
	}

	ops, err := s.queryOperations(ctx, id,
		expression.Key(HashKey).
			Equal(expression.Value(accountHashKey(id))).
			And(expression.
				Key(RangeKey).
				Between(
					expression.Value(operationRangeKey(0)),
					expression.Value(operationRangeKey(rec.Rev)),
				)),
	)
	if err != nil {
		return
	}
	stm = account.Statement{
		Account:    fromAccountRecord(rec),
		Operations: ops,
	}
	return
}

// AtomicUpdate implements account.Store
//
// The state record and the optional operation entry are committed in a single
// dynamodb transaction conditioned on the state's revision. A concurrent write
// fails the condition and triggers a bounded re-read/retry; exhausting the
// retries fails with ErrUpdateConflict.
func (s *Store) AtomicUpdate(ctx context.Context, id string, fn account.UpdateFn) (err error) {
	log := logger.WithAccount(logger.FromContext(ctx), id).WithName("dynamodb")
	ctx = logger.NewContext(ctx, log)

	// normalize returned err
	defer func() {
		if err == nil {
			return
		}
		if !account_errors.ErrIs(err,
			account.ErrAccountNotFound,
			account.ErrAccountAlreadyExists,
			account.ErrUpdateConflict,
		) {
			err = account_errors.Err(account.ErrUpdateAccountFailed, id, err)
		}
	}()

	for attempt := 0; attempt <= s.cfg.UpdateRetryLimit; attempt++ {
		err = s.tryUpdate(ctx, id, fn)
		if err != nil && IsConditionCheckFailure(err) {
			log.V(1).Info("Retry conflicting account update", "attempt", attempt)
			continue
		}
		return
	}
	err = account_errors.Err(account.ErrUpdateConflict, id, err)
	return
}

func (s *Store) tryUpdate(ctx context.Context, id string, fn account.UpdateFn) (err error) {
	log := logger.FromContext(ctx)

	rec, found, err := s.getRecord(ctx, id)
	if err != nil {
		return
	}

	var cur *account.Account
	oldRev := int64(0)
	if found {
		acc := fromAccountRecord(rec)
		cur = &acc
		oldRev = rec.Rev
	}

	acc, op, err := fn(cur)
	if err != nil {
		return
	}
	newRev := oldRev + 1

	ses, ok := SessionFrom(ctx)
	if !ok {
		ses = NewSession(s.api)
	}
	defer func() {
		if cc := ses.ConsumedCapacity(); !cc.IsZero() {
			log.V(1).Info("Update account consumed capacity", "capacity", cc)
		}
	}()

	explicitTx := false
	if !ses.HasTx() {
		explicitTx = true
		if err = ses.StartTx(); err != nil {
			return
		}
	}

	newRec := toAccountRecord(acc, newRev)
	if s.cfg.AddTracing != nil {
		newRec.TraceID = s.cfg.AddTracing(ctx)
	}
	var mr map[string]types.AttributeValue
	mr, err = attributevalue.MarshalMap(newRec)
	if err != nil {
		return
	}

	var cond expression.ConditionBuilder
	if found {
		cond = expression.Name(RevAttribute).Equal(expression.Value(oldRev))
	} else {
		cond = expression.AttributeNotExists(expression.Name(HashKey))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return
	}

	if err = ses.Put(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      mr,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityIndexes,
	}); err != nil {
		return
	}

	if op != nil {
		opRec := toOperationRecord(*op, newRev)
		var mo map[string]types.AttributeValue
		mo, err = attributevalue.MarshalMap(opRec)
		if err != nil {
			return
		}
		opExpr, exprErr := expression.
			NewBuilder().
			WithCondition(
				expression.AttributeNotExists(
					expression.Name(RangeKey),
				),
			).Build()
		if exprErr != nil {
			err = exprErr
			return
		}
		if err = ses.Put(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.table),
			Item:                      mo,
			ConditionExpression:       opExpr.Condition(),
			ExpressionAttributeNames:  opExpr.Names(),
			ExpressionAttributeValues: opExpr.Values(),
			ReturnConsumedCapacity:    types.ReturnConsumedCapacityIndexes,
		}); err != nil {
			return
		}
	}

	if explicitTx {
		err = ses.CommitTx(ctx)
	}
	return
}

func (s *Store) getRecord(ctx context.Context, id string) (rec AccountRecord, found bool, err error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			HashKey:  &types.AttributeValueMemberS{Value: accountHashKey(id)},
			RangeKey: &types.AttributeValueMemberS{Value: accountRangeKey()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return
	}
	if len(out.Item) == 0 {
		return
	}
	if err = attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return
	}
	found = true
	return
}

func (s *Store) queryOperations(ctx context.Context, id string, keyCond expression.KeyConditionBuilder) (ops []account.Operation, err error) {
	log := logger.FromContext(ctx).WithName("dynamodb")

	cc := &ConsumedCapacity{}
	defer func() {
		if !cc.IsZero() {
			log.V(1).Info("Load operations consumed capacity", "capacity", cc, "accID", id)
		}
	}()

	expr, err := expression.
		NewBuilder().
		WithKeyCondition(keyCond).
		Build()
	if err != nil {
		return
	}
	p := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
		ScanIndexForward:          aws.Bool(true),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityIndexes,
	})

	ops = make([]account.Operation, 0)
	for p.HasMorePages() {
		var out *dynamodb.QueryOutput
		out, err = p.NextPage(ctx)
		if out != nil {
			addConsumedCapacity(cc, out.ConsumedCapacity)
		}
		if err != nil {
			return
		}
		records := make([]OperationRecord, 0)
		if err = attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
			return
		}
		for _, rec := range records {
			ops = append(ops, fromOperationRecord(rec))
		}
	}
	return
}
