package dynamodb

import (
	"fmt"
	"time"

	"github.com/ln80/account-projection/account"
)

const (
	accountRangeKeyValue = "ACCOUNT"
	accountGSIKeyValue   = "ACCOUNT"

	operationRangeKeyPrefix = "OP#"
)

// AccountRecord presents the persisted form of the account's materialized state.
// Rev is an internal revision counter bumped on every applied event; it guards
// optimistic-concurrency writes and orders the operation log.
type AccountRecord struct {
	Item

	ID        string  `dynamodbav:"id"`
	CreatedAt int64   `dynamodbav:"createdAt"`
	Balance   float64 `dynamodbav:"balance"`
	Currency  string  `dynamodbav:"currency"`
	Status    string  `dynamodbav:"status"`

	Rev int64 `dynamodbav:"_rev"`
}

// OperationRecord presents a single entry of the account's operation log.
type OperationRecord struct {
	Item

	ID        string  `dynamodbav:"id"`
	Date      int64   `dynamodbav:"date"`
	Amount    float64 `dynamodbav:"amount"`
	Type      string  `dynamodbav:"type"`
	AccountID string  `dynamodbav:"accountID"`
}

func accountHashKey(id string) string {
	return id
}

func accountRangeKey() string {
	return accountRangeKeyValue
}

// operationRangeKey builds a zero-padded sort key so that operations are
// returned in apply order by a plain range query.
func operationRangeKey(rev int64) string {
	return fmt.Sprintf("%s%020d", operationRangeKeyPrefix, rev)
}

func toAccountRecord(acc account.Account, rev int64) AccountRecord {
	return AccountRecord{
		Item: Item{
			HashKey:    accountHashKey(acc.ID),
			RangeKey:   accountRangeKey(),
			GSIHashKey: accountGSIKeyValue,
		},
		ID:        acc.ID,
		CreatedAt: acc.CreatedAt.UnixNano(),
		Balance:   acc.Balance,
		Currency:  acc.Currency,
		Status:    string(acc.Status),
		Rev:       rev,
	}
}

func fromAccountRecord(r AccountRecord) account.Account {
	return account.Account{
		ID:        r.ID,
		CreatedAt: time.Unix(0, r.CreatedAt),
		Balance:   r.Balance,
		Currency:  r.Currency,
		Status:    account.Status(r.Status),
	}
}

func toOperationRecord(op account.Operation, rev int64) OperationRecord {
	return OperationRecord{
		Item: Item{
			HashKey:  accountHashKey(op.AccountID),
			RangeKey: operationRangeKey(rev),
		},
		ID:        op.ID,
		Date:      op.Date.UnixNano(),
		Amount:    op.Amount,
		Type:      string(op.Type),
		AccountID: op.AccountID,
	}
}

func fromOperationRecord(r OperationRecord) account.Operation {
	return account.Operation{
		ID:        r.ID,
		Date:      time.Unix(0, r.Date),
		Amount:    r.Amount,
		Type:      account.OperationType(r.Type),
		AccountID: r.AccountID,
	}
}
