package dynamodb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsConditionCheckFailure checks if the given error is an aws error that expresses a conditional failure exception.
// It works seamlessly in both single write and within a transaction operation.
func IsConditionCheckFailure(err error) bool {
	var cce *types.ConditionalCheckFailedException
	if errors.As(err, &cce) {
		return true
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
