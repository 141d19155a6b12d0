package dynamodb

import (
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type ConsumedCapacity struct {
	Total     float64
	Read      float64
	Write     float64
	GSI       map[string]float64
	Table     float64
	TableName string
}

func (cc *ConsumedCapacity) IsZero() bool {
	return cc == nil || reflect.DeepEqual(*cc, ConsumedCapacity{})
}

func addConsumedCapacity(cc *ConsumedCapacity, raw *types.ConsumedCapacity) {
	if cc == nil || raw == nil {
		return
	}
	if raw.CapacityUnits != nil {
		cc.Total += *raw.CapacityUnits
	}
	if raw.ReadCapacityUnits != nil {
		cc.Read += *raw.ReadCapacityUnits
	}
	if raw.WriteCapacityUnits != nil {
		cc.Write += *raw.WriteCapacityUnits
	}
	if len(raw.GlobalSecondaryIndexes) > 0 {
		if cc.GSI == nil {
			cc.GSI = make(map[string]float64, len(raw.GlobalSecondaryIndexes))
		}
		for name, consumed := range raw.GlobalSecondaryIndexes {
			if consumed.CapacityUnits != nil {
				cc.GSI[name] = cc.GSI[name] + *consumed.CapacityUnits
			}
		}
	}
	if raw.Table != nil && raw.Table.CapacityUnits != nil {
		cc.Table += *raw.Table.CapacityUnits
	}
	if raw.TableName != nil {
		cc.TableName = *raw.TableName
	}
}
