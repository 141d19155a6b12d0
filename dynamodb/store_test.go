package dynamodb

import (
	"context"
	"strconv"
	"testing"

	"github.com/ln80/account-projection/projectiontest"
)

func TestNewStore(t *testing.T) {
	tcs := []struct {
		dbsvc AdminAPI
		table string
		ok    bool
	}{
		{
			dbsvc: nil,
			table: "table name",
			ok:    false,
		},
		{
			dbsvc: dbsvc,
			table: "",
			ok:    false,
		},
		{
			dbsvc: nil,
			table: "",
			ok:    false,
		},
	}

	for i, tc := range tcs {
		t.Run("tc:"+strconv.Itoa(i), func(t *testing.T) {
			defer func() {
				if tc.ok {
					if r := recover(); r != nil {
						t.Fatal("expect to not panic, got", r)
					}
				} else {
					if r := recover(); r == nil {
						t.Fatal("expect to panic")
					}
				}
			}()

			NewStore(tc.dbsvc, tc.table, nil, nil)
		})
	}
}

func TestReadStore(t *testing.T) {
	ctx := context.Background()

	withTable(t, func(table string) {
		projectiontest.ReadStoreTest(t, ctx, NewStore(dbsvc, table))
	})
}
