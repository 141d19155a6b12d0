package dynamodb

import (
	"context"
	"log"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ln80/account-projection/projectiontest"
)

var dbsvc AdminAPI

var rdm = rand.New(rand.NewSource(time.Now().UnixNano()))

func genTableName(prefix string) string {
	now := strconv.FormatInt(time.Now().UnixNano(), 36)
	random := strconv.FormatInt(int64(rdm.Int31()), 36)
	return prefix + "-" + now + "-" + random
}

func withTable(t *testing.T, tfn func(table string)) {
	if dbsvc == nil {
		t.Skip("DYNAMODB_ENDPOINT env var not set")
	}

	ctx := context.Background()

	table := genTableName("tmp-account-table")
	if err := CreateTable(ctx, dbsvc, table); err != nil {
		t.Fatalf("failed to create test account table: %v", err)
	}
	defer func() {
		if err := DeleteTable(ctx, dbsvc, table); err != nil {
			t.Fatalf("failed to remove test account table: %v", err)
		}
	}()

	tfn(table)
}

func TestMain(m *testing.M) {
	if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
		cfg, err := projectiontest.LocalAWSConfig(context.Background(), endpoint)
		if err != nil {
			log.Fatalf("failed to load local aws config: %v", err)
		}
		dbsvc = NewClient(cfg)
	}

	os.Exit(m.Run())
}
