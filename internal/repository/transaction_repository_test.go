package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestTransactionFilterQuery(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name   string
		filter TransactionFilter
		want   bson.M
	}{
		{"empty matches all", TransactionFilter{}, bson.M{}},
		{"service", TransactionFilter{Service: "Kurir"}, bson.M{"service": "Kurir"}},
		{"open range", TransactionFilter{From: from}, bson.M{"createdAt": bson.M{"$gte": from}}},
		{"service and range", TransactionFilter{Service: "Kurir", From: from, To: to},
			bson.M{"service": "Kurir", "createdAt": bson.M{"$gte": from, "$lt": to}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.query())
		})
	}
}
