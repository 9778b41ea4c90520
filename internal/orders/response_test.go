package orders

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Response
	}{
		{
			name: "string id",
			body: `{"success":true,"orderId":"A-1"}`,
			want: Response{Kind: KindDirectID, PrimaryOrderID: "A-1", OrderIDs: []string{"A-1"}},
		},
		{
			name: "nested order id",
			body: `{"success":true,"result":{"orderId":77}}`,
			want: Response{Kind: KindNestedID, PrimaryOrderID: "77", OrderIDs: []string{"77"}},
		},
		{
			name: "batch counts tax transactions",
			body: `{"success":true,"result":{"orders":[{"orderId":1}],"totalTaxTransactions":3}}`,
			want: Response{Kind: KindBatch, PrimaryOrderID: "1", OrderIDs: []string{"1"}, TaxTransactions: 3},
		},
		{
			name: "batch entries without ids are skipped",
			body: `{"success":true,"result":{"orders":[{},{"orderId":"B"}]}}`,
			want: Response{Kind: KindBatch, PrimaryOrderID: "B", OrderIDs: []string{"B"}},
		},
		{
			name: "plain string error body",
			body: `"Service unavailable"`,
			want: Response{Kind: KindRejected, Message: "Service unavailable"},
		},
		{
			name: "missing success flag with message",
			body: `{"message":"Unauthorized"}`,
			want: Response{Kind: KindRejected, Message: "Unauthorized"},
		},
		{
			name: "non object result",
			body: `{"success":true,"result":"done"}`,
			want: Response{Kind: KindUnrecognized},
		},
		{
			name: "empty body",
			body: ``,
			want: Response{Kind: KindUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.body))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
