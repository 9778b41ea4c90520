package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     Callback
		ok       bool
		approved bool
	}{
		{
			name:     "txnref and resp",
			query:    "txnref=KSW-1&resp=00&desc=Approved+by+Financial+Institution&amount=215000",
			want:     Callback{Reference: "KSW-1", ResponseCode: "00", Description: "Approved by Financial Institution", Amount: "215000"},
			ok:       true,
			approved: true,
		},
		{
			name:  "txn_ref and response",
			query: "txn_ref=KSW-2&response=Z6",
			want:  Callback{Reference: "KSW-2", ResponseCode: "Z6"},
			ok:    true,
		},
		{
			name:  "transactionreference",
			query: "transactionreference=KSW-3&resp=51",
			want:  Callback{Reference: "KSW-3", ResponseCode: "51"},
			ok:    true,
		},
		{
			name:     "approved by description only",
			query:    "reference=KSW-4&desc=Approved+by+Financial+Institution",
			want:     Callback{Reference: "KSW-4", Description: "Approved by Financial Institution"},
			ok:       true,
			approved: true,
		},
		{
			name:     "no reference",
			query:    "resp=00",
			want:     Callback{ResponseCode: "00"},
			approved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			got, ok := ParseCallback(q)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.approved, got.Approved())
		})
	}
}
