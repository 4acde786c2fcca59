package midtrans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureKey(t *testing.T) {
	client := NewClient(Config{ServerKey: "server-key", ClientKey: "client-key"})
	sig := Signature("PW-123", "200", "99000.00", "server-key")

	assert.Len(t, sig, 128)
	assert.True(t, client.VerifySignatureKey("PW-123", "200", "99000.00", sig))
	assert.False(t, client.VerifySignatureKey("PW-123", "201", "99000.00", sig))
	assert.False(t, client.VerifySignatureKey("PW-123", "200", "99000.00", ""))
	assert.Equal(t, "client-key", client.ClientKey())
}

func TestCreateSnapTransactionRequiresOrderID(t *testing.T) {
	client := NewClient(Config{ServerKey: "server-key"})

	_, err := client.CreateSnapTransaction(CreateTransactionRequest{})
	assert.ErrorIs(t, err, ErrEmptyOrderID)

	_, err = client.CheckTransaction("")
	assert.ErrorIs(t, err, ErrEmptyOrderID)
}
