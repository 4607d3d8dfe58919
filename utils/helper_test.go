package utils

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20,000", "20000"},
		{"¥ 1,200.50", "1200.5"},
		{"USD -300", "-300"},
		{" 42 ", "42"},
		{"0.0001", "0.0001"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, c.in)
		assert.Truef(t, got.Equal(decimal.RequireFromString(c.want)), "%q: got %s", c.in, got)
	}

	for _, bad := range []string{"", "abc", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeOptionalPhone(t *testing.T) {
	t.Setenv("PHONE_COUNTRY_CODE", "")

	phone, err := NormalizeOptionalPhone("  ")
	require.NoError(t, err)
	assert.Empty(t, phone)

	phone, err = NormalizeOptionalPhone("138 0013 8000")
	require.NoError(t, err)
	assert.Equal(t, "+8613800138000", phone)

	_, err = NormalizeOptionalPhone("12")
	assert.True(t, IsValidation(err))
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", NewConflictError("transfer is %s", "APPROVED"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, "approve: transfer is APPROVED", wrapped.Error())

	assert.True(t, IsValidation(fmt.Errorf("input: %w", NewValidationError("amount must be positive"))))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", ErrorRecordNotFound)))
	assert.False(t, IsNotFound(ErrorPermissionDenied))
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	assert.Equal(t, 7, DereferencePtr(&v, 3))
	assert.Equal(t, 3, DereferencePtr[int](nil, 3))
	assert.Equal(t, "", DereferencePtr[string](nil))
}

func TestPasswordHash(t *testing.T) {
	hashed, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hashed, "secret1"))
	assert.Error(t, ComparePassword(hashed, "secret2"))
}

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "unit-test-secret")

	token, err := JwtGenerate(12, "P", "biz-1")
	require.NoError(t, err)
	claims, err := JwtValidate(token)
	require.NoError(t, err)
	assert.Equal(t, 12, claims.ID)
	assert.Equal(t, "P", claims.Role)
	assert.Equal(t, "biz-1", claims.BusinessId)

	t.Setenv("API_SECRET", "rotated")
	_, err = JwtValidate(token)
	assert.Error(t, err)
}

func TestObjectURLs(t *testing.T) {
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("GCS_BUCKET", "")
	assert.Equal(t, "receipts/a/1/x.pdf", BuildObjectAccessURL("receipts/a/1/x.pdf"))
	assert.Equal(t, "receipts/a/1/x.pdf", ExtractObjectKeyFromURL("receipts/a/1/x.pdf"))

	t.Setenv("GCS_BUCKET", "trade-receipts")
	url := BuildObjectAccessURL("receipts/a/1/x.pdf")
	assert.Equal(t, "https://storage.googleapis.com/trade-receipts/receipts/a/1/x.pdf", url)
	assert.Equal(t, "receipts/a/1/x.pdf", ExtractObjectKeyFromURL(url))

	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/files/")
	assert.Equal(t, "https://cdn.example.com/files/k.png", BuildObjectAccessURL("k.png"))
	assert.Equal(t, "k.png", ExtractObjectKeyFromURL("https://cdn.example.com/files/k.png"))

	assert.Empty(t, ExtractObjectKeyFromURL("https://elsewhere.example.com/k.png"))
	assert.Empty(t, ExtractObjectKeyFromURL("receipts/../secrets"))
	assert.Empty(t, ExtractObjectKeyFromURL(""))
}
