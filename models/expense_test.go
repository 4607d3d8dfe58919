package models

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) Put(_ context.Context, objectKey string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = data
	s.types[objectKey] = contentType
	return nil
}

func (s *memoryStore) Get(_ context.Context, objectKey string, _ int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectKey]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return data, nil
}

func (s *memoryStore) Delete(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for x := 0; x < 400; x++ {
		for y := 0; y < 300; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAttachExpenseReceipt(t *testing.T) {
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("GCS_BUCKET", "")
	ctx := newTestBusiness(t)
	store := newMemoryStore()

	expense, err := CreateExpense(ctx, &NewExpense{Category: "fuel", Amount: dec(120), Notes: "diesel"})
	require.NoError(t, err)

	_, err = AttachExpenseReceipt(ctx, expense.ID, store, "empty.pdf", "application/pdf", nil)
	assert.True(t, utils.IsValidation(err))

	pdf, err := AttachExpenseReceipt(ctx, expense.ID, store, "bill.pdf", "application/pdf", []byte("%PDF-1.4 receipt"))
	require.NoError(t, err)
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	assert.True(t, strings.HasPrefix(pdf.ReceiptUrl, "receipts/"+businessId+"/"))
	assert.True(t, strings.HasSuffix(pdf.ReceiptUrl, "-bill.pdf"))
	assert.Empty(t, pdf.ReceiptThumbnailUrl)
	assert.Len(t, store.objects, 1)
	assert.Equal(t, "application/pdf", store.types[pdf.ReceiptUrl])

	photo, err := AttachExpenseReceipt(ctx, expense.ID, store, "photo.png", "image/png", samplePNG(t))
	require.NoError(t, err)
	require.NotEmpty(t, photo.ReceiptThumbnailUrl)
	assert.Contains(t, photo.ReceiptThumbnailUrl, "/thumbnails/")
	assert.Equal(t, "image/jpeg", store.types[photo.ReceiptThumbnailUrl])

	thumbnail, _, err := image.Decode(bytes.NewReader(store.objects[photo.ReceiptThumbnailUrl]))
	require.NoError(t, err)
	assert.Equal(t, 200, thumbnail.Bounds().Dx())

	// the replaced receipt is gone
	assert.Contains(t, store.deleted, pdf.ReceiptUrl)
	assert.Len(t, store.objects, 2)

	reloaded, err := GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.ReceiptUrl, reloaded.ReceiptUrl)

	_, err = DeleteExpense(ctx, expense.ID, store)
	require.NoError(t, err)
	assert.Empty(t, store.objects)

	_, err = GetExpense(ctx, expense.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestCreateExpenseValidation(t *testing.T) {
	ctx := newTestBusiness(t)

	_, err := CreateExpense(ctx, &NewExpense{Category: " ", Amount: dec(10)})
	assert.True(t, utils.IsValidation(err))

	_, err = CreateExpense(ctx, &NewExpense{Category: "repair", Amount: dec(-5)})
	assert.True(t, utils.IsValidation(err))

	missingTruck := 404
	_, err = CreateExpense(ctx, &NewExpense{Category: "repair", Amount: dec(5), TruckId: &missingTruck})
	assert.True(t, utils.IsValidation(err))
}

func TestPaginateExpensesByCategory(t *testing.T) {
	ctx := newTestBusiness(t)
	for _, category := range []string{"fuel", "toll", "fuel"} {
		_, err := CreateExpense(ctx, &NewExpense{Category: category, Amount: dec(1)})
		require.NoError(t, err)
	}

	fuel := "fuel"
	page, err := PaginateExpenses(ctx, ExpenseFilter{Category: &fuel})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = PaginateExpenses(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}
