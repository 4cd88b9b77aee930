package receiptform

import (
	"encoding/json"
	"testing"
	"time"

	"rentbook-go/pkg/uploader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func validForm() *Form {
	return &Form{
		Date:       "2026-08-01",
		PropertyID: 3,
		Provider:   "Ace Plumbing",
		Amount:     amount(124.50),
		CategoryID: 2,
		now:        func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
	}
}

func TestValidFormPasses(t *testing.T) {
	assert.Empty(t, validForm().Validate())
}

func TestValidateFieldMessages(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Form)
		field  string
		want   string
	}{
		{"missing date", func(f *Form) { f.Date = "" }, FieldDate, "Date is required"},
		{"malformed date", func(f *Form) { f.Date = "08/01/2026" }, FieldDate, "Date is required"},
		{"future date", func(f *Form) { f.Date = "2026-09-01" }, FieldDate, "Date cannot be in the future"},
		{"missing property", func(f *Form) { f.PropertyID = 0 }, FieldProperty, "Property is required"},
		{"missing provider", func(f *Form) { f.Provider = "   " }, FieldProvider, "Provider name is required"},
		{"short provider", func(f *Form) { f.Provider = " A " }, FieldProvider, "Provider name must be at least 2 characters"},
		{"missing amount", func(f *Form) { f.Amount = nil }, FieldAmount, "Amount is required"},
		{"zero amount", func(f *Form) { f.Amount = amount(0) }, FieldAmount, "Amount must be a positive number"},
		{"negative amount", func(f *Form) { f.Amount = amount(-5) }, FieldAmount, "Amount must be a positive number"},
		{"huge amount", func(f *Form) { f.Amount = amount(1000000) }, FieldAmount, "Amount is too large"},
		{"missing category", func(f *Form) { f.CategoryID = 0 }, FieldCategory, "Category is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.mutate(f)
			assert.Equal(t, tc.want, f.ValidateField(tc.field))
			assert.Equal(t, tc.want, f.Validate()[tc.field])
		})
	}
}

func TestAmountBoundary(t *testing.T) {
	f := validForm()
	f.Amount = amount(MaxAmount)
	assert.Empty(t, f.ValidateField(FieldAmount))
}

func TestTodayIsNotFuture(t *testing.T) {
	f := validForm()
	f.Date = "2026-08-28"
	f.now = func() time.Time { return time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC) }
	assert.Empty(t, f.ValidateField(FieldDate))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	f := &Form{}
	errs := f.Validate()
	assert.Len(t, errs, 5)
}

func TestBuildPayloadWithReceipt(t *testing.T) {
	f := validForm()
	f.Comments = "annual service"
	f.Receipt = &uploader.Selection{
		Name:    "receipt.jpg",
		Size:    2048,
		Type:    "image/jpeg",
		Preview: "data:image/jpeg;base64,aGk=",
	}

	p := f.BuildPayload()
	assert.Equal(t, "2026-08-01", p.Date)
	assert.Equal(t, uint(3), p.PropertyID)
	assert.Equal(t, "Ace Plumbing", p.Provider)
	assert.InDelta(t, 124.50, p.Amount, 0.001)
	require.NotNil(t, p.Receipt)
	assert.Equal(t, "receipt.jpg", p.Receipt.Name)
	assert.Equal(t, int64(2048), p.Receipt.Size)
	assert.Equal(t, "image/jpeg", p.Receipt.Type)
	assert.Equal(t, "data:image/jpeg;base64,aGk=", p.Receipt.Data)
}

func TestBuildPayloadNullsWhenAbsent(t *testing.T) {
	p := validForm().BuildPayload()

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"receipt":null`)
	assert.Contains(t, string(raw), `"comments":null`)
}

func TestClearReceipt(t *testing.T) {
	f := validForm()
	f.Receipt = &uploader.Selection{Name: "r.png"}
	f.ClearReceipt()
	assert.Nil(t, f.Receipt)
	assert.Empty(t, f.Validate())
}

func TestProviderTrimmedInPayload(t *testing.T) {
	f := validForm()
	f.Provider = "  Ace Plumbing  "
	assert.Equal(t, "Ace Plumbing", f.BuildPayload().Provider)
}
