package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func testCampaign() *CampaignView {
	return &CampaignView{
		ID:        "camp-1",
		Active:    true,
		Promotion: Promotion{ID: "promo-1", Title: "Free gift"},
		Products: []ProductSummary{
			{ID: "p1", Title: "Kettle", ASIN: "B000KETTLE"},
			{ID: "p2", Title: "Toaster", ASIN: "B000TOAST"},
		},
		Marketplaces: []string{"us", "gb"},
	}
}

func TestFormPatch_SelectProductResolvesASIN(t *testing.T) {
	form := FormPatch{Target: ptr("p2")}.Apply(FormData{}, testCampaign())
	assert.Equal(t, "p2", form.Target)
	assert.Equal(t, "B000TOAST", form.ASIN)
	assert.False(t, form.IsSeller())
}

func TestFormPatch_SellerClearsProduct(t *testing.T) {
	c := testCampaign()
	form := FormPatch{Target: ptr("p1")}.Apply(FormData{}, c)
	form = FormPatch{Target: ptr(SellerTarget)}.Apply(form, c)

	assert.True(t, form.IsSeller())
	assert.Empty(t, form.ASIN)
}

func TestFormPatch_ProductClearsSeller(t *testing.T) {
	c := testCampaign()
	form := FormPatch{Target: ptr(SellerTarget)}.Apply(FormData{}, c)
	form = FormPatch{Target: ptr("p1")}.Apply(form, c)

	assert.False(t, form.IsSeller())
	assert.Equal(t, "B000KETTLE", form.ASIN)
}

func TestFormPatch_LeavesUntouchedFields(t *testing.T) {
	before := FormData{Name: "Ada", Email: "ada@example.com", Rating: 5, UsedSevenDays: ptr(true)}
	after := FormPatch{Feedback: ptr("Great")}.Apply(before, testCampaign())

	assert.Equal(t, "Ada", after.Name)
	assert.Equal(t, 5, after.Rating)
	assert.Equal(t, "Great", after.Feedback)
	assert.True(t, *after.UsedSevenDays)

	// The patch must not alias the previous record.
	*after.UsedSevenDays = false
	assert.True(t, *before.UsedSevenDays)
}

func TestFormPatch_Normalizes(t *testing.T) {
	form := FormPatch{Marketplace: ptr(" GB "), OrderID: ptr(" 123-45 ")}.Apply(FormData{}, testCampaign())
	assert.Equal(t, "gb", form.Marketplace)
	assert.Equal(t, "123-45", form.OrderID)
}

func TestBuildPayload_SellerSentinel(t *testing.T) {
	c := testCampaign()
	s := NewSession("s1", "camp-1")
	s.Campaign = c
	s.Form = FormPatch{Target: ptr("p1")}.Apply(s.Form, c)
	s.Form = FormPatch{
		Target:   ptr(SellerTarget),
		Rating:   ptr(4),
		Name:     ptr("Ada"),
		Email:    ptr("ada@example.com"),
		Feedback: ptr("Fast shipping"),
	}.Apply(s.Form, c)

	p := BuildPayload(s)
	assert.Equal(t, SellerSentinelASIN, p.ASIN)
	assert.True(t, p.IsSeller)
	assert.Equal(t, "promo-1", p.PromotionID)
	assert.Equal(t, "camp-1", p.CampaignID)
	assert.Equal(t, "Ada", p.DisplayName)
}

func TestBuildPayload_Product(t *testing.T) {
	c := testCampaign()
	s := NewSession("s1", "camp-1")
	s.Campaign = c
	s.Form = FormPatch{Target: ptr("p2"), Marketplace: ptr("us")}.Apply(s.Form, c)

	p := BuildPayload(s)
	assert.Equal(t, "B000TOAST", p.ASIN)
	assert.False(t, p.IsSeller)
	assert.Equal(t, "us", p.Marketplace)
}

func TestFormData_Equal(t *testing.T) {
	a := FormData{Name: "Ada", UsedSevenDays: ptr(true)}
	b := a.Clone()
	assert.True(t, a.Equal(b))
	b.UsedSevenDays = ptr(false)
	assert.False(t, a.Equal(b))
	b.UsedSevenDays = nil
	assert.False(t, a.Equal(b))
}
