package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://pricing.mailchimp.com", "Mailchimp"},
		{"https://www.stripe.com/payments", "Stripe"},
		{"notion.so", "Notion"},
		{"https://shop.example.co.uk/cart", "Example"},
		{"http://localhost:8080", "Localhost"},
		{"", UnknownBrand},
		{"https://", UnknownBrand},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromURL(tt.in))
		})
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "mailchimp.com", Domain("pricing.mailchimp.com"))
	assert.Equal(t, "bbc.co.uk", Domain("https://www.bbc.co.uk/news"))
	assert.Equal(t, "", Domain(""))
}
