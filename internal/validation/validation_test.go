package validation

import (
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct(t *testing.T) {
	validAddress := model.Address{Street: "1 Main St", City: "Springfield", Country: "US"}
	productID := "5f1c2a7e-3c1b-4b8e-9a41-0d1f6b7c9e21"

	tests := []struct {
		name        string
		input       any
		expectError bool
		errorMsg    string
	}{
		{
			name: "Valid order request",
			input: &model.OrderRequest{
				Items:         []model.OrderItemRequest{{ProductID: productID, Quantity: 1, Size: "M"}},
				Address:       validAddress,
				PaymentMethod: "cod",
			},
		},
		{
			name: "Empty items",
			input: &model.OrderRequest{
				Address:       validAddress,
				PaymentMethod: "cod",
			},
			expectError: true,
			errorMsg:    "At least 1 items required",
		},
		{
			name: "Zero quantity",
			input: &model.OrderRequest{
				Items:         []model.OrderItemRequest{{ProductID: productID, Quantity: 0}},
				Address:       validAddress,
				PaymentMethod: "cod",
			},
			expectError: true,
			errorMsg:    "items[0].quantity must be at least 1",
		},
		{
			name: "Missing city",
			input: &model.OrderRequest{
				Items:         []model.OrderItemRequest{{ProductID: productID, Quantity: 1}},
				Address:       model.Address{Street: "1 Main St", Country: "US"},
				PaymentMethod: "cod",
			},
			expectError: true,
			errorMsg:    "address.city is required",
		},
		{
			name:        "Invalid email",
			input:       &model.LoginRequest{Email: "not-an-email", Password: "secret"},
			expectError: true,
			errorMsg:    "Invalid email address",
		},
		{
			name:        "Short password",
			input:       &model.RegisterRequest{Name: "ann", Email: "ann@example.com", Password: "123"},
			expectError: true,
			errorMsg:    "password must be at least 6 characters",
		},
		{
			name: "Negative price",
			input: &model.ProductRequest{
				Name:   "Shirt",
				Price:  decimal.NewFromInt(-1),
				Images: []string{"https://cdn.example.com/a.png"},
			},
			expectError: true,
			errorMsg:    "price must be greater than or equal to 0",
		},
		{
			name: "Product without images",
			input: &model.ProductRequest{
				Name:  "Shirt",
				Price: decimal.NewFromInt(10),
			},
			expectError: true,
			errorMsg:    "At least 1 images required",
		},
		{
			name: "Order quantity beyond the column",
			input: &model.OrderRequest{
				Items:         []model.OrderItemRequest{{ProductID: productID, Quantity: 3_000_000_000}},
				Address:       validAddress,
				PaymentMethod: "cod",
			},
			expectError: true,
			errorMsg:    "items[0].quantity must be at most 100000",
		},
		{
			name: "Order size beyond the column",
			input: &model.OrderRequest{
				Items:         []model.OrderItemRequest{{ProductID: productID, Quantity: 1, Size: strings.Repeat("X", 21)}},
				Address:       validAddress,
				PaymentMethod: "cod",
			},
			expectError: true,
			errorMsg:    "items[0].size must be at most 20 characters",
		},
		{
			name:        "Cart quantity beyond the column",
			input:       &model.AddToCartRequest{ProductID: productID, Size: "M", Quantity: 100_001},
			expectError: true,
			errorMsg:    "quantity must be at most 100000",
		},
		{
			name:        "Cart update beyond the column",
			input:       &model.UpdateCartRequest{NewQuantity: ptr(200_000)},
			expectError: true,
			errorMsg:    "newQuantity must be at most 100000",
		},
		{
			name:  "Cart update to zero",
			input: &model.UpdateCartRequest{NewQuantity: ptr(0)},
		},
		{
			name:        "Password longer than bcrypt accepts",
			input:       &model.RegisterRequest{Name: "ann", Email: "ann@example.com", Password: strings.Repeat("p", 100)},
			expectError: true,
			errorMsg:    "password must be at most 72 bytes",
		},
		{
			name:        "Password of 72 multi-byte runes",
			input:       &model.ResetPasswordRequest{Password: strings.Repeat("ü", 72)},
			expectError: true,
			errorMsg:    "password must be at most 72 bytes",
		},
		{
			name:        "User name beyond the column",
			input:       &model.UpdateProfileRequest{Name: strings.Repeat("a", 256), Email: "ann@example.com"},
			expectError: true,
			errorMsg:    "name must be at most 255 characters",
		},
		{
			name: "Valid price",
			input: &model.ProductRequest{
				Name:   "Shirt",
				Price:  decimal.RequireFromString("19.99"),
				Images: []string{"https://cdn.example.com/a.png"},
			},
		},
		{
			name: "Price with three decimals",
			input: &model.ProductRequest{
				Name:   "Shirt",
				Price:  decimal.RequireFromString("19.999"),
				Images: []string{"https://cdn.example.com/a.png"},
			},
			expectError: true,
			errorMsg:    "price must have at most 2 decimal places",
		},
		{
			name: "Price beyond the column",
			input: &model.ProductRequest{
				Name:   "Shirt",
				Price:  decimal.RequireFromString("10000000000"),
				Images: []string{"https://cdn.example.com/a.png"},
			},
			expectError: true,
			errorMsg:    "price must be at most 9999999999.99",
		},
		{
			name:        "Price update with three decimals",
			input:       &model.ProductUpdate{Price: ptr(decimal.RequireFromString("1.005"))},
			expectError: true,
			errorMsg:    "price must have at most 2 decimal places",
		},
		{
			name: "Category beyond the column",
			input: &model.ProductRequest{
				Name:     "Shirt",
				Price:    decimal.NewFromInt(10),
				Images:   []string{"https://cdn.example.com/a.png"},
				Category: strings.Repeat("c", 101),
			},
			expectError: true,
			errorMsg:    "category must be at most 100 characters",
		},
		{
			name: "Size beyond the column",
			input: &model.ProductRequest{
				Name:   "Shirt",
				Price:  decimal.NewFromInt(10),
				Images: []string{"https://cdn.example.com/a.png"},
				Sizes:  []string{"M", strings.Repeat("L", 21)},
			},
			expectError: true,
			errorMsg:    "sizes[1] must be at most 20 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)

			if !tt.expectError {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.errorMsg, err.Error())
			assert.Equal(t, model.KindValidation, model.KindOf(err))
		})
	}
}

func ptr[T any](v T) *T { return &v }
